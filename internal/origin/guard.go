// Package origin decides which browser origins may open a WebSocket.
package origin

import "strings"

// Guard is an immutable origin allowlist.
type Guard struct {
	allowAll bool
	entries  []string
}

// AllowAll returns a guard that accepts every origin, including none.
func AllowAll() *Guard {
	return &Guard{allowAll: true}
}

// New builds a guard from allowlist entries. Blank entries are skipped;
// "*" anywhere, or no usable entry at all, allows everything.
func New(entries []string) *Guard {
	list := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if e == "*" {
			return AllowAll()
		}
		list = append(list, e)
	}
	if len(list) == 0 {
		return AllowAll()
	}
	return &Guard{entries: list}
}

// Parse builds a guard from a comma separated list, as found in config.
// A "*" entry anywhere in the list opens the guard to every origin.
func Parse(raw string) *Guard {
	return New(strings.Split(raw, ","))
}

// AllowsAll reports whether the guard is unrestricted.
func (g *Guard) AllowsAll() bool {
	return g.allowAll
}

// Entries returns a copy of the configured allowlist.
func (g *Guard) Entries() []string {
	return append([]string(nil), g.entries...)
}

// Allowed checks an Origin header value. present is false when the request
// carried no Origin header at all.
//
// Entries with an http:// or https:// prefix match that exact origin;
// bare hosts match both schemes. Comparison is case-insensitive.
func (g *Guard) Allowed(origin string, present bool) bool {
	if g.allowAll {
		return true
	}
	if !present {
		return false
	}

	for _, entry := range g.entries {
		if hasScheme(entry) {
			if strings.EqualFold(origin, entry) {
				return true
			}
			continue
		}
		if strings.EqualFold(origin, "https://"+entry) || strings.EqualFold(origin, "http://"+entry) {
			return true
		}
	}
	return false
}

func hasScheme(entry string) bool {
	return strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://")
}
