package origin

import "testing"

func TestGuardAllowlist(t *testing.T) {
	g := New([]string{"example.com"})

	tests := []struct {
		name    string
		origin  string
		present bool
		want    bool
	}{
		{name: "https bare host", origin: "https://example.com", present: true, want: true},
		{name: "http bare host", origin: "http://example.com", present: true, want: true},
		{name: "case insensitive", origin: "HTTPS://Example.COM", present: true, want: true},
		{name: "other host", origin: "https://evil.com", present: true, want: false},
		{name: "suffix attack", origin: "https://example.com.evil.com", present: true, want: false},
		{name: "with port", origin: "https://example.com:8443", present: true, want: false},
		{name: "absent", present: false, want: false},
		{name: "empty header value", origin: "", present: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Allowed(tt.origin, tt.present); got != tt.want {
				t.Fatalf("Allowed(%q, %v) = %v, want %v", tt.origin, tt.present, got, tt.want)
			}
		})
	}
}

func TestGuardSchemeEntryMatchesExactly(t *testing.T) {
	g := New([]string{"https://chat.example.com", "localhost:8080"})

	if !g.Allowed("https://CHAT.example.com", true) {
		t.Fatal("expected https entry to match case-insensitively")
	}
	if g.Allowed("http://chat.example.com", true) {
		t.Fatal("https entry must not match http origin")
	}
	if !g.Allowed("http://localhost:8080", true) {
		t.Fatal("bare host with port should match http")
	}
}

func TestGuardAllowAll(t *testing.T) {
	for _, raw := range []string{"", "*", "  ", " , ", "example.com,*"} {
		g := Parse(raw)
		if !g.AllowsAll() {
			t.Fatalf("Parse(%q) should allow all", raw)
		}
		for _, origin := range []string{"https://example.com", "https://evil.com", ""} {
			if !g.Allowed(origin, true) {
				t.Fatalf("Parse(%q) rejected %q", raw, origin)
			}
		}
		if !g.Allowed("", false) {
			t.Fatalf("Parse(%q) rejected a request without Origin", raw)
		}
	}
}

func TestParseTrimsEntries(t *testing.T) {
	g := Parse(" a.com , ,https://b.com ")
	got := g.Entries()
	if len(got) != 2 || got[0] != "a.com" || got[1] != "https://b.com" {
		t.Fatalf("unexpected entries: %q", got)
	}
}
