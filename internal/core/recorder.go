package core

// Recorder receives counter updates from the core. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Incr(name string, delta int64)
}

// Counter names emitted by the core.
const (
	MetricPublished    = "messages.published"
	MetricHubDropped   = "hub.dropped"
	MetricPersistSkips = "persist.skipped"
)

type nopRecorder struct{}

func (nopRecorder) Incr(string, int64) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
