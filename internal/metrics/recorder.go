package metrics

import "time"

// Recorder receives client-side telemetry from the API client and the state
// containers.
type Recorder interface {
	RecordRequest(method, route string, status int, elapsed time.Duration)
	RecordAuthAttempt(kind string, success bool)
	RecordCartOperation(operation string, success bool)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) RecordRequest(string, string, int, time.Duration) {}

func (NoopRecorder) RecordAuthAttempt(string, bool) {}

func (NoopRecorder) RecordCartOperation(string, bool) {}

var _ Recorder = (*NoopRecorder)(nil)
