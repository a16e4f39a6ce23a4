package orchestrator

import "time"

// Metrics is the ambient instrumentation port the Session Engine reports
// through. internal/metrics backs it with Prometheus collectors; NoOpMetrics
// is the default.
type Metrics interface {
	TurnStarted()
	TurnCancelled()
	TurnCompleted()
	BargeIn()
	ObserveASRLatency(d time.Duration)
	ObserveLLMFirstToken(d time.Duration)
	ObserveTTSFirstChunk(d time.Duration)
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (NoOpMetrics) TurnStarted()                        {}
func (NoOpMetrics) TurnCancelled()                       {}
func (NoOpMetrics) TurnCompleted()                       {}
func (NoOpMetrics) BargeIn()                             {}
func (NoOpMetrics) ObserveASRLatency(time.Duration)      {}
func (NoOpMetrics) ObserveLLMFirstToken(time.Duration)   {}
func (NoOpMetrics) ObserveTTSFirstChunk(time.Duration)   {}

// SessionMetrics is a point-in-time snapshot exposed via Session.Metrics,
// independent of whatever Metrics backend is wired in (spec_full.md §3
// supplement).
type SessionMetrics struct {
	HistoryLength int
	QueueDepth    int
	TurnsStarted  int
	TurnsCancelled int
	TurnsCompleted int
}
