// Package metrics keeps in-process counters and latencies for chat actions.
package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Action names recorded by the chat service.
const (
	ActionAsk        = "ask"
	ActionSearch     = "search"
	ActionHistory    = "history"
	ActionEmbeddings = "embeddings"
	ActionLLM        = "llm"
	ActionEmbed      = "embed"
	ActionStore      = "store"
)

// ActionStats contains counters for one action
type ActionStats struct {
	Count    int64 `json:"count"`    // Number of completed calls
	Failures int64 `json:"failures"` // Calls that ended in a failure
	TotalMs  int64 `json:"total_ms"` // Sum of call durations
	MaxMs    int64 `json:"max_ms"`   // Slowest call
	LastMs   int64 `json:"last_ms"`  // Most recent call
}

// AvgMs returns the mean call duration in milliseconds.
func (s ActionStats) AvgMs() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalMs) / float64(s.Count)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Since   time.Time              `json:"since"`
	Actions map[string]ActionStats `json:"actions"`
}

// Recorder accumulates ActionStats. The zero value is not usable; call New.
// A nil *Recorder ignores every observation.
type Recorder struct {
	mu      sync.Mutex
	since   time.Time
	actions map[string]*ActionStats
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{
		since:   time.Now(),
		actions: make(map[string]*ActionStats),
	}
}

// Observe records one call of action.
func (r *Recorder) Observe(action string, d time.Duration, failed bool) {
	if r == nil {
		return
	}
	ms := d.Milliseconds()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.actions[action]
	if !ok {
		s = &ActionStats{}
		r.actions[action] = s
	}
	s.Count++
	if failed {
		s.Failures++
	}
	s.TotalMs += ms
	s.LastMs = ms
	if ms > s.MaxMs {
		s.MaxMs = ms
	}
}

// Time starts a timer; calling the returned func records the call.
func (r *Recorder) Time(action string) func(failed bool) {
	start := time.Now()
	return func(failed bool) {
		r.Observe(action, time.Since(start), failed)
	}
}

// Snapshot copies the current counters.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{Actions: map[string]ActionStats{}}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{Since: r.since, Actions: make(map[string]ActionStats, len(r.actions))}
	for name, s := range r.actions {
		snap.Actions[name] = *s
	}
	return snap
}

// FormatSummary returns a compact one-line summary
func FormatSummary(s Snapshot) string {
	ask := s.Actions[ActionAsk]
	search := s.Actions[ActionSearch]
	return fmt.Sprintf("%d asks (%d failed), %d searches (%d failed)",
		ask.Count, ask.Failures, search.Count, search.Failures)
}
