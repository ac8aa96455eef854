package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Recorder
// ============================================================================

func TestRecorder_Observe(t *testing.T) {
	r := New()

	r.Observe(ActionAsk, 120*time.Millisecond, false)
	r.Observe(ActionAsk, 80*time.Millisecond, true)

	snap := r.Snapshot()
	ask := snap.Actions[ActionAsk]
	assert.Equal(t, int64(2), ask.Count)
	assert.Equal(t, int64(1), ask.Failures)
	assert.Equal(t, int64(200), ask.TotalMs)
	assert.Equal(t, int64(120), ask.MaxMs)
	assert.Equal(t, int64(80), ask.LastMs)
	assert.InDelta(t, 100.0, ask.AvgMs(), 0.001)
}

func TestRecorder_Time(t *testing.T) {
	r := New()

	done := r.Time(ActionSearch)
	done(false)

	assert.Equal(t, int64(1), r.Snapshot().Actions[ActionSearch].Count)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	r.Observe(ActionAsk, time.Second, false)
	r.Time(ActionAsk)(true)

	assert.Empty(t, r.Snapshot().Actions)
}

func TestRecorder_SnapshotIsCopy(t *testing.T) {
	r := New()
	r.Observe(ActionAsk, time.Millisecond, false)

	snap := r.Snapshot()
	r.Observe(ActionAsk, time.Millisecond, false)

	assert.Equal(t, int64(1), snap.Actions[ActionAsk].Count)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Observe(ActionEmbed, time.Millisecond, j%2 == 0)
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()

	embed := r.Snapshot().Actions[ActionEmbed]
	assert.Equal(t, int64(1000), embed.Count)
	assert.Equal(t, int64(500), embed.Failures)
}

func TestActionStats_AvgMsEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ActionStats{}.AvgMs())
}

// ============================================================================
// Formatting
// ============================================================================

func TestFormatSummary(t *testing.T) {
	r := New()
	r.Observe(ActionAsk, time.Millisecond, false)
	r.Observe(ActionSearch, time.Millisecond, true)

	assert.Equal(t, "1 asks (0 failed), 1 searches (1 failed)", FormatSummary(r.Snapshot()))
}

