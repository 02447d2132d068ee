package store

import (
	"fmt"
	"sync"
	"testing"

	"cce-cloud/src/logger"
	"cce-cloud/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestStore() *StateStore {
	cfg := &models.MConfig{
		Version: "2.0.0",
		Retention: models.MRetentionConfig{
			History:     100,
			Transitions: 10,
			Trades:      20,
			Reports:     30,
		},
	}
	return NewStateStore(cfg, logger.NewLogger("ERROR", "test"))
}

func snapshotWithHistory(n int, state string) models.MSnapshot {
	history := make([]models.MHistoryEntry, n)
	for i := range history {
		history[i] = models.MHistoryEntry{
			Timestamp:    fmt.Sprintf("2026-01-01T00:%02d:00Z", i%60),
			CurrentState: state,
		}
	}
	return models.MSnapshot{
		Stats:   models.MStats{CurrentState: state},
		History: history,
	}
}

// -----------------------------------------------------------------------------

func TestPlaceholderBeforeFirstSync(t *testing.T) {
	s := newTestStore()

	snap := s.Read()
	assert.Empty(t, snap.LastUpdated)
	assert.Equal(t, models.ModeUnknown, snap.System.Mode)
	assert.Equal(t, "WAITING", snap.Stats.CurrentState)

	// Every slice read is well-formed and empty, never nil
	assert.NotNil(t, s.History(0))
	assert.Empty(t, s.History(0))
	assert.NotNil(t, s.Trades(0))
	assert.Empty(t, s.Trades(0))
	assert.NotNil(t, s.Transitions(0))
	assert.NotNil(t, s.Reports(0))
}

// -----------------------------------------------------------------------------

func TestReplaceStampsReceiveTime(t *testing.T) {
	s := newTestStore()

	snap := snapshotWithHistory(3, "IGNITION")
	snap.LastUpdated = "1999-01-01T00:00:00Z" // producer-sent stamp is ignored

	receivedAt := s.Replace(snap)
	require.NotEmpty(t, receivedAt)
	assert.NotEqual(t, "1999-01-01T00:00:00Z", s.Read().LastUpdated)
	assert.Equal(t, receivedAt, s.Read().LastUpdated)
}

// -----------------------------------------------------------------------------

func TestReplaceIsWholesale(t *testing.T) {
	s := newTestStore()

	s.Replace(snapshotWithHistory(50, "IGNITION"))
	require.Len(t, s.History(0), 50)

	// A shorter producer window shrinks the view; nothing is merged.
	s.Replace(snapshotWithHistory(5, "WAITING"))
	assert.Len(t, s.History(0), 5)
	assert.Equal(t, "WAITING", s.Read().Stats.CurrentState)
}

// -----------------------------------------------------------------------------

func TestReplaceIdempotentExceptTimestamp(t *testing.T) {
	s := newTestStore()
	snap := snapshotWithHistory(10, "CASCADE_1")

	s.Replace(snap)
	first := s.Read()

	s.Replace(snap)
	second := s.Read()

	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.History, second.History)
	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, int64(2), s.SyncCount())
}

// -----------------------------------------------------------------------------

func TestSliceDefaultsAndClamping(t *testing.T) {
	s := newTestStore()

	snap := snapshotWithHistory(80, "WAITING")
	for i := 0; i < 30; i++ {
		snap.Trades = append(snap.Trades, models.MTrade{Symbol: fmt.Sprintf("T%d", i)})
	}
	s.Replace(snap)

	// Defaults
	assert.Len(t, s.History(0), 80)
	assert.Len(t, s.Trades(0), 20)

	// Explicit limits, clamped to sequence length
	assert.Len(t, s.History(10), 10)
	assert.Len(t, s.History(10_000), 80)

	// History slices keep the newest (tail) entries
	tail := s.History(1)
	require.Len(t, tail, 1)
	assert.Equal(t, snap.History[79].Timestamp, tail[0].Timestamp)
}

// Every sequence read selects the positional last elements, trades
// included. The wire order for trades is newest-first, so a bounded read
// lands on the oldest retained rows, exactly as the full-window default
// does not.
func TestTrades_PositionalTailSelection(t *testing.T) {
	s := newTestStore()

	snap := models.MSnapshot{Stats: models.MStats{CurrentState: "WAITING"}}
	for i := 0; i < 30; i++ {
		snap.Trades = append(snap.Trades, models.MTrade{Symbol: fmt.Sprintf("T%d", i)})
	}
	s.Replace(snap)

	// Retention keeps the newest 20 rows of the newest-first window: T0..T19
	all := s.Trades(0)
	require.Len(t, all, 20)
	assert.Equal(t, "T0", all[0].Symbol)
	assert.Equal(t, "T19", all[19].Symbol)

	// A bounded read is the positional last slice of the stored window
	bounded := s.Trades(5)
	require.Len(t, bounded, 5)
	assert.Equal(t, "T15", bounded[0].Symbol)
	assert.Equal(t, "T19", bounded[4].Symbol)
}

// -----------------------------------------------------------------------------

func TestRetentionClampOnIngest(t *testing.T) {
	s := newTestStore()

	// 250 entries against a retention cap of 100: newest kept
	s.Replace(snapshotWithHistory(250, "WAITING"))

	history := s.History(10_000)
	assert.Len(t, history, 100)

	h, _, tr := s.CacheSizes()
	assert.Equal(t, 100, h)
	assert.Equal(t, 0, tr)
}

// -----------------------------------------------------------------------------

// A reader must never see stats from one sync and history from another.
func TestReplaceAtomicity(t *testing.T) {
	s := newTestStore()

	const rounds = 500
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			state := fmt.Sprintf("STATE_%d", i)
			snap := snapshotWithHistory(3, state)
			s.Replace(snap)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			snap := s.Read()
			for _, entry := range snap.History {
				if entry.CurrentState != snap.Stats.CurrentState {
					t.Errorf("torn read: stats %s vs history %s",
						snap.Stats.CurrentState, entry.CurrentState)
					return
				}
			}
		}
	}()

	wg.Wait()
}
