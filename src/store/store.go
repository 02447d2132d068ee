package store

import (
	"encoding/json"
	"sync"
	"time"

	"cce-cloud/src/logger"
	"cce-cloud/src/models"
)

// -----------------------------------------------------------------------------
// StateStore
//
// A single mutable cell holding the current dashboard snapshot. Writes swap
// the whole snapshot under a write lock, so a reader always sees stats and
// history from the same sync. Sequences are never mutated after ingest,
// which lets Read share their backing arrays safely.
// -----------------------------------------------------------------------------

// Default slice limits served when the caller passes limit <= 0.
const (
	DefaultHistoryLimit     = 100
	DefaultTransitionsLimit = 10
	DefaultTradesLimit      = 20
	DefaultReportsLimit     = 30
)

type StateStore struct {
	Logger *logger.Logger

	mu        sync.RWMutex
	snapshot  models.MSnapshot
	retention models.MRetentionConfig
	syncCount int64
}

// -----------------------------------------------------------------------------

// NewStateStore starts with placeholder defaults: mode UNKNOWN and empty
// sequences. State is ephemeral; a restart resets it.
func NewStateStore(cfg *models.MConfig, log *logger.Logger) *StateStore {
	return &StateStore{
		Logger:    log,
		snapshot:  models.NewPlaceholderSnapshot(cfg.Version),
		retention: cfg.Retention,
	}
}

// -----------------------------------------------------------------------------

// Replace swaps the held snapshot wholesale and stamps lastUpdated with the
// hub's receive time. Sequences are NOT merged with the previous sync: the
// producer always sends its full bounded window, so a shorter window shrinks
// the hub's view. Each sequence is clamped to its retention cap (newest
// kept) so an oversized producer payload cannot grow memory unbounded.
// Returns the stamped timestamp.
func (s *StateStore) Replace(snap models.MSnapshot) string {
	receivedAt := time.Now().UTC().Format(time.RFC3339)
	snap.LastUpdated = receivedAt

	snap.History = clampTail(snap.History, s.retention.History)
	snap.Transitions = clampTail(snap.Transitions, s.retention.Transitions)
	snap.Trades = clampHead(snap.Trades, s.retention.Trades)
	snap.Reports = clampTail(snap.Reports, s.retention.Reports)

	s.mu.Lock()
	s.snapshot = snap
	s.syncCount++
	s.mu.Unlock()

	return receivedAt
}

// -----------------------------------------------------------------------------

// Read returns the current snapshot by value.
func (s *StateStore) Read() models.MSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// -----------------------------------------------------------------------------

// Stats returns the current stats projection plus the lastUpdated stamp.
func (s *StateStore) Stats() (models.MStats, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Stats, s.snapshot.LastUpdated
}

// -----------------------------------------------------------------------------
// Bounded slice reads. A limit <= 0 selects the per-field default; limits
// larger than the sequence are clamped, never an error.
// -----------------------------------------------------------------------------

func (s *StateStore) History(limit int) []models.MHistoryEntry {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.snapshot.History, limit)
}

func (s *StateStore) Transitions(limit int) []models.MStateTransition {
	if limit <= 0 {
		limit = DefaultTransitionsLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.snapshot.Transitions, limit)
}

func (s *StateStore) Trades(limit int) []models.MTrade {
	if limit <= 0 {
		limit = DefaultTradesLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Positional last elements, same as every other sequence, even though
	// the wire order for trades is newest-first.
	return tail(s.snapshot.Trades, limit)
}

func (s *StateStore) Reports(limit int) []json.RawMessage {
	if limit <= 0 {
		limit = DefaultReportsLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.snapshot.Reports, limit)
}

// -----------------------------------------------------------------------------

// CacheSizes reports the current sequence lengths (for /health).
func (s *StateStore) CacheSizes() (history, transitions, trades int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot.History), len(s.snapshot.Transitions), len(s.snapshot.Trades)
}

// -----------------------------------------------------------------------------

// SyncCount returns how many syncs have been accepted since startup.
func (s *StateStore) SyncCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncCount
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// tail returns the last n elements.
func tail[T any](seq []T, n int) []T {
	if seq == nil {
		return []T{}
	}
	if n >= len(seq) {
		return seq
	}
	return seq[len(seq)-n:]
}

func clampTail[T any](seq []T, limit int) []T {
	if seq == nil {
		return []T{}
	}
	if limit > 0 && len(seq) > limit {
		return seq[len(seq)-limit:]
	}
	return seq
}

func clampHead[T any](seq []T, limit int) []T {
	if seq == nil {
		return []T{}
	}
	if limit > 0 && len(seq) > limit {
		return seq[:limit]
	}
	return seq
}
