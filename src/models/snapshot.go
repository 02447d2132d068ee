package models

import "encoding/json"

// -----------------------------------------------------------------------------
// Dashboard Snapshot (matches the producer wire format exactly)
// -----------------------------------------------------------------------------

// System modes reported by the producer.
const (
	ModeLive    = "LIVE"
	ModeDryRun  = "DRY_RUN"
	ModeUnknown = "UNKNOWN"
)

// MSnapshot is the unit of state held by the hub. It is replaced wholesale
// on every accepted sync; readers never see a partial update.
type MSnapshot struct {
	LastUpdated string             `json:"lastUpdated"`
	System      MSystemInfo        `json:"system"`
	Stats       MStats             `json:"stats"`
	History     []MHistoryEntry    `json:"history"`
	Transitions []MStateTransition `json:"transitions"`
	Trades      []MTrade           `json:"trades"`
	Reports     []json.RawMessage  `json:"reports"`
}

// -----------------------------------------------------------------------------

type MSystemInfo struct {
	Version string  `json:"version"`
	Mode    string  `json:"mode"`
	Uptime  float64 `json:"uptime"`
}

// -----------------------------------------------------------------------------

// MStats carries the producer's current cycle stats. BTCPrice and FearGreed
// are nullable on the wire, hence pointers.
type MStats struct {
	CurrentState   string   `json:"current_state"`
	PortfolioValue float64  `json:"portfolio_value"`
	TotalReturn    float64  `json:"total_return"`
	TotalReturnPct float64  `json:"total_return_pct"`
	BTCPrice       *float64 `json:"btc_price"`
	FearGreed      *int     `json:"fear_greed"`
	DaysInState    int      `json:"days_in_state"`
	DaysRunning    int      `json:"days_running"`
	Timestamp      string   `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// MHistoryEntry is one producer cycle sample. Entries arrive ascending by
// timestamp. Optional numeric fields stay nil when the producer omits them.
type MHistoryEntry struct {
	Timestamp      string   `json:"timestamp"`
	PortfolioValue float64  `json:"portfolio_value"`
	CurrentState   string   `json:"current_state"`
	BTCPrice       *float64 `json:"btc_price,omitempty"`
	FearGreed      *int     `json:"fear_greed,omitempty"`
}

// -----------------------------------------------------------------------------

// MTrade rows arrive most-recent-first.
type MTrade struct {
	Timestamp string   `json:"timestamp"`
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"` // "buy" or "sell"
	Price     float64  `json:"price"`
	Value     float64  `json:"value"`
	Amount    *float64 `json:"amount,omitempty"`
}

// -----------------------------------------------------------------------------

type MStateTransition struct {
	Timestamp      string  `json:"timestamp"`
	FromState      string  `json:"from_state"`
	ToState        string  `json:"to_state"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// -----------------------------------------------------------------------------

// NewPlaceholderSnapshot returns the state held before the first sync.
// Every sequence is present and empty so read projections are always
// well-formed.
func NewPlaceholderSnapshot(version string) MSnapshot {
	return MSnapshot{
		System: MSystemInfo{
			Version: version,
			Mode:    ModeUnknown,
		},
		Stats: MStats{
			CurrentState: "WAITING",
		},
		History:     []MHistoryEntry{},
		Transitions: []MStateTransition{},
		Trades:      []MTrade{},
		Reports:     []json.RawMessage{},
	}
}
