package interfaces

import (
	"encoding/json"

	"cce-cloud/src/models"
)

// -----------------------------------------------------------------------------

// IStateStore is the hub's single mutable cell: atomic wholesale replace,
// read-by-value, bounded slice projections.
type IStateStore interface {
	Replace(snap models.MSnapshot) string
	Read() models.MSnapshot
	Stats() (models.MStats, string)

	History(limit int) []models.MHistoryEntry
	Transitions(limit int) []models.MStateTransition
	Trades(limit int) []models.MTrade
	Reports(limit int) []json.RawMessage

	CacheSizes() (history, transitions, trades int)
	SyncCount() int64
}
