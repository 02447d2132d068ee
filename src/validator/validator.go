package validator

import (
	"encoding/json"
	"errors"
	"fmt"

	"cce-cloud/src/models"
)

// -----------------------------------------------------------------------------
// Snapshot validation
//
// Pure check over an inbound sync payload: authenticity first, then
// structural presence of the stats object. Everything else is optional by
// design so the hub tolerates producer schema drift; absent sequences are
// normalized to empty ones. The caller performs the store replace.
// -----------------------------------------------------------------------------

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrSecretNotConfigured = errors.New("sync secret not configured")
)

// -----------------------------------------------------------------------------

// Validate checks a raw sync body against the presented credential and
// returns a normalized snapshot. A zero-value snapshot is returned with any
// error.
func Validate(body []byte, presented, secret string) (models.MSnapshot, error) {
	if secret == "" {
		return models.MSnapshot{}, ErrSecretNotConfigured
	}
	// Plain equality is enough at this trust level: a single producer with a
	// shared secret, no identity beyond that.
	if presented != secret {
		return models.MSnapshot{}, ErrUnauthorized
	}

	// Probe for a structurally present stats object before decoding fully,
	// so `{"stats": null}` and a missing key are rejected the same way.
	var probe struct {
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return models.MSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(probe.Stats) == 0 || string(probe.Stats) == "null" {
		return models.MSnapshot{}, fmt.Errorf("%w: missing stats object", ErrInvalidPayload)
	}

	var snap models.MSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return models.MSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return normalize(snap), nil
}

// -----------------------------------------------------------------------------

// normalize defaults absent optional sequences to empty ones so every read
// projection stays well-formed.
func normalize(snap models.MSnapshot) models.MSnapshot {
	if snap.History == nil {
		snap.History = []models.MHistoryEntry{}
	}
	if snap.Transitions == nil {
		snap.Transitions = []models.MStateTransition{}
	}
	if snap.Trades == nil {
		snap.Trades = []models.MTrade{}
	}
	if snap.Reports == nil {
		snap.Reports = []json.RawMessage{}
	}
	if snap.System.Mode == "" {
		snap.System.Mode = models.ModeUnknown
	}
	return snap
}
