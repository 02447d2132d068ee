package validator

import (
	"testing"

	"cce-cloud/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

const secret = "test-secret"

func TestValidate_SecretNotConfigured(t *testing.T) {
	_, err := Validate([]byte(`{"stats":{}}`), secret, "")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}

func TestValidate_WrongSecret(t *testing.T) {
	_, err := Validate([]byte(`{"stats":{}}`), "nope", secret)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidate_MissingSecret(t *testing.T) {
	_, err := Validate([]byte(`{"stats":{}}`), "", secret)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// -----------------------------------------------------------------------------

func TestValidate_RejectsMissingStats(t *testing.T) {
	cases := map[string]string{
		"no stats key": `{"history":[]}`,
		"null stats":   `{"stats":null}`,
		"not json":     `garbage`,
		"json array":   `[1,2,3]`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate([]byte(body), secret, secret)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

// -----------------------------------------------------------------------------

func TestValidate_AcceptsMinimalPayload(t *testing.T) {
	snap, err := Validate([]byte(`{"stats":{"current_state":"IGNITION","portfolio_value":312.5}}`), secret, secret)
	require.NoError(t, err)

	assert.Equal(t, "IGNITION", snap.Stats.CurrentState)
	assert.Equal(t, 312.5, snap.Stats.PortfolioValue)

	// Absent sequences normalized to empty, absent mode to UNKNOWN
	assert.NotNil(t, snap.History)
	assert.Empty(t, snap.History)
	assert.NotNil(t, snap.Trades)
	assert.NotNil(t, snap.Transitions)
	assert.NotNil(t, snap.Reports)
	assert.Equal(t, models.ModeUnknown, snap.System.Mode)
}

// -----------------------------------------------------------------------------

func TestValidate_NullableFields(t *testing.T) {
	body := `{"stats":{"current_state":"WAITING","btc_price":null,"fear_greed":55}}`
	snap, err := Validate([]byte(body), secret, secret)
	require.NoError(t, err)

	assert.Nil(t, snap.Stats.BTCPrice)
	require.NotNil(t, snap.Stats.FearGreed)
	assert.Equal(t, 55, *snap.Stats.FearGreed)
}

// -----------------------------------------------------------------------------

func TestValidate_FullPayloadPassesThrough(t *testing.T) {
	body := `{
		"system": {"version": "2.0.0", "mode": "LIVE"},
		"stats": {"current_state": "CASCADE_1", "portfolio_value": 350},
		"history": [
			{"timestamp": "2026-01-01T00:00:00Z", "portfolio_value": 300, "current_state": "WAITING"}
		],
		"trades": [
			{"timestamp": "2026-01-02T00:00:00Z", "symbol": "BTC/EUR", "side": "buy", "price": 97000, "value": 150}
		],
		"reports": [{"day": "2026-01-01", "note": "anything goes"}]
	}`

	snap, err := Validate([]byte(body), secret, secret)
	require.NoError(t, err)

	assert.Equal(t, models.ModeLive, snap.System.Mode)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "WAITING", snap.History[0].CurrentState)
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "buy", snap.Trades[0].Side)
	// Reports stay opaque
	require.Len(t, snap.Reports, 1)
	assert.Contains(t, string(snap.Reports[0]), "anything goes")
}

// -----------------------------------------------------------------------------

func TestValidate_ToleratesUnknownState(t *testing.T) {
	snap, err := Validate([]byte(`{"stats":{"current_state":"SOME_FUTURE_STATE"}}`), secret, secret)
	require.NoError(t, err)
	assert.Equal(t, "SOME_FUTURE_STATE", snap.Stats.CurrentState)
}
