package producer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cce-cloud/src/logger"
	"cce-cloud/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SyncAgent
//
// The producer-side counterpart of the hub: reads the trading process's
// local SQLite database, assembles a snapshot payload and pushes it to
// /api/sync with the shared secret. Designed to run once per invocation
// (cron or a process manager own the schedule). A failed push is reported
// via Telegram when configured; retries are the scheduler's business.
// -----------------------------------------------------------------------------

type SyncAgent struct {
	Config *models.MConfig
	Logger *logger.Logger
	DB     *sql.DB

	client *http.Client
}

// -----------------------------------------------------------------------------

func NewSyncAgent(cfg *models.MConfig, log *logger.Logger) (*SyncAgent, error) {
	db, err := sql.Open("sqlite", cfg.Producer.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", cfg.Producer.DBPath, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach database '%s': %w", cfg.Producer.DBPath, err)
	}

	return &SyncAgent{
		Config: cfg,
		Logger: log,
		DB:     db,
		client: &http.Client{
			Timeout: time.Duration(cfg.Producer.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// -----------------------------------------------------------------------------

// Run gathers and pushes one snapshot. On push failure it fires the
// Telegram alert (best effort) and returns the push error.
func (a *SyncAgent) Run(ctx context.Context) error {
	a.Logger.Info("Gathering data from local DB...")
	payload, err := a.GatherData(ctx)
	if err != nil {
		return fmt.Errorf("failed to gather data: %w", err)
	}

	a.Logger.Info("Pushing to %s...", a.Config.Producer.HubURL)
	if err := a.Push(ctx, payload); err != nil {
		a.Logger.Error("Sync failed: %v", err)
		a.sendTelegramAlert(ctx, err.Error())
		return err
	}

	a.Logger.Info("Sync successful")
	return nil
}

// -----------------------------------------------------------------------------

// GatherData assembles the snapshot payload: latest cycle stats, the
// ascending bounded history window and the newest trades.
func (a *SyncAgent) GatherData(ctx context.Context) (models.MSnapshot, error) {
	mode := models.ModeDryRun
	if !a.Config.Producer.DryRun {
		mode = models.ModeLive
	}

	payload := models.MSnapshot{
		System: models.MSystemInfo{
			Version: a.Config.Version,
			Mode:    mode,
		},
		History:     []models.MHistoryEntry{},
		Transitions: []models.MStateTransition{},
		Trades:      []models.MTrade{},
		Reports:     []json.RawMessage{},
	}

	// 1. Latest cycle stats
	row := a.DB.QueryRowContext(ctx, `
		SELECT timestamp, current_state, portfolio_value, btc_price, fear_greed
		FROM cce_cycles ORDER BY timestamp DESC LIMIT 1
	`)
	var (
		ts       string
		state    string
		value    float64
		btcPrice sql.NullFloat64
		fg       sql.NullInt64
	)
	switch err := row.Scan(&ts, &state, &value, &btcPrice, &fg); err {
	case nil:
		payload.Stats = models.MStats{
			CurrentState:   state,
			PortfolioValue: value,
			Timestamp:      ts,
		}
		if capital := a.Config.Producer.InitialCapital; capital > 0 {
			payload.Stats.TotalReturn = value - capital
			payload.Stats.TotalReturnPct = (value - capital) / capital * 100
		}
		if btcPrice.Valid {
			payload.Stats.BTCPrice = &btcPrice.Float64
		}
		if fg.Valid {
			v := int(fg.Int64)
			payload.Stats.FearGreed = &v
		}
	case sql.ErrNoRows:
		// No cycles yet; push an empty-stats snapshot so the hub still
		// learns the system mode.
	default:
		return models.MSnapshot{}, fmt.Errorf("failed to read latest cycle: %w", err)
	}

	// 2. History window (ascending, oldest first)
	history, err := a.gatherHistory(ctx)
	if err != nil {
		return models.MSnapshot{}, err
	}
	payload.History = history

	// 3. Recent trades (newest first)
	trades, err := a.gatherTrades(ctx)
	if err != nil {
		return models.MSnapshot{}, err
	}
	payload.Trades = trades

	return payload, nil
}

// -----------------------------------------------------------------------------

func (a *SyncAgent) gatherHistory(ctx context.Context) ([]models.MHistoryEntry, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT timestamp, portfolio_value, current_state, btc_price, fear_greed
		FROM cce_cycles ORDER BY timestamp ASC LIMIT ?
	`, a.Config.Producer.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	history := []models.MHistoryEntry{}
	for rows.Next() {
		var (
			entry    models.MHistoryEntry
			btcPrice sql.NullFloat64
			fg       sql.NullInt64
		)
		if err := rows.Scan(&entry.Timestamp, &entry.PortfolioValue, &entry.CurrentState, &btcPrice, &fg); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if btcPrice.Valid {
			entry.BTCPrice = &btcPrice.Float64
		}
		if fg.Valid {
			v := int(fg.Int64)
			entry.FearGreed = &v
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// -----------------------------------------------------------------------------

func (a *SyncAgent) gatherTrades(ctx context.Context) ([]models.MTrade, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT timestamp, symbol, side, price, value, amount
		FROM trades ORDER BY timestamp DESC LIMIT ?
	`, a.Config.Producer.TradesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	defer rows.Close()

	trades := []models.MTrade{}
	for rows.Next() {
		var (
			trade  models.MTrade
			amount sql.NullFloat64
		)
		if err := rows.Scan(&trade.Timestamp, &trade.Symbol, &trade.Side, &trade.Price, &trade.Value, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		if amount.Valid {
			trade.Amount = &amount.Float64
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// -----------------------------------------------------------------------------

// Push POSTs the snapshot to the hub's sync endpoint.
func (a *SyncAgent) Push(ctx context.Context, payload models.MSnapshot) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Config.Producer.HubURL+"/api/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-sync-secret", a.Config.SyncSecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hub responded %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// -----------------------------------------------------------------------------

// sendTelegramAlert notifies the operator about a failed sync. Best effort:
// missing configuration or a delivery failure only logs a warning.
func (a *SyncAgent) sendTelegramAlert(ctx context.Context, errorMsg string) {
	token := a.Config.Producer.TelegramBotToken
	chatID := a.Config.Producer.TelegramChatID
	if token == "" || chatID == "" {
		return
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)
	form := url.Values{
		"chat_id": {chatID},
		"text":    {fmt.Sprintf("Cloud sync failed\n\nError: %s", errorMsg)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		a.Logger.Warning("Failed to build Telegram alert: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.Logger.Warning("Failed to send Telegram alert: %v", err)
		return
	}
	resp.Body.Close()
	a.Logger.Info("Telegram alert sent")
}

// -----------------------------------------------------------------------------

func (a *SyncAgent) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
