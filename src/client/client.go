package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cce-cloud/src/logger"
	"cce-cloud/src/models"
)

// -----------------------------------------------------------------------------
// DashboardClient
//
// Read-only consumer of the hub's /api/data projection. Every successful
// fetch refreshes a local cache file; when the hub is unreachable the
// client falls back to that cache and flags the result as offline, so a
// fetch failure never breaks rendering.
// -----------------------------------------------------------------------------

type DashboardClient struct {
	Logger *logger.Logger

	baseURL   string
	cachePath string
	client    *http.Client
}

// -----------------------------------------------------------------------------

func NewDashboardClient(cfg *models.MConfig, log *logger.Logger) *DashboardClient {
	cachePath := cfg.Producer.CachePath
	if cachePath == "" {
		cachePath = "dashboard-cache.json"
	}

	return &DashboardClient{
		Logger:    log,
		baseURL:   cfg.Producer.HubURL,
		cachePath: cachePath,
		client: &http.Client{
			Timeout: time.Duration(cfg.Producer.TimeoutSeconds) * time.Second,
		},
	}
}

// -----------------------------------------------------------------------------

// FetchSnapshot returns the current dashboard snapshot. The boolean reports
// whether the data came from the offline cache instead of the hub.
func (dc *DashboardClient) FetchSnapshot(ctx context.Context) (models.MSnapshot, bool, error) {
	snap, err := dc.fetch(ctx)
	if err == nil {
		if cacheErr := dc.writeCache(snap); cacheErr != nil {
			dc.Logger.Warning("Failed to cache snapshot: %v", cacheErr)
		}
		return snap, false, nil
	}

	dc.Logger.Warning("Hub unreachable (%v), trying cached snapshot", err)

	cached, cacheErr := dc.readCache()
	if cacheErr != nil {
		return models.MSnapshot{}, false, fmt.Errorf("hub unreachable and no cached snapshot: %w", err)
	}
	return cached, true, nil
}

// -----------------------------------------------------------------------------

func (dc *DashboardClient) fetch(ctx context.Context) (models.MSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dc.baseURL+"/api/data", nil)
	if err != nil {
		return models.MSnapshot{}, err
	}

	resp, err := dc.client.Do(req)
	if err != nil {
		return models.MSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.MSnapshot{}, fmt.Errorf("HTTP %d from hub", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.MSnapshot{}, err
	}

	var snap models.MSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return models.MSnapshot{}, fmt.Errorf("malformed snapshot from hub: %w", err)
	}
	return snap, nil
}

// -----------------------------------------------------------------------------
// Local cache
// -----------------------------------------------------------------------------

func (dc *DashboardClient) writeCache(snap models.MSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(dc.cachePath, data, 0644)
}

// -----------------------------------------------------------------------------

func (dc *DashboardClient) readCache() (models.MSnapshot, error) {
	data, err := os.ReadFile(dc.cachePath)
	if err != nil {
		return models.MSnapshot{}, err
	}
	var snap models.MSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.MSnapshot{}, err
	}
	return snap, nil
}
