package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cce-cloud/src/interfaces"
	"cce-cloud/src/logger"
	"cce-cloud/src/models"
	"cce-cloud/src/validator"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

// Producer payloads are capped at 1MB, matching the ingestion contract.
const maxSyncBodyBytes = 1 << 20

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Store  interfaces.IStateStore
	engine *gin.Engine

	startedAt time.Time

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MStats
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger, st interfaces.IStateStore) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:    cfg,
		Logger:    log,
		Store:     st,
		engine:    gin.Default(),
		startedAt: time.Now(),
		clients:   make(map[*Client]struct{}),
		// Buffered so a burst of accepted syncs never blocks the ingestion path
		broadcast:  make(chan models.MStats, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	// Public read-only dashboard: allow any origin
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With, x-sync-secret")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// All /api routes share the per-IP fixed-window rate limit
	limiter := newRateLimiter(s.Config.RateLimit)
	api := s.engine.Group("/api", limiter.Middleware())

	api.POST("/sync", s.postSync)
	api.GET("/data", s.getData)
	api.GET("/status", s.getStatus)
	api.GET("/history", s.getHistory)
	api.GET("/transitions", s.getTransitions)
	api.GET("/trades", s.getTrades)
	api.GET("/reports", s.getReports)
	api.GET("/export", s.getExport)
	api.GET("/stream", s.getStream)

	s.engine.GET("/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)

	// Unknown routes answer plain text, never JSON
	s.engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting dashboard hub on %s", addr)

	if s.Config.SyncSecret == "" {
		s.Logger.Warning("SYNC_SECRET not configured - all sync attempts will fail with 500")
	}

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	// Signal the hub loop; it owns the client set and closes the send
	// channels itself, so no pump ever sees a half-torn-down hub.
	close(s.done)
	return nil
}

// -----------------------------------------------------------------------------
// Ingestion
// -----------------------------------------------------------------------------

func (s *DashboardServer) postSync(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSyncBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	presented := c.GetHeader("x-sync-secret")
	snap, err := validator.Validate(body, presented, s.Config.SyncSecret)
	if err != nil {
		// Rejected syncs never touch the store; prior state stays authoritative.
		switch {
		case errors.Is(err, validator.ErrSecretNotConfigured):
			s.Logger.Error("Sync rejected: secret not configured on server")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server misconfiguration"})
		case errors.Is(err, validator.ErrUnauthorized):
			s.Logger.Warning("Unauthorized sync attempt from %s", c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		default:
			s.Logger.Warning("Invalid sync payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		}
		return
	}

	receivedAt := s.Store.Replace(snap)
	s.Logger.Info("Data synced at %s | State: %s | Value: $%.2f",
		receivedAt, snap.Stats.CurrentState, snap.Stats.PortfolioValue)

	// Push-on-change for websocket subscribers
	s.Broadcast(snap.Stats)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"received_at": receivedAt,
	})
}

// -----------------------------------------------------------------------------
// Read projections
// -----------------------------------------------------------------------------

func (s *DashboardServer) getData(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Read())
}

// -----------------------------------------------------------------------------

// statusResponse flattens stats and overrides the producer's own timestamp
// with the hub's lastUpdated stamp.
type statusResponse struct {
	models.MStats
	Timestamp string `json:"timestamp"`
}

func (s *DashboardServer) getStatus(c *gin.Context) {
	stats, lastUpdated := s.Store.Stats()
	c.JSON(http.StatusOK, statusResponse{MStats: stats, Timestamp: lastUpdated})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.History(limitParam(c)))
}

func (s *DashboardServer) getTransitions(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Transitions(limitParam(c)))
}

func (s *DashboardServer) getTrades(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Trades(limitParam(c)))
}

func (s *DashboardServer) getReports(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Reports(limitParam(c)))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getExport(c *gin.Context) {
	snap := s.Store.Read()
	c.JSON(http.StatusOK, gin.H{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"system":       s.Config.Name,
		"version":      snap.System.Version,
		"mode":         snap.System.Mode,
		"reports":      snap.Reports,
		"history":      snap.History,
		"transitions":  snap.Transitions,
		"trades":       snap.Trades,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	snap := s.Store.Read()
	history, transitions, trades := s.Store.CacheSizes()

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"uptime":       time.Since(s.startedAt).Seconds(),
		"lastSync":     snap.LastUpdated,
		"currentState": snap.Stats.CurrentState,
		"cacheSize": gin.H{
			"history":     history,
			"transitions": transitions,
			"trades":      trades,
		},
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// limitParam reads the optional ?limit=N query parameter; anything missing
// or unparsable selects the per-field default (0).
func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	var limit int
	if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 0 {
		return 0
	}
	return limit
}
