package server

import (
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server-Sent Events stream
//
// Each connection owns its own ticker: the current stats are written
// immediately on connect and then once per tick whether or not they changed.
// Nothing is buffered for reconnecting clients; a new connection only ever
// sees the then-current state. The ticker is released as soon as the request
// context is cancelled, so churned connections cannot leak timers.
// -----------------------------------------------------------------------------

func (s *DashboardServer) getStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Disable nginx buffering
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(time.Duration(s.Config.Stream.TickSeconds) * time.Second)
	defer ticker.Stop()

	writeStats := func() {
		stats, _ := s.Store.Stats()
		c.Render(-1, sse.Event{Data: stats})
		c.Writer.Flush()
	}

	// Send immediately
	writeStats()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			writeStats()
		}
	}
}
