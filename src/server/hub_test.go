package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cce-cloud/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func dialWebsocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

// -----------------------------------------------------------------------------

func TestWebsocket_InitialStatsOnConnect(t *testing.T) {
	s := newTestServer(t, nil)
	go s.handleWebsockets()

	require.Equal(t, http.StatusOK,
		doRequest(s, http.MethodPost, "/api/sync", syncBody("IGNITION", 1),
			map[string]string{"x-sync-secret": testSecret}).Code)

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	conn := dialWebsocket(t, ts)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var stats models.MStats
	require.NoError(t, conn.ReadJSON(&stats))
	assert.Equal(t, "IGNITION", stats.CurrentState)
}

// -----------------------------------------------------------------------------

func TestWebsocket_PushOnSync(t *testing.T) {
	s := newTestServer(t, nil)
	go s.handleWebsockets()

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	conn := dialWebsocket(t, ts)
	defer conn.Close()

	// Connect event carries the placeholder state
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var stats models.MStats
	require.NoError(t, conn.ReadJSON(&stats))
	assert.Equal(t, "WAITING", stats.CurrentState)

	// An accepted sync is pushed without waiting for any timer
	require.Equal(t, http.StatusOK,
		doRequest(s, http.MethodPost, "/api/sync", syncBody("CASCADE_2", 1),
			map[string]string{"x-sync-secret": testSecret}).Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&stats))
	assert.Equal(t, "CASCADE_2", stats.CurrentState)
}

// -----------------------------------------------------------------------------

func TestStop_TerminatesHubLoop(t *testing.T) {
	s := newTestServer(t, nil)

	stopped := make(chan struct{})
	go func() {
		s.handleWebsockets()
		close(stopped)
	}()

	ts := httptest.NewServer(s.engine)
	defer ts.Close()

	conn := dialWebsocket(t, ts)
	defer conn.Close()

	// Drain the connect event so the client is fully registered
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var stats models.MStats
	require.NoError(t, conn.ReadJSON(&stats))

	require.NoError(t, s.Stop())

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub loop did not exit after Stop")
	}

	// The loop closed the client's send channel on the way out, so the
	// write pump sends a close frame and the read side sees EOF.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
