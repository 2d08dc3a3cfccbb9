package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/domain"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := gin.New()
	r.GET("/ws", hub.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	snap := &domain.AuditSnapshot{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Prices:    map[string]float64{"AAPL": 152.4},
	}
	// The register handoff races the publish; retry until the client is
	// wired into the hub.
	go func() {
		for i := 0; i < 50; i++ {
			hub.Publish(snap)
			time.Sleep(10 * time.Millisecond)
		}
	}()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.AuditSnapshot
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, 152.4, got.Prices["AAPL"])
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	hub.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	// No Run loop: the buffered channel absorbs a few snapshots and the
	// rest are dropped.
	for i := 0; i < 32; i++ {
		hub.Publish(&domain.AuditSnapshot{ID: uuid.NewString(), Timestamp: time.Now()})
	}
}
