package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestHubStopReleasesConnections(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hubCtx, stopHub := context.WithCancel(ctx)
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(stopped)
	}()

	var returned atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWS(w, r)
		returned.Add(1)
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	before, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer before.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopHub()
	<-stopped
	assert.Zero(t, hub.Clients())

	_, _, err = before.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	after, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer after.Close(websocket.StatusNormalClosure, "")

	_, _, err = after.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	require.Eventually(t, func() bool { return returned.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}
