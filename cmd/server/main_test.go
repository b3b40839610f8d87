package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"scribbly/internal/config"
	"scribbly/internal/game"
	"scribbly/internal/protocol"
)

func startApp(t *testing.T) (*App, string, context.CancelFunc, <-chan error) {
	t.Helper()

	app, err := SetupServer(config.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()
	t.Cleanup(cancel)

	return app, ln.Addr().String(), cancel, done
}

func TestServe(t *testing.T) {
	_, addr, cancel, done := startApp(t)

	resp, err := http.Get("http://" + addr + "/health/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ShutdownClosesRooms(t *testing.T) {
	app, addr, cancel, done := startApp(t)

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	data, _ := json.Marshal(protocol.CreateRoom{Username: "Alice"})
	require.NoError(t, wsjson.Write(ctx, conn, protocol.Envelope{Event: protocol.CmdCreateRoom, ID: "1", Data: data}))

	var env protocol.Envelope
	for env.Event != protocol.EventAck {
		require.NoError(t, wsjson.Read(ctx, conn, &env))
	}
	var ack protocol.Ack
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	require.True(t, ack.Success)
	assert.Equal(t, 1, app.Store.Count())

	cancel()

	for env.Event != game.EventRoomClosed {
		require.NoError(t, wsjson.Read(ctx, conn, &env))
	}
	var notice game.Notice
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, ack.RoomID, notice.RoomID)
	assert.Contains(t, notice.Message, "shutting down")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Zero(t, app.Store.Count())
}

func TestServeMetrics(t *testing.T) {
	app, err := SetupServer(config.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.ServeMetrics(ctx, ln) }()

	_, err = app.Store.CreateRoom("conn-1", "Alice")
	require.NoError(t, err)

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "scribbly_rooms_active 1"), "rooms gauge should be exported")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
}
