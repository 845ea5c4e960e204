package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/livechat-docker/livechat/go/internal/session"
	"github.com/livechat-docker/livechat/go/internal/view"
)

type idleTransport struct{}

func (idleTransport) Emit(session.Outbound) error { return nil }
func (idleTransport) Connected() bool             { return true }

func TestStateHandlerReportsSnapshot(t *testing.T) {
	loop := session.NewLoop(clockwork.NewRealClock())
	ctrl := session.NewController(session.DefaultConfig(), loop, idleTransport{}, view.NewLogView(zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, loop.Call(ctx, func() {
		ctrl.Handle(&session.TransportConnected{})
		ctrl.JoinRoom("lobby")
	}))

	rec := httptest.NewRecorder()
	stateHandler(loop, ctrl, "client-1", transportWebSocket)(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "client-1", resp.ClientID)
	require.Equal(t, "joining_room", resp.Session.Phase)
	require.True(t, resp.Session.Connected)
	require.Equal(t, "lobby", resp.Session.Room.RoomID)
}

func TestStateHandlerAfterLoopStopped(t *testing.T) {
	loop := session.NewLoop(clockwork.NewRealClock())
	ctrl := session.NewController(session.DefaultConfig(), loop, idleTransport{}, view.NewLogView(zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, loop.Run(ctx))

	rec := httptest.NewRecorder()
	stateHandler(loop, ctrl, "client-1", transportWebSocket)(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	mux := http.NewServeMux()
	setupHealthCheck(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestOptionsOverrideConfig(t *testing.T) {
	config := defaultConfig()
	options{serverURL: "http://chat:5000", room: "lobby", debugAddr: "off", transport: transportNATS}.apply(config)

	require.Equal(t, "http://chat:5000", config.Server.URL)
	require.Equal(t, "lobby", config.Session.AutoJoinRoom)
	require.Equal(t, transportNATS, config.Server.Transport)
	require.Empty(t, config.Debug.Addr)
}
