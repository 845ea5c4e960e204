package main

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/livechat-docker/livechat/go/internal/session"
	"github.com/livechat-docker/livechat/go/internal/view"
)

type recordingChatView struct {
	*view.LogView
	errors []string
}

func (v *recordingChatView) RenderSystemMessage(text string, kind session.SystemKind) {
	if kind == session.SystemError {
		v.errors = append(v.errors, text)
	}
}

func newActionsFixture() (*sessionActions, *Services, *recordingChatView) {
	loop := session.NewLoop(clockwork.NewFakeClock())
	chat := &recordingChatView{LogView: view.NewLogView(zerolog.Nop())}
	services := &Services{
		Loop:       loop,
		Controller: session.NewController(session.DefaultConfig(), loop, idleTransport{}, chat),
		View:       chat,
	}
	return &sessionActions{services: services}, services, chat
}

func TestSessionActionsBeforeSetupAreDropped(t *testing.T) {
	actions := &sessionActions{}
	actions.InputChanged("hi")
	actions.SendMessage("hi")
}

func TestSessionActionsSendWhileDisconnectedShowsError(t *testing.T) {
	actions, services, chat := newActionsFixture()

	actions.SendMessage("hello")
	require.Empty(t, chat.errors)

	services.Loop.RunPending()
	require.Equal(t, []string{"Not connected to a room, message not sent"}, chat.errors)
}

func TestSessionActionsNeverBlockOnBusyLoop(t *testing.T) {
	actions, services, chat := newActionsFixture()

	// Fill the posted task queue while the loop is not running
	for i := 0; i < 256; i++ {
		require.True(t, services.Loop.Post(func() {}))
	}

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		actions.InputChanged("typing")
		actions.SendMessage("hello")
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("UI action blocked on a full loop queue")
	}

	services.Loop.RunPending()
	require.Equal(t, []string{"Not connected to a room, message not sent"}, chat.errors)
}
