package tui

import (
	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/session"
)

// Messages sent from the session loop into the bubbletea program

type messageMsg struct{ msg session.Message }

type systemMsg struct {
	text string
	kind session.SystemKind
}

type clearMsg struct{}

type statusMsg struct {
	text string
	kind session.ConnectionKind
}

type titleMsg struct {
	name      string
	userCount int
}

type typingMsg struct {
	text    string
	visible bool
}

type countdownMsg struct {
	formatted string
	warning   bool
}

type roomListMsg struct {
	rooms   []rooms_client.Room
	current string
}

type hideRoomListMsg struct{}
