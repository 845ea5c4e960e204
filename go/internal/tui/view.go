package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/session"
)

// Sender delivers messages into a running program; *tea.Program satisfies it
type Sender interface {
	Send(msg tea.Msg)
}

// View adapts the session and room list callbacks onto a bubbletea program.
// Each call blocks until the program accepts the message or has exited.
type View struct {
	program Sender
}

// NewView creates a View forwarding to program
func NewView(program Sender) *View {
	return &View{program: program}
}

func (v *View) RenderMessage(msg session.Message) {
	v.program.Send(messageMsg{msg: msg})
}

func (v *View) RenderSystemMessage(text string, kind session.SystemKind) {
	v.program.Send(systemMsg{text: text, kind: kind})
}

func (v *View) ClearAll() {
	v.program.Send(clearMsg{})
}

func (v *View) SetConnectionStatus(text string, kind session.ConnectionKind) {
	v.program.Send(statusMsg{text: text, kind: kind})
}

func (v *View) SetRoomTitle(name string, userCount int) {
	v.program.Send(titleMsg{name: name, userCount: userCount})
}

func (v *View) SetTypingDisplay(text string, visible bool) {
	v.program.Send(typingMsg{text: text, visible: visible})
}

func (v *View) SetCountdownDisplay(formatted string, warning bool) {
	v.program.Send(countdownMsg{formatted: formatted, warning: warning})
}

func (v *View) ShowRoomList(rooms []rooms_client.Room, currentRoom string) {
	v.program.Send(roomListMsg{rooms: rooms, current: currentRoom})
}

func (v *View) HideRoomList() {
	v.program.Send(hideRoomListMsg{})
}
