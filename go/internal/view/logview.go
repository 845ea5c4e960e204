package view

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/rooms"
	"github.com/livechat-docker/livechat/go/internal/session"
)

// LogView renders the session as structured log lines. It is used when
// stdout is not a terminal.
type LogView struct {
	logger zerolog.Logger

	title     string
	userCount int
	countdown string
	warning   bool
}

// NewLogView creates a view writing to logger
func NewLogView(logger zerolog.Logger) *LogView {
	return &LogView{logger: logger.With().Str("component", "view").Logger()}
}

func (v *LogView) RenderMessage(msg session.Message) {
	v.logger.Info().
		Str("origin", string(msg.Origin)).
		Str("timestamp", msg.Timestamp).
		Msg(msg.Text)
}

func (v *LogView) RenderSystemMessage(text string, kind session.SystemKind) {
	ev := v.logger.Info()
	if kind == session.SystemError {
		ev = v.logger.Warn()
	}
	ev.Str("kind", string(kind)).Msg(text)
}

func (v *LogView) ClearAll() {
	v.logger.Debug().Msg("chat cleared")
}

func (v *LogView) SetConnectionStatus(text string, kind session.ConnectionKind) {
	v.logger.Info().Str("status", string(kind)).Msg(text)
}

func (v *LogView) SetRoomTitle(name string, userCount int) {
	if name == v.title && userCount == v.userCount {
		return
	}
	v.title, v.userCount = name, userCount
	v.logger.Info().Str("room", name).Int("online", userCount).Msg(RoomTitle(name, userCount))
}

func (v *LogView) SetTypingDisplay(text string, visible bool) {
	if !visible {
		v.logger.Debug().Msg("nobody typing")
		return
	}
	v.logger.Info().Msg(text)
}

// SetCountdownDisplay logs only on whole minutes and warning changes
func (v *LogView) SetCountdownDisplay(formatted string, warning bool) {
	changed := warning != v.warning
	v.countdown, v.warning = formatted, warning

	if !changed && !strings.HasSuffix(formatted, ":00") {
		v.logger.Trace().Str("countdown", formatted).Msg("tick")
		return
	}
	v.logger.Info().Str("countdown", formatted).Bool("warning", warning).Msg("messages clear in " + formatted)
}

func (v *LogView) ShowRoomList(list []rooms_client.Room, currentRoom string) {
	if len(list) == 0 {
		v.logger.Info().Msg("No rooms available")
		return
	}
	for _, room := range list {
		v.logger.Info().Str("room_id", room.RoomID).Msg(rooms.FormatRoom(room, currentRoom))
	}
}

func (v *LogView) HideRoomList() {}

// RoomTitle renders a room header, appending the online count when known
func RoomTitle(name string, userCount int) string {
	if userCount > 0 {
		return fmt.Sprintf("%s (%d online)", name, userCount)
	}
	return name
}
