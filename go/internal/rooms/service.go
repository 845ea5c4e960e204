package rooms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/session"
)

const (
	// DefaultRefreshInterval is how often an open room list is reloaded
	DefaultRefreshInterval = 30 * time.Second

	// DefaultRequestTimeout bounds every directory call
	DefaultRequestTimeout = 10 * time.Second
)

// Loop is the part of the session event loop the service runs on
type Loop interface {
	session.Scheduler
	Post(fn func()) bool
}

// Joiner switches the session to another room
type Joiner interface {
	JoinRoom(roomID string)
	CurrentRoom() string
}

// Presenter displays the room list
type Presenter interface {
	ShowRoomList(rooms []rooms_client.Room, currentRoom string)
	HideRoomList()
}

// Notifier shows inline system messages; session.View satisfies it
type Notifier interface {
	RenderSystemMessage(text string, kind session.SystemKind)
}

// Service runs directory requests off the loop and applies their results on it.
// Every exported method must be called on the loop.
type Service struct {
	ctx       context.Context
	app       *App
	loop      Loop
	joiner    Joiner
	presenter Presenter
	notifier  Notifier

	refreshInterval time.Duration
	requestTimeout  time.Duration

	listOpen bool
	refresh  *session.Timer
}

// NewService creates a room directory service. ctx bounds all background requests.
func NewService(ctx context.Context, app *App, loop Loop, joiner Joiner, presenter Presenter, notifier Notifier) *Service {
	return &Service{
		ctx:             ctx,
		app:             app,
		loop:            loop,
		joiner:          joiner,
		presenter:       presenter,
		notifier:        notifier,
		refreshInterval: DefaultRefreshInterval,
		requestTimeout:  DefaultRequestTimeout,
	}
}

// OpenRoomList loads the room list and keeps it fresh until CloseRoomList
func (s *Service) OpenRoomList() {
	s.listOpen = true
	s.LoadRooms()

	s.refresh.Stop()
	s.refresh = s.loop.Every(s.refreshInterval, s.LoadRooms)
}

// CloseRoomList hides the list and stops the auto-refresh
func (s *Service) CloseRoomList() {
	s.listOpen = false
	s.refresh.Stop()
	s.refresh = nil
	s.presenter.HideRoomList()
}

// ConnectionChanged pauses the list auto-refresh while the transport is down
// and resumes it, with an immediate reload, once it is back.
func (s *Service) ConnectionChanged(connected bool) {
	if !connected {
		s.refresh.Stop()
		s.refresh = nil
		return
	}
	if s.listOpen && !s.refresh.Active() {
		s.LoadRooms()
		s.refresh = s.loop.Every(s.refreshInterval, s.LoadRooms)
	}
}

// ListOpen reports whether the room list is currently shown
func (s *Service) ListOpen() bool {
	return s.listOpen
}

// LoadRooms fetches the room list in the background
func (s *Service) LoadRooms() {
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.requestTimeout)
		defer cancel()

		rooms, err := s.app.ListRooms(ctx)
		s.loop.Post(func() {
			if err != nil {
				log.Warn().Err(err).Msg("failed to load rooms")
				s.notifier.RenderSystemMessage(UserMessage(err), session.SystemError)
				return
			}
			if !s.listOpen {
				return
			}
			s.presenter.ShowRoomList(rooms, s.joiner.CurrentRoom())
		})
	}()
}

// SelectRoom joins roomID and closes the list
func (s *Service) SelectRoom(roomID string) {
	s.joiner.JoinRoom(roomID)
	if s.listOpen {
		s.CloseRoomList()
	}
}

// CreateRoom validates raw user input, creates the room in the background
// and joins it on success. It reports false if validation failed.
func (s *Service) CreateRoom(name, clearInterval, roomDuration string) bool {
	req, err := ParseCreateRoomRequest(name, clearInterval, roomDuration)
	if err != nil {
		s.notifier.RenderSystemMessage(UserMessage(err), session.SystemError)
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.requestTimeout)
		defer cancel()

		resp, err := s.app.CreateRoom(ctx, req)
		s.loop.Post(func() {
			if err != nil {
				log.Warn().Err(err).Str("room_name", req.Name).Msg("failed to create room")
				s.notifier.RenderSystemMessage(UserMessage(err), session.SystemError)
				return
			}
			s.notifier.RenderSystemMessage(fmt.Sprintf("Created room %q", resp.RoomName), session.SystemInfo)
			s.SelectRoom(resp.RoomID)
		})
	}()
	return true
}

// FormatRoom renders one room list entry
func FormatRoom(room rooms_client.Room, currentRoom string) string {
	var b strings.Builder
	if room.RoomID == currentRoom {
		b.WriteString("* ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(room.Name)
	if room.IsDefault {
		b.WriteString(" (Default)")
	}
	fmt.Fprintf(&b, "  [%s]  %d online · %d messages · Clears every %dmin",
		room.RoomID, room.UserCount, room.MessageCount, room.ClearInterval)
	return b.String()
}
