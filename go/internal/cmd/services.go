package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
	"github.com/livechat-docker/livechat/go/internal/rooms"
	"github.com/livechat-docker/livechat/go/internal/session"
	"github.com/livechat-docker/livechat/go/internal/transport"
)

// chatView is everything a front end must render
type chatView interface {
	session.View
	rooms.Presenter
}

// runnableTransport is a session transport with its own connection loop
type runnableTransport interface {
	session.Transport
	Run(ctx context.Context) error
}

type Services struct {
	ClientID   string
	Loop       *session.Loop
	Controller *session.Controller
	Transport  runnableTransport
	Rooms      *rooms.Service
	Directory  *rooms_client.RoomsClient
	View       chatView
}

func setupServices(ctx context.Context, config *Config, view chatView) *Services {
	// Wire up dependency injection chain
	// Loop → Transport → Controller → Room directory
	clientID := uuid.New().String()
	loop := session.NewLoop(clockwork.NewRealClock())

	var ctrl *session.Controller
	var roomsService *rooms.Service
	sink := func(ev session.Inbound) {
		loop.Post(func() {
			ctrl.Handle(ev)
			switch ev.(type) {
			case *session.TransportConnected:
				roomsService.ConnectionChanged(true)
			case *session.TransportDisconnected:
				roomsService.ConnectionChanged(false)
			}
		})
	}

	var tr runnableTransport
	switch config.Server.Transport {
	case transportNATS:
		natsConfig := transport.DefaultNATSConfig()
		natsConfig.URL = config.NATS.URL
		natsConfig.SubjectPrefix = config.NATS.SubjectPrefix
		natsConfig.ClientID = clientID
		tr = transport.NewNATS(natsConfig, sink)
	default:
		wsConfig := transport.DefaultWebSocketConfig()
		wsConfig.ServerURL = config.Server.URL
		tr = transport.NewWebSocket(wsConfig, sink)
	}

	ctrl = session.NewController(config.sessionConfig(), loop, tr, view)

	roomsClient := rooms_client.NewRoomsClient(config.Server.URL, clientID)
	roomsApp := rooms.NewApp(roomsClient)
	roomsService = rooms.NewService(ctx, roomsApp, loop, ctrl, view, view)

	log.Info().
		Str("client_id", clientID).
		Str("server", config.Server.URL).
		Str("transport", config.Server.Transport).
		Msg("services initialized")

	return &Services{
		ClientID:   clientID,
		Loop:       loop,
		Controller: ctrl,
		Transport:  tr,
		Rooms:      roomsService,
		Directory:  roomsClient,
		View:       view,
	}
}

// probeServer logs the chat server's health once at startup. Failures are not fatal.
func probeServer(ctx context.Context, client *rooms_client.RoomsClient) {
	ctx, cancel := context.WithTimeout(ctx, rooms.DefaultRequestTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		log.Warn().Err(err).Str("server", client.BaseURL()).Msg("chat server health check failed")
		return
	}
	log.Info().
		Str("status", health.Status).
		Int("active_rooms", health.ActiveRooms).
		Int("total_users", health.TotalUsers).
		Msg("chat server reachable")
}

// sessionActions hands UI requests to the session loop. The loop blocks on
// the program while rendering, so requests are dispatched, never posted.
type sessionActions struct {
	services *Services
}

func (a *sessionActions) post(fn func(s *Services)) {
	s := a.services
	if s == nil {
		return
	}
	s.Loop.Dispatch(func() { fn(s) })
}

func (a *sessionActions) InputChanged(text string) {
	a.post(func(s *Services) { s.Controller.InputChanged(text) })
}

func (a *sessionActions) SendMessage(text string) {
	a.post(func(s *Services) {
		if !s.Controller.SendMessage(text) {
			s.View.RenderSystemMessage("Not connected to a room, message not sent", session.SystemError)
		}
	})
}

func (a *sessionActions) SelectRoom(roomID string) {
	a.post(func(s *Services) { s.Rooms.SelectRoom(roomID) })
}

func (a *sessionActions) OpenRoomList() {
	a.post(func(s *Services) { s.Rooms.OpenRoomList() })
}

func (a *sessionActions) CloseRoomList() {
	a.post(func(s *Services) { s.Rooms.CloseRoomList() })
}

func (a *sessionActions) CreateRoom(name, clearInterval, roomDuration string) {
	a.post(func(s *Services) { s.Rooms.CreateRoom(name, clearInterval, roomDuration) })
}
