package rooms

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
)

const (
	opListRooms  = "list rooms"
	opCreateRoom = "create room"
)

// Directory defines what the app layer needs from the room directory API
type Directory interface {
	ListRooms(ctx context.Context) ([]rooms_client.Room, error)
	CreateRoom(ctx context.Context, req rooms_client.CreateRoomRequest) (*rooms_client.CreateRoomResponse, error)
}

// App handles room directory business logic
type App struct {
	directory Directory
}

// NewApp creates a new rooms App
func NewApp(directory Directory) *App {
	return &App{directory: directory}
}

// ListRooms returns every active room
func (a *App) ListRooms(ctx context.Context) ([]rooms_client.Room, error) {
	rooms, err := a.directory.ListRooms(ctx)
	if err != nil {
		return nil, &RequestFailure{Op: opListRooms, Err: err}
	}
	return rooms, nil
}

// CreateRoom validates req and creates the room
func (a *App) CreateRoom(ctx context.Context, req rooms_client.CreateRoomRequest) (*rooms_client.CreateRoomResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateCreateRoomRequest(req); err != nil {
		return nil, err
	}

	resp, err := a.directory.CreateRoom(ctx, req)
	if err != nil {
		return nil, &RequestFailure{Op: opCreateRoom, Err: err}
	}

	log.Info().
		Str("room_id", resp.RoomID).
		Str("room_name", resp.RoomName).
		Int("clear_interval", resp.ClearInterval).
		Int("room_duration", resp.RoomDuration).
		Msg("room created")
	return resp, nil
}

// ParseCreateRoomRequest builds a create request from raw user input.
// Empty numeric fields fall back to a 5 minute clear interval and no expiry.
func ParseCreateRoomRequest(name, clearInterval, roomDuration string) (rooms_client.CreateRoomRequest, error) {
	req := rooms_client.CreateRoomRequest{
		Name:          strings.TrimSpace(name),
		ClearInterval: DefaultClearInterval,
	}

	if s := strings.TrimSpace(clearInterval); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, &ValidationError{Field: "clear_interval", Message: "Clear interval must be a whole number of minutes"}
		}
		req.ClearInterval = v
	}

	if s := strings.TrimSpace(roomDuration); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, &ValidationError{Field: "room_duration", Message: "Room duration must be a whole number of minutes"}
		}
		req.RoomDuration = v
	}

	return req, validateCreateRoomRequest(req)
}

func validateCreateRoomRequest(req rooms_client.CreateRoomRequest) error {
	if req.Name == "" {
		return &ValidationError{Field: "name", Message: "Please enter a room name"}
	}
	if req.ClearInterval < MinClearInterval || req.ClearInterval > MaxClearInterval {
		return &ValidationError{Field: "clear_interval", Message: "Clear interval must be between 1 and 60 minutes"}
	}
	if req.RoomDuration < 0 || req.RoomDuration > MaxRoomDuration {
		return &ValidationError{Field: "room_duration", Message: "Room duration must be between 0 and 10 minutes"}
	}
	return nil
}
