package rooms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
)

type fakeDirectory struct {
	mu        sync.Mutex
	rooms     []rooms_client.Room
	listErr   error
	createErr error
	listCalls int
	created   []rooms_client.CreateRoomRequest
}

func (f *fakeDirectory) ListRooms(ctx context.Context) ([]rooms_client.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rooms, nil
}

func (f *fakeDirectory) CreateRoom(ctx context.Context, req rooms_client.CreateRoomRequest) (*rooms_client.CreateRoomResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &rooms_client.CreateRoomResponse{
		Success:       true,
		RoomID:        fmt.Sprintf("room%04d", len(f.created)),
		RoomName:      req.Name,
		ClearInterval: req.ClearInterval,
		RoomDuration:  req.RoomDuration,
	}, nil
}

func (f *fakeDirectory) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, len(f.created)
}

func TestParseCreateRoomRequest(t *testing.T) {
	tests := []struct {
		name      string
		clear     string
		duration  string
		want      rooms_client.CreateRoomRequest
		wantField string
	}{
		{name: " Book Club ", clear: "15", duration: "10", want: rooms_client.CreateRoomRequest{Name: "Book Club", ClearInterval: 15, RoomDuration: 10}},
		{name: "Lobby", want: rooms_client.CreateRoomRequest{Name: "Lobby", ClearInterval: 5}},
		{name: "Edge", clear: "1", duration: "0", want: rooms_client.CreateRoomRequest{Name: "Edge", ClearInterval: 1}},
		{name: "Edge", clear: "60", duration: "10", want: rooms_client.CreateRoomRequest{Name: "Edge", ClearInterval: 60, RoomDuration: 10}},
		{name: "   ", wantField: "name"},
		{name: "x", clear: "0", wantField: "clear_interval"},
		{name: "x", clear: "61", wantField: "clear_interval"},
		{name: "x", clear: "five", wantField: "clear_interval"},
		{name: "x", duration: "-1", wantField: "room_duration"},
		{name: "x", duration: "11", wantField: "room_duration"},
		{name: "x", duration: "2.5", wantField: "room_duration"},
	}

	for _, tt := range tests {
		got, err := ParseCreateRoomRequest(tt.name, tt.clear, tt.duration)
		if tt.wantField != "" {
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "%q/%q/%q", tt.name, tt.clear, tt.duration)
			require.Equal(t, tt.wantField, validationErr.Field)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestCreateRoomValidatesBeforeCallingDirectory(t *testing.T) {
	dir := &fakeDirectory{}
	app := NewApp(dir)

	_, err := app.CreateRoom(context.Background(), rooms_client.CreateRoomRequest{Name: "x", ClearInterval: 0})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	_, created := dir.calls()
	require.Zero(t, created)
}

func TestCreateRoomWrapsDirectoryFailure(t *testing.T) {
	cause := errors.New("connection refused")
	app := NewApp(&fakeDirectory{createErr: cause})

	_, err := app.CreateRoom(context.Background(), rooms_client.CreateRoomRequest{Name: "x", ClearInterval: 5})

	var failure *RequestFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, opCreateRoom, failure.Op)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "Failed to create room", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	serverErr := fmt.Errorf("failed to create room: %w", &rooms_client.ServerError{StatusCode: 400, Message: "Room name is required"})

	require.Equal(t, "Room name is required", UserMessage(&RequestFailure{Op: opCreateRoom, Err: serverErr}))
	require.Equal(t, "Please enter a room name", UserMessage(&ValidationError{Field: "name", Message: "Please enter a room name"}))
	require.Equal(t, "Failed to load rooms", UserMessage(&RequestFailure{Op: opListRooms, Err: errors.New("timeout")}))
	require.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestFormatRoom(t *testing.T) {
	room := rooms_client.Room{RoomID: "general", Name: "General Chat", IsDefault: true, UserCount: 3, MessageCount: 12, ClearInterval: 5}

	require.Equal(t, "* General Chat (Default)  [general]  3 online · 12 messages · Clears every 5min", FormatRoom(room, "general"))
	require.Equal(t, "  General Chat (Default)  [general]  3 online · 12 messages · Clears every 5min", FormatRoom(room, "other"))
}
