package rooms_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/livechat-docker/livechat/go/clients"
)

type Room struct {
	RoomID          string `json:"room_id"`
	Name            string `json:"name"`
	IsDefault       bool   `json:"is_default"`
	UserCount       int    `json:"user_count"`
	MessageCount    int    `json:"message_count"`
	ClearInterval   int    `json:"clear_interval"` // minutes
	TimeUntilExpiry *int   `json:"time_until_expiry,omitempty"`
}

type RoomsResponse struct {
	Rooms []Room `json:"rooms"`
}

type CreateRoomRequest struct {
	Name          string `json:"name"`
	ClearInterval int    `json:"clear_interval"` // minutes
	RoomDuration  int    `json:"room_duration"`  // minutes, 0 never expires
}

type CreateRoomResponse struct {
	Success       bool   `json:"success"`
	RoomID        string `json:"room_id"`
	RoomName      string `json:"room_name"`
	ClearInterval int    `json:"clear_interval"`
	RoomDuration  int    `json:"room_duration"`
	Error         string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
	TotalRooms  int    `json:"total_rooms"`
	TotalUsers  int    `json:"total_users"`
}

// ServerError carries the message from an {"error": ...} response body
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

func (c *RoomsClient) ListRooms(ctx context.Context) ([]Room, error) {
	body, err := c.Get(ctx, RoomsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", serverError(err))
	}

	var response RoomsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	if response.Rooms == nil {
		return []Room{}, nil
	}
	return response.Rooms, nil
}

func (c *RoomsClient) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	body, err := c.PostJSON(ctx, CreateRoomEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", serverError(err))
	}

	var response CreateRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	if !response.Success {
		msg := response.Error
		if msg == "" {
			msg = "Failed to create room"
		}
		return nil, fmt.Errorf("failed to create room: %w", &ServerError{StatusCode: 200, Message: msg})
	}

	return &response, nil
}

func (c *RoomsClient) Health(ctx context.Context) (*HealthResponse, error) {
	body, err := c.Get(ctx, HealthEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get health: %w", serverError(err))
	}

	var response HealthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	return &response, nil
}

// serverError lifts an {"error": ...} body out of a non-2xx response
func serverError(err error) error {
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(apiErr.Body, &payload) != nil || payload.Error == "" {
		return err
	}

	return &ServerError{StatusCode: apiErr.StatusCode, Message: payload.Error}
}
