package rooms

import (
	"errors"
	"fmt"

	"github.com/livechat-docker/livechat/go/clients/rooms_client"
)

const (
	DefaultClearInterval = 5 // minutes
	MinClearInterval     = 1
	MaxClearInterval     = 60
	MaxRoomDuration      = 10 // minutes
)

// ValidationError is a create request rejected before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RequestFailure is a failed call to the room directory
type RequestFailure struct {
	Op  string
	Err error
}

func (e *RequestFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// UserMessage renders err the way it is shown inline in the chat
func UserMessage(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var serverErr *rooms_client.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}

	var failure *RequestFailure
	if errors.As(err, &failure) {
		switch failure.Op {
		case opListRooms:
			return "Failed to load rooms"
		case opCreateRoom:
			return "Failed to create room"
		}
	}
	return err.Error()
}
