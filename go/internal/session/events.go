package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned when an envelope carries an event type we do not handle
var ErrUnknownEvent = errors.New("unknown event type")

// EventType is the wire name of a protocol event
type EventType string

const (
	// Server → client
	EventRoomJoined       EventType = "room_joined"
	EventNewMessage       EventType = "new_message"
	EventMessagesCleared  EventType = "messages_cleared"
	EventRoomExpired      EventType = "room_expired"
	EventRoomStatus       EventType = "room_status"
	EventUserCountUpdated EventType = "user_count_updated"
	EventTypingUpdate     EventType = "typing_update"
	EventError            EventType = "error"

	// Client → server
	EventJoinRoom      EventType = "join_room"
	EventSendMessage   EventType = "send_message"
	EventTypingStart   EventType = "typing_start"
	EventTypingStop    EventType = "typing_stop"
	EventGetRoomStatus EventType = "get_room_status"
)

// Envelope is the framing used on every transport
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed set of events consumed by Controller.Handle.
// Protocol events are decoded from envelopes; transport lifecycle events
// are produced by the transport itself.
type Inbound interface {
	inbound()
}

// Outbound is an event the session sends to the server
type Outbound interface {
	EventType() EventType
}

// HistoryMessage is a stored message replayed on join
type HistoryMessage struct {
	ID        int    `json:"id,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type RoomJoined struct {
	RoomID          string           `json:"room_id"`
	RoomName        string           `json:"room_name"`
	IsDefault       bool             `json:"is_default"`
	ClearInterval   int              `json:"clear_interval"`
	UserCount       *int             `json:"user_count,omitempty"`
	TypingCount     *int             `json:"typing_count,omitempty"`
	TimeUntilClear  int              `json:"time_until_clear"`
	TimeUntilExpiry *int             `json:"time_until_expiry,omitempty"`
	Messages        []HistoryMessage `json:"messages,omitempty"`
}

type NewMessage struct {
	ID        int    `json:"id,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type MessagesCleared struct {
	Message         string `json:"message"`
	TimeUntilClear  int    `json:"time_until_clear"`
	TimeUntilExpiry *int   `json:"time_until_expiry,omitempty"`
}

type RoomExpired struct {
	Message string `json:"message"`
}

// RoomStatus is a partial update; only non-nil fields are applied
type RoomStatus struct {
	TimeUntilClear  *int  `json:"time_until_clear,omitempty"`
	TimeUntilExpiry *int  `json:"time_until_expiry,omitempty"`
	IsActive        *bool `json:"is_active,omitempty"`
	UserCount       *int  `json:"user_count,omitempty"`
	TypingCount     *int  `json:"typing_count,omitempty"`
}

type UserCountUpdated struct {
	RoomID    string `json:"room_id"`
	UserCount int    `json:"user_count"`
}

type TypingUpdate struct {
	TypingCount int `json:"typing_count"`
}

// ServerError is a protocol-level error pushed by the server
type ServerError struct {
	Message string `json:"message"`
}

// TransportConnecting is emitted when the transport starts dialing
type TransportConnecting struct{}

// TransportConnected is emitted once the transport can carry events
type TransportConnected struct{}

// TransportDisconnected is emitted when an established connection is lost
type TransportDisconnected struct {
	Reason error
}

// TransportFailed reports a connection error that did not (yet) change connectivity
type TransportFailed struct {
	Err error
}

func (*RoomJoined) inbound()            {}
func (*NewMessage) inbound()            {}
func (*MessagesCleared) inbound()       {}
func (*RoomExpired) inbound()           {}
func (*RoomStatus) inbound()            {}
func (*UserCountUpdated) inbound()      {}
func (*TypingUpdate) inbound()          {}
func (*ServerError) inbound()           {}
func (*TransportConnecting) inbound()   {}
func (*TransportConnected) inbound()    {}
func (*TransportDisconnected) inbound() {}
func (*TransportFailed) inbound()       {}

type JoinRoom struct {
	RoomID string `json:"room_id"`
}

type SendMessage struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

type TypingStart struct {
	RoomID string `json:"room_id"`
}

type TypingStop struct {
	RoomID string `json:"room_id"`
}

type GetRoomStatus struct {
	RoomID string `json:"room_id"`
}

func (*JoinRoom) EventType() EventType      { return EventJoinRoom }
func (*SendMessage) EventType() EventType   { return EventSendMessage }
func (*TypingStart) EventType() EventType   { return EventTypingStart }
func (*TypingStop) EventType() EventType    { return EventTypingStop }
func (*GetRoomStatus) EventType() EventType { return EventGetRoomStatus }

// DecodeInbound parses a wire envelope into its inbound variant
func DecodeInbound(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	return ParseEventPayload(env)
}

// ParseEventPayload parses envelope data into the matching inbound struct
func ParseEventPayload(env Envelope) (Inbound, error) {
	switch env.Type {
	case EventRoomJoined:
		return decodePayload[RoomJoined](env)
	case EventNewMessage:
		return decodePayload[NewMessage](env)
	case EventMessagesCleared:
		return decodePayload[MessagesCleared](env)
	case EventRoomExpired:
		return decodePayload[RoomExpired](env)
	case EventRoomStatus:
		return decodePayload[RoomStatus](env)
	case EventUserCountUpdated:
		return decodePayload[UserCountUpdated](env)
	case EventTypingUpdate:
		return decodePayload[TypingUpdate](env)
	case EventError:
		return decodePayload[ServerError](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decodePayload[T any, P interface {
	*T
	Inbound
}](env Envelope) (Inbound, error) {
	var payload T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
		}
	}
	return P(&payload), nil
}

// EncodeOutbound frames an outbound event for the wire
func EncodeOutbound(ev Outbound) ([]byte, error) {
	return EncodeEnvelope(ev.EventType(), ev)
}

// EncodeEnvelope frames any payload under the given event type
func EncodeEnvelope(eventType EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}
