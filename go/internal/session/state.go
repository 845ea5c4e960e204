package session

// DefaultRoomID is the room every client falls back to
const DefaultRoomID = "general"

// Phase is the controller's position in the room lifecycle
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseJoiningRoom
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseJoiningRoom:
		return "joining_room"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// RoomSession is the identity and membership snapshot of the active room
type RoomSession struct {
	RoomID               string `json:"room_id"`
	RoomName             string `json:"room_name"`
	IsDefault            bool   `json:"is_default"`
	ClearIntervalMinutes int    `json:"clear_interval_minutes"`
	UserCount            int    `json:"user_count"`
	HasShownWelcome      bool   `json:"has_shown_welcome"`
	ExpirySeconds        *int   `json:"expiry_seconds,omitempty"`
}

// TypingState tracks local and remote typing presence for the active room
type TypingState struct {
	LocalIsTyping     bool
	RemoteTypingCount int

	idleDeadline *Timer
}

// CountdownState is the local projection of the server's time-until-clear
type CountdownState struct {
	SecondsRemaining int
	WarningActive    bool

	tickHandle *Timer
}

// roomState is the triple owned by the controller for one joined room.
// It is replaced wholesale on every join.
type roomState struct {
	Room      RoomSession
	Typing    TypingState
	Countdown CountdownState
}

// Snapshot is a read-only copy of the session for diagnostics
type Snapshot struct {
	Phase             string       `json:"phase"`
	Connected         bool         `json:"connected"`
	Room              *RoomSession `json:"room,omitempty"`
	LocalIsTyping     bool         `json:"local_is_typing"`
	RemoteTypingCount int          `json:"remote_typing_count"`
	SecondsRemaining  int          `json:"seconds_remaining"`
	WarningActive     bool         `json:"warning_active"`
	CountdownRunning  bool         `json:"countdown_running"`
	Polling           bool         `json:"polling"`
	RejoinPending     bool         `json:"rejoin_pending"`
}
