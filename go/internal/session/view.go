package session

// Origin identifies who authored a rendered message
type Origin string

const (
	OriginSelf   Origin = "self"
	OriginRemote Origin = "remote"
)

// Message is a render record produced by the session for the view
type Message struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Origin    Origin `json:"origin"`
}

// SystemKind classifies system messages so views can style them
type SystemKind string

const (
	SystemWelcome           SystemKind = "welcome-message"
	SystemClearNotification SystemKind = "clear-notification"
	SystemExpiryWarning     SystemKind = "expiry-warning"
	SystemError             SystemKind = "error"
	SystemInfo              SystemKind = "info"
)

// ConnectionKind is the coarse connection status shown to the user
type ConnectionKind string

const (
	ConnectionConnecting   ConnectionKind = "connecting"
	ConnectionConnected    ConnectionKind = "connected"
	ConnectionDisconnected ConnectionKind = "disconnected"
	ConnectionError        ConnectionKind = "error"
)

// View is everything the session needs from the presentation layer.
// All methods are called from the event loop goroutine.
type View interface {
	RenderMessage(msg Message)
	RenderSystemMessage(text string, kind SystemKind)
	ClearAll()
	SetConnectionStatus(text string, kind ConnectionKind)
	SetRoomTitle(name string, userCount int)
	SetTypingDisplay(text string, visible bool)
	SetCountdownDisplay(formatted string, warning bool)
}

// Transport is the outbound half of the protocol connection.
// Emit must not block the event loop.
type Transport interface {
	Emit(ev Outbound) error
	Connected() bool
}
