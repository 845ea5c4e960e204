package rooms_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:5000"

	// API Endpoints
	RoomsEndpoint      = "/rooms"
	CreateRoomEndpoint = "/create-room"
	HealthEndpoint     = "/health"

	// Headers
	ClientIDHeader = "X-Client-Id"
)
