package room

// Broadcaster pushes session updates to connected clients.
type Broadcaster interface {
	Broadcast(sessionID string, action string, data interface{})
}
