package shared

import "encoding/json"

// Actions of the JSON protocol spoken by the web client.
const (
	ActionGetGameState = "get_game_state"
	ActionMove         = "move"
	ActionRestartGame  = "restart_game"

	ActionGameState    = "game_state"
	ActionStateUpdated = "state-updated"
	ActionError        = "error"
)

// Envelope wraps every WebSocket message in both directions.
type Envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// MovePayload is the data of a "move" action.
type MovePayload struct {
	SessionID    string `json:"session_id"`
	Row          int    `json:"row"`
	Col          int    `json:"col"`
	PlayerSymbol string `json:"player_symbol"`
}

// ErrorPayload is returned to clients for any rejected action or request.
type ErrorPayload struct {
	Error string `json:"error"`
	Fault bool   `json:"fault,omitempty"`
}
