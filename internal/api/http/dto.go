package http

import (
	"xo-arena/internal/config"
	"xo-arena/internal/game"
)

// CreateGameRequest represents the payload for POST /api/games.
type CreateGameRequest struct {
	Mode        string   `json:"mode" binding:"omitempty,oneof=local computer"`
	BoardSize   int      `json:"board_size" binding:"omitempty,min=3,max=6"`
	RunLength   int      `json:"run_length" binding:"omitempty,min=3,max=6"`
	Difficulty  string   `json:"difficulty" binding:"omitempty,oneof=easy medium impossible hard"`
	HumanSymbol string   `json:"human_symbol" binding:"omitempty,oneof=X O x o"`
	PlayerNames []string `json:"player_names" binding:"omitempty,max=2,dive,max=40"`
	MaxDepth    int      `json:"max_depth" binding:"omitempty,min=0,max=36"`
}

// GameMoveRequest represents a human move in a session.
type GameMoveRequest struct {
	Row          *int   `json:"row" binding:"required"`
	Col          *int   `json:"col" binding:"required"`
	PlayerSymbol string `json:"player_symbol" binding:"required"`
}

// MoveResponse is the engine's answer to POST /api/ai/move. Move is absent
// when the board has no empty cell.
type MoveResponse struct {
	Found  bool        `json:"found"`
	Move   *game.Move  `json:"move,omitempty"`
	Reason game.Reason `json:"reason"`
	Score  int         `json:"score"`
	Depth  int         `json:"depth"`
	Nodes  int         `json:"nodes"`
}

func newMoveResponse(c game.Choice) MoveResponse {
	resp := MoveResponse{
		Found:  c.Found,
		Reason: c.Reason,
		Score:  c.Score,
		Depth:  c.Depth,
		Nodes:  c.Nodes,
	}
	if c.Found {
		mv := c.Move
		resp.Move = &mv
	}
	return resp
}

// ConfigResponse exposes the tuning the engine runs with.
type ConfigResponse struct {
	Weights  config.Weights `json:"weights"`
	Depths   config.Depths  `json:"depths"`
	MaxNodes int            `json:"max_nodes"`
}
