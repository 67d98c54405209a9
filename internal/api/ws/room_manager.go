package ws

import (
	"context"

	"xo-arena/internal/room"
)

// SessionManager is the part of room.Manager the hub drives.
type SessionManager interface {
	State(id string) (room.State, error)
	ApplyMove(ctx context.Context, id string, row, col int, symbol string) (room.State, error)
	Restart(ctx context.Context, id string) (room.State, error)
}
