package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"xo-arena/internal/game"
	"xo-arena/internal/room"
	"xo-arena/internal/worker"
)

// MoveSolver runs a move request to completion off the handler goroutine.
type MoveSolver interface {
	Do(ctx context.Context, key string, req game.Request) (game.Choice, error)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidRequest),
		errors.Is(err, room.ErrInvalidOptions),
		errors.Is(err, room.ErrInvalidMove),
		errors.Is(err, room.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrNotYourTurn),
		errors.Is(err, room.ErrCellOccupied),
		errors.Is(err, room.ErrGameOver),
		errors.Is(err, room.ErrThinking),
		errors.Is(err, room.ErrNotComputer),
		errors.Is(err, worker.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, worker.ErrSearchFault),
		errors.Is(err, worker.ErrQueueFull),
		errors.Is(err, worker.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"fault": errors.Is(err, worker.ErrSearchFault),
	})
}

// @Summary Choose the computer's move
// @Description Stateless engine call: board snapshot in, chosen cell (or none) out
// @Tags Engine
// @Accept json
// @Produce json
// @Param request body game.Request true "Board snapshot and search parameters"
// @Success 200 {object} MoveResponse
// @Router /api/ai/move [post]
func MoveRequestHandler(solver MoveSolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req game.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		// Reject malformed snapshots before they take a queue slot.
		if _, err := req.Parse(); err != nil {
			abortWithError(c, err)
			return
		}

		choice, err := solver.Do(c.Request.Context(), "", req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, newMoveResponse(choice))
	}
}

// @Summary Create a game session
// @Description Start a local two-player or computer game
// @Tags Game
// @Accept json
// @Produce json
// @Param request body CreateGameRequest true "Game options"
// @Success 200 {object} room.State
// @Router /api/games [post]
func CreateGameHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateGameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := rm.Create(c.Request.Context(), room.CreateOptions{
			Mode:        room.Mode(req.Mode),
			BoardSize:   req.BoardSize,
			RunLength:   req.RunLength,
			Difficulty:  req.Difficulty,
			HumanSymbol: req.HumanSymbol,
			PlayerNames: req.PlayerNames,
			MaxDepth:    req.MaxDepth,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Get game state
// @Tags Game
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} room.State
// @Router /api/games/{id} [get]
func GetGameHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := rm.State(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Player makes a move
// @Description Submit row, col and the mover's symbol; in computer games the reply is included
// @Tags Game
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body GameMoveRequest true "Move data"
// @Success 200 {object} room.State
// @Router /api/games/{id}/move [post]
func GameMoveHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GameMoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "row, col and player_symbol are required"})
			return
		}
		st, err := rm.ApplyMove(c.Request.Context(), c.Param("id"), *req.Row, *req.Col, req.PlayerSymbol)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Let the computer move
// @Description Ask the engine to play when it is the computer's turn
// @Tags Game
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} room.State
// @Router /api/games/{id}/computer-move [post]
func ComputerMoveHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := rm.ComputerMove(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// @Summary Restart a game
// @Description Clear the board and keep the session's settings and counters
// @Tags Game
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} room.State
// @Router /api/games/{id}/restart [post]
func RestartGameHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := rm.Restart(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
