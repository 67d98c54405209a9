package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"xo-arena/internal/shared"
	"xo-arena/internal/worker"
)

// client serialises writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(action string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(shared.Envelope{Action: action, Data: raw})
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]struct{}
	manager  SessionManager
}

func NewHub(manager SessionManager) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]struct{}),
		manager:  manager,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the game page may be served from another origin
	},
}

// HandleWS serves GET /ws?session_id=... and speaks the get_game_state,
// move and restart_game actions.
func (h *Hub) HandleWS(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session_id"})
		return
	}
	if _, err := h.manager.State(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws-upgrade-failed")
		return
	}
	cl := &client{conn: conn}
	h.add(sessionID, cl)
	log.Debug().Str("session", sessionID).Msg("ws-connected")

	defer func() {
		h.remove(sessionID, cl)
		_ = conn.Close()
		log.Debug().Str("session", sessionID).Msg("ws-disconnected")
	}()

	ctx := c.Request.Context()
	for {
		var msg shared.Envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sessionID).Msg("ws-read-failed")
			}
			return
		}
		h.dispatch(ctx, sessionID, cl, msg)
	}
}

func (h *Hub) dispatch(ctx context.Context, sessionID string, cl *client, msg shared.Envelope) {
	switch msg.Action {
	case shared.ActionGetGameState:
		st, err := h.manager.State(sessionID)
		if err != nil {
			h.reply(cl, shared.ActionError, shared.ErrorPayload{Error: err.Error()})
			return
		}
		h.reply(cl, shared.ActionGameState, st)

	case shared.ActionMove:
		var mv shared.MovePayload
		if err := json.Unmarshal(msg.Data, &mv); err != nil {
			h.reply(cl, shared.ActionError, shared.ErrorPayload{Error: "invalid move payload"})
			return
		}
		// Other sessions are not reachable from this connection.
		if mv.SessionID != "" && mv.SessionID != sessionID {
			h.reply(cl, shared.ActionError, shared.ErrorPayload{Error: "session_id does not match connection"})
			return
		}
		if _, err := h.manager.ApplyMove(ctx, sessionID, mv.Row, mv.Col, mv.PlayerSymbol); err != nil {
			h.reply(cl, shared.ActionError, errorPayload(err))
		}

	case shared.ActionRestartGame:
		if _, err := h.manager.Restart(ctx, sessionID); err != nil {
			h.reply(cl, shared.ActionError, errorPayload(err))
		}

	default:
		log.Debug().Str("action", msg.Action).Msg("ws-unknown-action")
		h.reply(cl, shared.ActionError, shared.ErrorPayload{Error: "unknown action " + msg.Action})
	}
}

func (h *Hub) reply(cl *client, action string, data interface{}) {
	if err := cl.send(action, data); err != nil {
		log.Warn().Err(err).Msg("ws-write-failed")
	}
}

func (h *Hub) add(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[*client]struct{})
	}
	h.sessions[sessionID][cl] = struct{}{}
}

func (h *Hub) remove(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions[sessionID], cl)
	if len(h.sessions[sessionID]) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Broadcast sends an action to every connection watching the session.
func (h *Hub) Broadcast(sessionID string, action string, data interface{}) {
	if h == nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.sessions[sessionID]))
	for cl := range h.sessions[sessionID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.send(action, data); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("ws-broadcast-failed")
			h.remove(sessionID, cl)
			_ = cl.conn.Close()
		}
	}
}

// Connections reports how many clients watch a session.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func errorPayload(err error) shared.ErrorPayload {
	return shared.ErrorPayload{Error: err.Error(), Fault: errors.Is(err, worker.ErrSearchFault)}
}
