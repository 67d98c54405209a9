package room

import (
	"sync"
	"time"

	"xo-arena/internal/game"
)

type Mode string

const (
	ModeLocal    Mode = "local"    // two humans on one board
	ModeComputer Mode = "computer" // human against the engine
)

type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusDraw   Status = "draw"
)

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	IsBot  bool   `json:"isBot"`
}

// Stats are kept from the point of view of the human player (X in local
// mode) and survive restarts. They live only as long as the session.
type Stats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Session owns the authoritative board of one game. All fields are guarded
// by mu.
type Session struct {
	mu sync.Mutex

	ID          string
	Board       game.Board
	RunLength   int
	Mode        Mode
	Difficulty  game.Difficulty
	MaxDepth    int
	Players     []Player // Players[0] plays X
	Turn        game.Symbol
	Status      Status
	Winner      game.Symbol
	WinningLine []game.Move
	LastMove    *game.Move
	Stats       Stats
	CreatedAt   time.Time
	UpdatedAt   time.Time

	thinking bool
}

// State is the wire form of a session, shared by the REST and WebSocket APIs.
type State struct {
	SessionID           string            `json:"session_id"`
	Mode                Mode              `json:"mode"`
	Difficulty          string            `json:"difficulty,omitempty"`
	BoardSize           int               `json:"board_size"`
	RunLength           int               `json:"run_length"`
	Board               [][]string        `json:"board"`
	CurrentPlayerSymbol string            `json:"current_player_symbol"`
	Status              Status            `json:"status"`
	WinnerSymbol        string            `json:"winner_symbol,omitempty"`
	WinningLine         []game.Move       `json:"winning_line,omitempty"`
	LastMove            *game.Move        `json:"last_move,omitempty"`
	PlayerNames         map[string]string `json:"player_names"`
	Players             map[string]string `json:"players"`
	Stats               Stats             `json:"stats"`
	Thinking            bool              `json:"thinking"`
}

// snapshot copies the session into its wire form. Caller holds s.mu.
func (s *Session) snapshot() State {
	st := State{
		SessionID:           s.ID,
		Mode:                s.Mode,
		BoardSize:           s.Board.Size,
		RunLength:           s.RunLength,
		Board:               s.Board.Rows(),
		CurrentPlayerSymbol: s.Turn.String(),
		Status:              s.Status,
		WinnerSymbol:        s.Winner.String(),
		WinningLine:         append([]game.Move(nil), s.WinningLine...),
		Stats:               s.Stats,
		Thinking:            s.thinking,
		PlayerNames:         make(map[string]string, len(s.Players)),
		Players:             make(map[string]string, len(s.Players)),
	}
	if s.Mode == ModeComputer {
		st.Difficulty = s.Difficulty.String()
	}
	if s.LastMove != nil {
		mv := *s.LastMove
		st.LastMove = &mv
	}
	for _, p := range s.Players {
		st.PlayerNames[p.Symbol] = p.Name
		st.Players[p.Symbol] = p.ID
	}
	return st
}

func (s *Session) player(sym game.Symbol) *Player {
	for i := range s.Players {
		if s.Players[i].Symbol == sym.String() {
			return &s.Players[i]
		}
	}
	return nil
}

// humanSymbol is the symbol whose results the stats count.
func (s *Session) humanSymbol() game.Symbol {
	if s.Mode == ModeComputer {
		for _, p := range s.Players {
			if !p.IsBot {
				sym, _ := game.ParseSymbol(p.Symbol)
				return sym
			}
		}
	}
	return game.X
}

func (s *Session) botToMove() bool {
	if s.Status != StatusActive || s.Mode != ModeComputer {
		return false
	}
	p := s.player(s.Turn)
	return p != nil && p.IsBot
}

// place puts sym on the board and settles the outcome. Caller holds s.mu and
// has validated the move.
func (s *Session) place(mv game.Move, sym game.Symbol) {
	s.Board.Cells[mv.Row][mv.Col] = sym
	s.LastMove = &game.Move{Row: mv.Row, Col: mv.Col}
	s.UpdatedAt = time.Now()

	if line := game.FindWinningLine(s.Board, sym, s.RunLength); line != nil {
		s.Status = StatusWon
		s.Winner = sym
		s.WinningLine = line
		if sym == s.humanSymbol() {
			s.Stats.Wins++
		} else {
			s.Stats.Losses++
		}
		return
	}
	if s.Board.IsFull() {
		s.Status = StatusDraw
		s.Stats.Draws++
		return
	}
	s.Turn = sym.Opponent()
}

// reset starts a fresh game with the same settings. X moves first.
func (s *Session) reset() {
	s.Board = game.NewBoard(s.Board.Size)
	s.Turn = game.X
	s.Status = StatusActive
	s.Winner = game.Empty
	s.WinningLine = nil
	s.LastMove = nil
	s.UpdatedAt = time.Now()
}
