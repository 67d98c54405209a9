package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"xo-arena/internal/config"
	"xo-arena/internal/game"
	"xo-arena/internal/metrics"
	"xo-arena/internal/shared"
	"xo-arena/internal/worker"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidOptions = errors.New("invalid game options")
	ErrInvalidMove    = errors.New("invalid move")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrOutOfBounds    = errors.New("cell out of bounds")
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrGameOver       = errors.New("game already finished")
	ErrThinking       = errors.New("computer is still thinking")
	ErrNotComputer    = errors.New("session has no computer player")
)

type Store interface {
	GetSession(id string) (*Session, bool)
	SaveSession(s *Session)
}

// Solver runs move searches off the caller's goroutine; *worker.Pool
// implements it.
type Solver interface {
	Submit(ctx context.Context, key string, req game.Request) (*worker.Future, error)
}

type Manager struct {
	store  Store
	solver Solver
	cfg    config.Config
	hub    Broadcaster
}

func NewManager(s Store, solver Solver, cfg config.Config) *Manager {
	return &Manager{store: s, solver: solver, cfg: cfg}
}

func (m *Manager) SetHub(hub Broadcaster) {
	m.hub = hub
}

type CreateOptions struct {
	Mode        Mode     `json:"mode"`
	BoardSize   int      `json:"board_size"`
	RunLength   int      `json:"run_length"`
	Difficulty  string   `json:"difficulty"`
	HumanSymbol string   `json:"human_symbol"`
	PlayerNames []string `json:"player_names"`
	MaxDepth    int      `json:"max_depth"`
}

// Create starts a new session. When the computer plays X it moves before
// Create returns.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (State, error) {
	s, err := m.newSession(opts)
	if err != nil {
		return State{}, err
	}
	m.store.SaveSession(s)

	s.mu.Lock()
	st := s.snapshot()
	botFirst := s.botToMove()
	s.mu.Unlock()

	ev := log.Info().Str("session", s.ID).Str("mode", string(s.Mode)).Int("board_size", s.Board.Size).Int("run_length", s.RunLength)
	if s.Mode == ModeComputer {
		ev = ev.Str("difficulty", s.Difficulty.String()).Int("search_depth", game.SearchDepth(s.Difficulty, s.Board.Size, s.MaxDepth, m.cfg.Depths))
	}
	ev.Msg("session-created")
	if botFirst {
		return m.computerMove(ctx, s)
	}
	return st, nil
}

func (m *Manager) newSession(opts CreateOptions) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = ModeComputer
	}
	if opts.Mode != ModeLocal && opts.Mode != ModeComputer {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, opts.Mode)
	}
	if opts.BoardSize == 0 {
		opts.BoardSize = 3
	}
	if opts.BoardSize < game.MinBoardSize || opts.BoardSize > game.MaxBoardSize {
		return nil, fmt.Errorf("%w: board size %d", ErrInvalidOptions, opts.BoardSize)
	}
	if opts.RunLength == 0 {
		opts.RunLength = game.RunLengthFor(opts.BoardSize)
	}
	if opts.RunLength < 3 || opts.RunLength > opts.BoardSize {
		return nil, fmt.Errorf("%w: run length %d on a %dx%d board", ErrInvalidOptions, opts.RunLength, opts.BoardSize, opts.BoardSize)
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: negative max depth", ErrInvalidOptions)
	}

	difficulty := game.Medium
	if opts.Difficulty != "" {
		d, err := game.ParseDifficulty(opts.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		difficulty = d
	}

	human := game.X
	if opts.HumanSymbol != "" {
		sym, err := game.ParseSymbol(opts.HumanSymbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		human = sym
	}

	name := func(i int, def string) string {
		if i < len(opts.PlayerNames) && strings.TrimSpace(opts.PlayerNames[i]) != "" {
			return strings.TrimSpace(opts.PlayerNames[i])
		}
		return def
	}

	var players []Player
	if opts.Mode == ModeLocal {
		players = []Player{
			{ID: uuid.NewString(), Name: name(0, "Player 1"), Symbol: game.X.String()},
			{ID: uuid.NewString(), Name: name(1, "Player 2"), Symbol: game.O.String()},
		}
	} else {
		me := Player{ID: uuid.NewString(), Name: name(0, "You"), Symbol: human.String()}
		bot := Player{ID: "bot-" + uuid.NewString(), Name: "Computer", Symbol: human.Opponent().String(), IsBot: true}
		players = []Player{me, bot}
		if human == game.O {
			players = []Player{bot, me}
		}
	}

	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		Board:      game.NewBoard(opts.BoardSize),
		RunLength:  opts.RunLength,
		Mode:       opts.Mode,
		Difficulty: difficulty,
		MaxDepth:   opts.MaxDepth,
		Players:    players,
		Turn:       game.X,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// State answers the get_game_state action.
func (m *Manager) State(id string) (State, error) {
	s, ok := m.store.GetSession(id)
	if !ok {
		return State{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// ApplyMove validates and applies a human move. In computer mode the
// computer's reply is applied before ApplyMove returns.
func (m *Manager) ApplyMove(ctx context.Context, id string, row, col int, symbol string) (State, error) {
	s, ok := m.store.GetSession(id)
	if !ok {
		return State{}, ErrNotFound
	}
	sym, err := game.ParseSymbol(symbol)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	mv := game.Move{Row: row, Col: col}

	s.mu.Lock()
	if err := s.checkHumanMove(mv, sym); err != nil {
		st := s.snapshot()
		s.mu.Unlock()
		return st, err
	}
	s.place(mv, sym)
	st := s.snapshot()
	botTurn := s.botToMove()
	s.mu.Unlock()

	m.store.SaveSession(s)
	m.settled(s, st)

	if botTurn {
		return m.computerMove(ctx, s)
	}
	return st, nil
}

// checkHumanMove enforces turn order and cell emptiness. Caller holds s.mu.
func (s *Session) checkHumanMove(mv game.Move, sym game.Symbol) error {
	if s.Status != StatusActive {
		return ErrGameOver
	}
	if s.thinking {
		return ErrThinking
	}
	if sym != s.Turn {
		return ErrNotYourTurn
	}
	if p := s.player(sym); p == nil || p.IsBot {
		return ErrNotYourTurn
	}
	if !s.Board.InBounds(mv) {
		return ErrOutOfBounds
	}
	if s.Board.At(mv) != game.Empty {
		return ErrCellOccupied
	}
	return nil
}

// ComputerMove asks the engine to play for the computer when it is its turn.
func (m *Manager) ComputerMove(ctx context.Context, id string) (State, error) {
	s, ok := m.store.GetSession(id)
	if !ok {
		return State{}, ErrNotFound
	}
	return m.computerMove(ctx, s)
}

func (m *Manager) computerMove(ctx context.Context, s *Session) (State, error) {
	s.mu.Lock()
	switch {
	case s.Mode != ModeComputer:
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrNotComputer
	case s.Status != StatusActive:
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrGameOver
	case s.thinking:
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrThinking
	case !s.botToMove():
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrNotYourTurn
	}
	s.thinking = true
	bot := s.Turn
	req := game.NewRequest(s.Board, bot, s.Difficulty, s.RunLength, s.MaxDepth)
	thinking := s.snapshot()
	s.mu.Unlock()

	m.broadcast(s.ID, thinking)

	choice, err := m.solveWithFallback(ctx, s.ID, req)

	s.mu.Lock()
	s.thinking = false
	if err == nil && choice.Found && (!s.Board.InBounds(choice.Move) || s.Board.At(choice.Move) != game.Empty) {
		err = fmt.Errorf("%w: engine returned unusable cell (%d,%d)", worker.ErrSearchFault, choice.Move.Row, choice.Move.Col)
	}
	if err != nil || !choice.Found {
		st := s.snapshot()
		s.mu.Unlock()
		m.broadcast(s.ID, st)
		if err != nil {
			log.Error().Err(err).Str("session", s.ID).Msg("computer-move-failed")
		}
		return st, err
	}
	s.place(choice.Move, bot)
	st := s.snapshot()
	s.mu.Unlock()

	log.Debug().Str("session", s.ID).Int("row", choice.Move.Row).Int("col", choice.Move.Col).Str("reason", string(choice.Reason)).Msg("computer-moved")
	m.store.SaveSession(s)
	m.settled(s, st)
	return st, nil
}

// solveWithFallback retries a faulted search one tier lower until Easy. The
// wait ignores ctx cancellation: a dispatched search always completes and
// its move is applied.
func (m *Manager) solveWithFallback(ctx context.Context, key string, req game.Request) (game.Choice, error) {
	wait := context.WithoutCancel(ctx)
	d, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		return game.Choice{}, err
	}

	for {
		fut, err := m.solver.Submit(wait, key, req)
		if err != nil {
			return game.Choice{}, err
		}
		choice, err := fut.Await(wait)
		if err == nil {
			return choice, nil
		}
		if !errors.Is(err, worker.ErrSearchFault) {
			return game.Choice{}, err
		}

		lower, ok := d.Lower()
		if !ok {
			return game.Choice{}, err
		}
		log.Warn().Err(err).Str("session", key).Str("from", d.String()).Str("to", lower.String()).Msg("search-fallback")
		metrics.ObserveFallback(d.String(), lower.String())
		d = lower
		req.Difficulty = lower.String()
	}
}

// Restart clears the board and keeps settings and stats. If the computer
// plays X it opens the new game.
func (m *Manager) Restart(ctx context.Context, id string) (State, error) {
	s, ok := m.store.GetSession(id)
	if !ok {
		return State{}, ErrNotFound
	}

	s.mu.Lock()
	if s.thinking {
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrThinking
	}
	s.reset()
	st := s.snapshot()
	botFirst := s.botToMove()
	s.mu.Unlock()

	m.store.SaveSession(s)
	m.broadcast(s.ID, st)

	if botFirst {
		return m.computerMove(ctx, s)
	}
	return st, nil
}

// settled broadcasts a new state and counts finished games.
func (m *Manager) settled(s *Session, st State) {
	switch st.Status {
	case StatusWon:
		metrics.ObserveGameFinished(string(st.Mode), strings.ToLower(st.WinnerSymbol))
		log.Info().Str("session", s.ID).Str("winner", st.WinnerSymbol).Msg("game-won")
	case StatusDraw:
		metrics.ObserveGameFinished(string(st.Mode), "draw")
		log.Info().Str("session", s.ID).Msg("game-drawn")
	}
	m.broadcast(s.ID, st)
}

func (m *Manager) broadcast(id string, st State) {
	if m.hub == nil {
		return
	}
	m.hub.Broadcast(id, shared.ActionStateUpdated, st)
}
