package room_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xo-arena/internal/config"
	"xo-arena/internal/game"
	"xo-arena/internal/room"
	"xo-arena/internal/store"
	"xo-arena/internal/worker"
)

type recorder struct {
	mu       sync.Mutex
	states   []room.State
	thinking chan struct{}
}

func newRecorder() *recorder {
	return &recorder{thinking: make(chan struct{}, 16)}
}

func (r *recorder) Broadcast(sessionID, action string, data interface{}) {
	st, ok := data.(room.State)
	if !ok || action != "state-updated" {
		return
	}
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
	if st.Thinking {
		r.thinking <- struct{}{}
	}
}

func (r *recorder) all() []room.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]room.State(nil), r.states...)
}

func engineSolve() worker.SolveFunc {
	opts := game.OptionsFrom(config.Default())
	return func(req game.Request) (game.Choice, error) {
		return game.Solve(req, opts)
	}
}

func newManager(t *testing.T, solve worker.SolveFunc) (*room.Manager, *recorder) {
	t.Helper()
	cfg := config.Default()
	pool := worker.New(config.Worker{Workers: 2, QueueSize: 8}, solve)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = pool.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	rm := room.NewManager(store.NewMemoryStore(), pool, cfg)
	rec := newRecorder()
	rm.SetHub(rec)
	return rm, rec
}

func marks(st room.State) int {
	n := 0
	for _, row := range st.Board {
		for _, v := range row {
			if v != "" {
				n++
			}
		}
	}
	return n
}

func play(t *testing.T, rm *room.Manager, id string, moves ...[3]interface{}) room.State {
	t.Helper()
	var st room.State
	var err error
	for _, m := range moves {
		st, err = rm.ApplyMove(context.Background(), id, m[0].(int), m[1].(int), m[2].(string))
		require.NoError(t, err)
	}
	return st
}

func TestCreateDefaults(t *testing.T) {
	rm, _ := newManager(t, engineSolve())

	st, err := rm.Create(context.Background(), room.CreateOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, room.ModeComputer, st.Mode)
	assert.Equal(t, 3, st.BoardSize)
	assert.Equal(t, 3, st.RunLength)
	assert.Equal(t, "medium", st.Difficulty)
	assert.Equal(t, "X", st.CurrentPlayerSymbol)
	assert.Equal(t, room.StatusActive, st.Status)
	assert.Equal(t, "You", st.PlayerNames["X"])
	assert.Equal(t, "Computer", st.PlayerNames["O"])

	big, err := rm.Create(context.Background(), room.CreateOptions{Mode: room.ModeLocal, BoardSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, big.RunLength)
	assert.Len(t, big.Board, 5)
}

func TestCreateRejectsBadOptions(t *testing.T) {
	rm, _ := newManager(t, engineSolve())
	for name, opts := range map[string]room.CreateOptions{
		"mode":       {Mode: "online"},
		"size":       {BoardSize: 7},
		"run length": {BoardSize: 4, RunLength: 5},
		"difficulty": {Difficulty: "nightmare"},
		"symbol":     {HumanSymbol: "Z"},
		"depth":      {MaxDepth: -1},
	} {
		_, err := rm.Create(context.Background(), opts)
		assert.ErrorIs(t, err, room.ErrInvalidOptions, name)
	}
}

func TestApplyMoveValidation(t *testing.T) {
	rm, _ := newManager(t, engineSolve())
	st, err := rm.Create(context.Background(), room.CreateOptions{Mode: room.ModeLocal})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = rm.ApplyMove(ctx, st.SessionID, 0, 0, "O")
	assert.ErrorIs(t, err, room.ErrNotYourTurn)

	_, err = rm.ApplyMove(ctx, st.SessionID, 3, 0, "X")
	assert.ErrorIs(t, err, room.ErrOutOfBounds)

	_, err = rm.ApplyMove(ctx, st.SessionID, 0, 0, "?")
	assert.ErrorIs(t, err, room.ErrInvalidMove)

	_, err = rm.ApplyMove(ctx, "missing", 0, 0, "X")
	assert.ErrorIs(t, err, room.ErrNotFound)

	_, err = rm.ApplyMove(ctx, st.SessionID, 0, 0, "x")
	require.NoError(t, err)
	_, err = rm.ApplyMove(ctx, st.SessionID, 0, 0, "O")
	assert.ErrorIs(t, err, room.ErrCellOccupied)

	_, err = rm.ComputerMove(ctx, st.SessionID)
	assert.ErrorIs(t, err, room.ErrNotComputer)
}

func TestLocalWinStatsAndRestart(t *testing.T) {
	rm, rec := newManager(t, engineSolve())
	st, err := rm.Create(context.Background(), room.CreateOptions{Mode: room.ModeLocal, PlayerNames: []string{"Ana", "Budi"}})
	require.NoError(t, err)
	id := st.SessionID
	assert.Equal(t, "Ana", st.PlayerNames["X"])

	st = play(t, rm, id,
		[3]interface{}{0, 0, "X"},
		[3]interface{}{1, 0, "O"},
		[3]interface{}{0, 1, "X"},
		[3]interface{}{1, 1, "O"},
		[3]interface{}{0, 2, "X"},
	)
	assert.Equal(t, room.StatusWon, st.Status)
	assert.Equal(t, "X", st.WinnerSymbol)
	assert.Equal(t, []game.Move{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}, st.WinningLine)
	assert.Equal(t, room.Stats{Wins: 1}, st.Stats)

	_, err = rm.ApplyMove(context.Background(), id, 2, 2, "O")
	assert.ErrorIs(t, err, room.ErrGameOver)

	st, err = rm.Restart(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, room.StatusActive, st.Status)
	assert.Equal(t, 0, marks(st))
	assert.Empty(t, st.WinningLine)
	assert.Equal(t, "X", st.CurrentPlayerSymbol)
	assert.Equal(t, room.Stats{Wins: 1}, st.Stats)

	st = play(t, rm, id,
		[3]interface{}{0, 0, "X"},
		[3]interface{}{0, 1, "O"},
		[3]interface{}{0, 2, "X"},
		[3]interface{}{1, 1, "O"},
		[3]interface{}{1, 0, "X"},
		[3]interface{}{1, 2, "O"},
		[3]interface{}{2, 1, "X"},
		[3]interface{}{2, 0, "O"},
		[3]interface{}{2, 2, "X"},
	)
	assert.Equal(t, room.StatusDraw, st.Status)
	assert.Equal(t, room.Stats{Wins: 1, Draws: 1}, st.Stats)

	// Every move and the restart reached the hub.
	assert.Len(t, rec.all(), 15)
}

func TestComputerReplies(t *testing.T) {
	rm, rec := newManager(t, engineSolve())
	st, err := rm.Create(context.Background(), room.CreateOptions{Difficulty: "impossible"})
	require.NoError(t, err)

	st, err = rm.ApplyMove(context.Background(), st.SessionID, 1, 1, "X")
	require.NoError(t, err)
	assert.Equal(t, 2, marks(st))
	assert.Equal(t, "X", st.CurrentPlayerSymbol)
	require.NotNil(t, st.LastMove)
	assert.NotEqual(t, game.Move{Row: 1, Col: 1}, *st.LastMove)
	assert.Equal(t, "O", st.Board[st.LastMove.Row][st.LastMove.Col])
	assert.False(t, st.Thinking)

	var sawThinking bool
	for _, s := range rec.all() {
		sawThinking = sawThinking || s.Thinking
	}
	assert.True(t, sawThinking)
}

func TestComputerOpensAsX(t *testing.T) {
	rm, _ := newManager(t, engineSolve())
	st, err := rm.Create(context.Background(), room.CreateOptions{HumanSymbol: "O", Difficulty: "easy"})
	require.NoError(t, err)
	assert.Equal(t, 1, marks(st))
	assert.Equal(t, "O", st.CurrentPlayerSymbol)

	st, err = rm.Restart(context.Background(), st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, marks(st))
}

func TestComputerFallsBack(t *testing.T) {
	var mu sync.Mutex
	var tiers []string
	solve := engineSolve()
	rm, _ := newManager(t, func(req game.Request) (game.Choice, error) {
		mu.Lock()
		tiers = append(tiers, req.Difficulty)
		mu.Unlock()
		if req.Difficulty != "easy" {
			return game.Choice{}, game.ErrSearchBudget
		}
		return solve(req)
	})

	st, err := rm.Create(context.Background(), room.CreateOptions{Difficulty: "impossible"})
	require.NoError(t, err)
	st, err = rm.ApplyMove(context.Background(), st.SessionID, 0, 0, "X")
	require.NoError(t, err)
	assert.Equal(t, 2, marks(st))
	assert.Equal(t, []string{"impossible", "medium", "easy"}, tiers)

	// The session keeps its configured tier.
	assert.Equal(t, "impossible", st.Difficulty)
}

func TestComputerFaultLeavesBoard(t *testing.T) {
	rm, _ := newManager(t, func(game.Request) (game.Choice, error) {
		return game.Choice{}, errors.New("engine unavailable")
	})

	st, err := rm.Create(context.Background(), room.CreateOptions{Difficulty: "easy"})
	require.NoError(t, err)
	st, err = rm.ApplyMove(context.Background(), st.SessionID, 0, 0, "X")
	require.ErrorIs(t, err, worker.ErrSearchFault)
	assert.Equal(t, 1, marks(st))
	assert.Equal(t, "O", st.CurrentPlayerSymbol)
	assert.False(t, st.Thinking)

	// The computer can be asked again.
	_, err = rm.ComputerMove(context.Background(), st.SessionID)
	require.ErrorIs(t, err, worker.ErrSearchFault)
}

func TestComputerRejectsUnusableCell(t *testing.T) {
	rm, _ := newManager(t, func(game.Request) (game.Choice, error) {
		return game.Choice{Move: game.Move{Row: 0, Col: 0}, Found: true, Reason: game.ReasonSearch}, nil
	})

	st, err := rm.Create(context.Background(), room.CreateOptions{Difficulty: "easy"})
	require.NoError(t, err)
	st, err = rm.ApplyMove(context.Background(), st.SessionID, 0, 0, "X")
	require.ErrorIs(t, err, worker.ErrSearchFault)
	assert.Equal(t, "X", st.Board[0][0])
	assert.Equal(t, 1, marks(st))
}

func TestMovesRejectedWhileThinking(t *testing.T) {
	release := make(chan struct{})
	solve := engineSolve()
	rm, rec := newManager(t, func(req game.Request) (game.Choice, error) {
		<-release
		return solve(req)
	})

	st, err := rm.Create(context.Background(), room.CreateOptions{Difficulty: "medium"})
	require.NoError(t, err)
	id := st.SessionID

	errc := make(chan error, 1)
	go func() {
		_, err := rm.ApplyMove(context.Background(), id, 1, 1, "X")
		errc <- err
	}()

	select {
	case <-rec.thinking:
	case <-time.After(2 * time.Second):
		t.Fatal("computer never started thinking")
	}

	_, err = rm.ApplyMove(context.Background(), id, 0, 0, "X")
	assert.ErrorIs(t, err, room.ErrThinking)
	_, err = rm.Restart(context.Background(), id)
	assert.ErrorIs(t, err, room.ErrThinking)
	_, err = rm.ComputerMove(context.Background(), id)
	assert.ErrorIs(t, err, room.ErrThinking)

	close(release)
	require.NoError(t, <-errc)

	st, err = rm.State(id)
	require.NoError(t, err)
	assert.Equal(t, 2, marks(st))
	assert.False(t, st.Thinking)
}
