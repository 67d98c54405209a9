package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xo-arena/internal/config"
	"xo-arena/internal/game"
)

func startPool(t *testing.T, cfg config.Worker, solve SolveFunc) (*Pool, context.CancelFunc, <-chan error) {
	t.Helper()
	p := New(cfg, solve)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p, cancel, done
}

func request() game.Request {
	return game.NewRequest(game.NewBoard(3), game.X, game.Medium, 0, 0)
}

func TestPoolSolves(t *testing.T) {
	opts := game.OptionsFrom(config.Default())
	p, _, _ := startPool(t, config.Worker{Workers: 2, QueueSize: 4}, func(req game.Request) (game.Choice, error) {
		return game.Solve(req, opts)
	})

	c, err := p.Do(context.Background(), "g1", request())
	require.NoError(t, err)
	assert.True(t, c.Found)
}

func TestPoolPanicIsSearchFault(t *testing.T) {
	p, _, _ := startPool(t, config.Worker{Workers: 1}, func(game.Request) (game.Choice, error) {
		panic("boom")
	})

	_, err := p.Do(context.Background(), "g1", request())
	require.ErrorIs(t, err, ErrSearchFault)

	// The key is released after a fault.
	_, err = p.Do(context.Background(), "g1", request())
	require.ErrorIs(t, err, ErrSearchFault)
}

func TestPoolBudgetIsSearchFault(t *testing.T) {
	p, _, _ := startPool(t, config.Worker{Workers: 1}, func(game.Request) (game.Choice, error) {
		return game.Choice{}, game.ErrSearchBudget
	})

	_, err := p.Do(context.Background(), "", request())
	require.ErrorIs(t, err, ErrSearchFault)
	require.ErrorIs(t, err, game.ErrSearchBudget)
}

func TestPoolInvalidRequestIsNotFault(t *testing.T) {
	p, _, _ := startPool(t, config.Worker{Workers: 1}, func(req game.Request) (game.Choice, error) {
		return game.Solve(req, game.Options{})
	})

	req := request()
	req.Symbol = "Q"
	_, err := p.Do(context.Background(), "", req)
	require.ErrorIs(t, err, game.ErrInvalidRequest)
	assert.False(t, errors.Is(err, ErrSearchFault))
}

func TestPoolOneSearchPerKey(t *testing.T) {
	release := make(chan struct{})
	p, _, _ := startPool(t, config.Worker{Workers: 2, QueueSize: 2}, func(game.Request) (game.Choice, error) {
		<-release
		return game.Choice{Found: true, Reason: game.ReasonSearch}, nil
	})

	f, err := p.Submit(context.Background(), "g1", request())
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), "g1", request())
	require.ErrorIs(t, err, ErrBusy)

	// Other games and unkeyed requests are not affected.
	other, err := p.Submit(context.Background(), "g2", request())
	require.NoError(t, err)

	close(release)
	_, err = f.Await(context.Background())
	require.NoError(t, err)
	_, err = other.Await(context.Background())
	require.NoError(t, err)

	again, err := p.Submit(context.Background(), "g1", request())
	require.NoError(t, err)
	_, err = again.Await(context.Background())
	require.NoError(t, err)
}

func TestPoolAwaitTimeoutDoesNotCancel(t *testing.T) {
	release := make(chan struct{})
	p, _, _ := startPool(t, config.Worker{Workers: 1}, func(game.Request) (game.Choice, error) {
		<-release
		return game.Choice{Found: true}, nil
	})

	f, err := p.Submit(context.Background(), "g1", request())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	c, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Found)
}

func TestPoolClosed(t *testing.T) {
	release := make(chan struct{})
	p, cancel, done := startPool(t, config.Worker{Workers: 1, QueueSize: 4}, func(game.Request) (game.Choice, error) {
		<-release
		return game.Choice{Found: true}, nil
	})

	var futures []*Future
	for _, key := range []string{"a", "b", "c"} {
		f, err := p.Submit(context.Background(), key, request())
		require.NoError(t, err)
		futures = append(futures, f)
	}

	cancel()
	close(release)
	require.NoError(t, <-done)

	// Every accepted job resolves, either with its result or ErrClosed.
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-time.After(time.Second):
			t.Fatal("future never resolved")
		}
		if _, err := f.Await(context.Background()); err != nil {
			assert.ErrorIs(t, err, ErrClosed)
		}
	}

	_, err := p.Submit(context.Background(), "d", request())
	require.ErrorIs(t, err, ErrClosed)
}
