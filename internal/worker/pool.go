// Package worker runs move searches off the caller's goroutine.
//
// Callers submit a board snapshot and receive a Future. Each job runs to
// completion on one worker goroutine; there is no cancellation once a job has
// been dequeued. A job keyed by a game id may not be submitted again until
// its Future has resolved.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xo-arena/internal/config"
	"xo-arena/internal/game"
	"xo-arena/internal/metrics"
)

var (
	// ErrSearchFault means the search did not complete. It is distinct from
	// a "no move" answer and never carries a partial move.
	ErrSearchFault = errors.New("search did not complete")
	ErrClosed      = errors.New("worker pool closed")
	ErrBusy        = errors.New("a search is already in flight for this game")
	ErrQueueFull   = errors.New("search queue full")
)

// SolveFunc computes a move for a request. game.Solve with bound options is
// the production implementation.
type SolveFunc func(game.Request) (game.Choice, error)

// Future resolves exactly once with a choice or an error.
type Future struct {
	done   chan struct{}
	choice game.Choice
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(c game.Choice, err error) {
	f.choice, f.err = c, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the result is ready or ctx ends. Giving up on the wait
// does not stop the search.
func (f *Future) Await(ctx context.Context) (game.Choice, error) {
	select {
	case <-f.done:
		return f.choice, f.err
	case <-ctx.Done():
		return game.Choice{}, ctx.Err()
	}
}

type job struct {
	key      string
	req      game.Request
	future   *Future
	enqueued time.Time
}

type Pool struct {
	cfg   config.Worker
	solve SolveFunc
	jobs  chan job

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	quit     chan struct{}
	senders  sync.WaitGroup
}

func New(cfg config.Worker, solve SolveFunc) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	return &Pool{
		cfg:      cfg,
		solve:    solve,
		jobs:     make(chan job, cfg.QueueSize),
		inflight: make(map[string]struct{}),
		quit:     make(chan struct{}),
	}
}

// Run starts the workers and blocks until ctx is cancelled. Jobs already
// running finish; queued jobs resolve with ErrClosed.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			log.Debug().Int("worker", id).Msg("worker-started")
			for {
				select {
				case <-gctx.Done():
					log.Debug().Int("worker", id).Msg("worker-stopped")
					return nil
				case j := <-p.jobs:
					metrics.SetQueueDepth(len(p.jobs))
					p.execute(j)
				}
			}
		})
	}

	err := g.Wait()
	p.shutdown()
	return err
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	// Senders that passed the closed check either enqueue or observe quit.
	p.senders.Wait()

	for {
		select {
		case j := <-p.jobs:
			p.finish(j, game.Choice{}, ErrClosed)
		default:
			metrics.SetQueueDepth(0)
			return
		}
	}
}

// Submit enqueues a request. key identifies the game; an empty key opts out
// of the one-search-per-game check.
func (p *Pool) Submit(ctx context.Context, key string, req game.Request) (*Future, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if key != "" {
		if _, busy := p.inflight[key]; busy {
			p.mu.Unlock()
			return nil, ErrBusy
		}
		p.inflight[key] = struct{}{}
	}
	p.senders.Add(1)
	p.mu.Unlock()
	defer p.senders.Done()

	j := job{key: key, req: req, future: newFuture(), enqueued: time.Now()}
	select {
	case p.jobs <- j:
		metrics.SetQueueDepth(len(p.jobs))
		return j.future, nil
	default:
	}

	// Queue full: wait for room unless the caller gives up.
	select {
	case p.jobs <- j:
		metrics.SetQueueDepth(len(p.jobs))
		return j.future, nil
	case <-p.quit:
		p.release(key)
		return nil, ErrClosed
	case <-ctx.Done():
		p.release(key)
		return nil, fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err())
	}
}

// Do submits and waits.
func (p *Pool) Do(ctx context.Context, key string, req game.Request) (game.Choice, error) {
	f, err := p.Submit(ctx, key, req)
	if err != nil {
		return game.Choice{}, err
	}
	return f.Await(ctx)
}

func (p *Pool) execute(j job) {
	start := time.Now()
	choice, err := p.safeSolve(j.req)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeMove
	switch {
	case errors.Is(err, game.ErrInvalidRequest):
		outcome = metrics.OutcomeInvalid
	case err != nil:
		outcome = metrics.OutcomeFault
		err = fmt.Errorf("%w: %w", ErrSearchFault, err)
		log.Error().Err(err).Str("key", j.key).Str("difficulty", j.req.Difficulty).Int("board_size", j.req.BoardSize).Msg("search-fault")
	case !choice.Found:
		outcome = metrics.OutcomeNoMove
	}
	metrics.ObserveSearch(j.req.Difficulty, j.req.BoardSize, elapsed, choice.Nodes, outcome)

	log.Debug().
		Str("key", j.key).
		Str("outcome", outcome).
		Dur("queued", start.Sub(j.enqueued)).
		Dur("elapsed", elapsed).
		Msg("search-finished")

	p.finish(j, choice, err)
}

// safeSolve turns a panic inside the search into an error so the caller
// always gets a response.
func (p *Pool) safeSolve(req game.Request) (c game.Choice, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = game.Choice{}, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.solve(req)
}

func (p *Pool) finish(j job, c game.Choice, err error) {
	p.release(j.key)
	j.future.resolve(c, err)
}

func (p *Pool) release(key string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	delete(p.inflight, key)
	p.mu.Unlock()
}
