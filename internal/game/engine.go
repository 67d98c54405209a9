package game

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"xo-arena/internal/config"
)

const inf = math.MaxInt

// Reason records which path of the move selector produced a choice.
type Reason string

const (
	ReasonNone   Reason = "none"
	ReasonRandom Reason = "random"
	ReasonWin    Reason = "win"
	ReasonBlock  Reason = "block"
	ReasonSearch Reason = "search"
)

// Choice is the selector's answer. Found is false only when the board had
// no empty cell.
type Choice struct {
	Move   Move   `json:"move"`
	Found  bool   `json:"found"`
	Reason Reason `json:"reason"`
	Score  int    `json:"score"`
	Depth  int    `json:"depth"`
	Nodes  int    `json:"nodes"`
}

type Options struct {
	Weights  config.Weights
	Depths   config.Depths
	MaxNodes int
	// RNG drives move shuffling and tie-breaks. Nil means a fresh unseeded
	// generator.
	RNG *frand.RNG
}

// OptionsFrom builds selector options from the loaded configuration.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Weights:  cfg.Weights,
		Depths:   cfg.Depths,
		MaxNodes: cfg.Search.MaxNodes,
	}
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *frand.RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}

type SearchParams struct {
	RunLength int
	Maximizer Symbol
	MaxDepth  int
	MaxNodes  int
	Weights   config.Weights
	RNG       *frand.RNG
}

type searcher struct {
	board     Board
	runLength int
	maximizer Symbol
	maxDepth  int
	maxNodes  int
	weights   config.Weights
	rng       *frand.RNG

	nodes     int
	exhausted bool
}

func newSearcher(b Board, p SearchParams) *searcher {
	rng := p.RNG
	if rng == nil {
		rng = frand.New()
	}
	return &searcher{
		board:     b,
		runLength: p.RunLength,
		maximizer: p.Maximizer,
		maxDepth:  p.MaxDepth,
		maxNodes:  p.MaxNodes,
		weights:   p.Weights,
		rng:       rng,
	}
}

// Search runs depth-limited minimax with alpha-beta pruning on a copy of b
// and returns the score from p.Maximizer's point of view. depth is the
// number of plies already played below the root.
func Search(b Board, depth int, maximizing bool, alpha, beta int, p SearchParams) (int, error) {
	s := newSearcher(b.Clone(), p)
	score := s.alphaBeta(depth, maximizing, alpha, beta)
	if s.exhausted {
		return 0, fmt.Errorf("%w: %d nodes", ErrSearchBudget, s.nodes)
	}
	return score, nil
}

func (s *searcher) alphaBeta(depth int, maximizing bool, alpha, beta int) int {
	s.nodes++
	if s.maxNodes > 0 && s.nodes > s.maxNodes {
		s.exhausted = true
		return 0
	}

	if score, ok := terminalScore(s.board, s.maximizer, s.runLength, depth); ok {
		return score
	}
	if depth >= s.maxDepth {
		return Heuristic(s.board, s.maximizer, s.runLength, s.weights)
	}

	moves := s.board.EmptyCells()
	s.shuffle(moves)

	if maximizing {
		best := -inf
		for _, m := range moves {
			s.board.Cells[m.Row][m.Col] = s.maximizer
			score := s.alphaBeta(depth+1, false, alpha, beta)
			s.board.Cells[m.Row][m.Col] = Empty
			if s.exhausted {
				return 0
			}

			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	opponent := s.maximizer.Opponent()
	best := inf
	for _, m := range moves {
		s.board.Cells[m.Row][m.Col] = opponent
		score := s.alphaBeta(depth+1, true, alpha, beta)
		s.board.Cells[m.Row][m.Col] = Empty
		if s.exhausted {
			return 0
		}

		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best
}

func (s *searcher) shuffle(moves []Move) {
	s.rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
}

// root scores every candidate with a full window so that equal scores are
// exact and the tie-break is uniform among them.
func (s *searcher) root(moves []Move) (best []Move, bestScore int) {
	bestScore = -inf
	for _, m := range moves {
		s.board.Cells[m.Row][m.Col] = s.maximizer
		score := s.alphaBeta(1, false, -inf, inf)
		s.board.Cells[m.Row][m.Col] = Empty
		if s.exhausted {
			return nil, 0
		}

		if score > bestScore {
			bestScore = score
			best = append(best[:0], m)
		} else if score == bestScore {
			best = append(best, m)
		}
	}
	return best, bestScore
}

// ChooseMove picks a move for symbol on a private copy of b.
//
// Easy plays a uniformly random empty cell. Medium and Impossible first take
// an immediate win, then block an immediate opponent win, and only then
// search; they differ in search depth. When the opponent has several
// separate winning cells only one of them is blocked.
func ChooseMove(b Board, symbol Symbol, d Difficulty, maxDepth, runLength int, opts Options) (Choice, error) {
	if symbol != X && symbol != O {
		return Choice{}, fmt.Errorf("%w: no symbol to move", ErrInvalidRequest)
	}

	work := b.Clone()
	moves := work.EmptyCells()
	if len(moves) == 0 {
		return Choice{Reason: ReasonNone}, nil
	}

	rng := opts.RNG
	if rng == nil {
		rng = frand.New()
	}
	rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })

	switch d {
	case Easy:
		return Choice{Move: moves[rng.Intn(len(moves))], Found: true, Reason: ReasonRandom}, nil

	case Medium, Impossible:
		if wins := ImmediateWins(work, symbol, runLength); len(wins) > 0 {
			return Choice{Move: wins[rng.Intn(len(wins))], Found: true, Reason: ReasonWin, Score: WinScore}, nil
		}
		if threats := ImmediateWins(work, symbol.Opponent(), runLength); len(threats) > 0 {
			return Choice{Move: threats[rng.Intn(len(threats))], Found: true, Reason: ReasonBlock}, nil
		}

		depth := SearchDepth(d, work.Size, maxDepth, opts.Depths)
		s := newSearcher(work, SearchParams{
			RunLength: runLength,
			Maximizer: symbol,
			MaxDepth:  depth,
			MaxNodes:  opts.MaxNodes,
			Weights:   opts.Weights,
			RNG:       rng,
		})
		best, score := s.root(moves)
		if s.exhausted {
			log.Debug().Str("difficulty", d.String()).Int("depth", depth).Int("nodes", s.nodes).Msg("search-budget-exhausted")
			return Choice{}, fmt.Errorf("%w: %d nodes at depth %d", ErrSearchBudget, s.nodes, depth)
		}

		m := best[rng.Intn(len(best))]
		log.Debug().
			Str("difficulty", d.String()).
			Int("depth", depth).
			Int("nodes", s.nodes).
			Int("score", score).
			Int("candidates", len(moves)).
			Int("ties", len(best)).
			Msg("search-complete")
		return Choice{Move: m, Found: true, Reason: ReasonSearch, Score: score, Depth: depth, Nodes: s.nodes}, nil
	}

	return Choice{}, fmt.Errorf("%w: unknown difficulty %d", ErrInvalidRequest, int(d))
}
