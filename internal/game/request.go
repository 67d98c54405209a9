package game

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest wraps every reason a move request is rejected before
	// any search starts.
	ErrInvalidRequest = errors.New("invalid move request")
	// ErrSearchBudget means the search hit its node budget and produced no move.
	ErrSearchBudget = errors.New("search node budget exhausted")
)

var validate = validator.New()

// Request is the snapshot the presentation layer posts to the engine.
type Request struct {
	Board      [][]string `json:"board" validate:"required"`
	Symbol     string     `json:"symbol" validate:"required,oneof=X O x o"`
	BoardSize  int        `json:"board_size" validate:"min=3,max=6"`
	RunLength  int        `json:"run_length,omitempty" validate:"omitempty,min=3,max=6"`
	Difficulty string     `json:"difficulty" validate:"required"`
	MaxDepth   int        `json:"max_depth,omitempty" validate:"min=0,max=36"`
	Seed       *uint64    `json:"seed,omitempty"`
}

// Parsed is a validated Request.
type Parsed struct {
	Board      Board
	Symbol     Symbol
	RunLength  int
	Difficulty Difficulty
	MaxDepth   int
	Seed       *uint64
}

// Parse validates r and converts it to engine types.
func (r Request) Parse() (Parsed, error) {
	if err := validate.Struct(r); err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	b, err := ParseBoard(r.Board, r.BoardSize)
	if err != nil {
		return Parsed{}, err
	}
	sym, err := ParseSymbol(r.Symbol)
	if err != nil {
		return Parsed{}, err
	}
	d, err := ParseDifficulty(r.Difficulty)
	if err != nil {
		return Parsed{}, err
	}

	runLength := r.RunLength
	if runLength == 0 {
		runLength = RunLengthFor(r.BoardSize)
	}
	if runLength > r.BoardSize {
		return Parsed{}, fmt.Errorf("%w: run length %d exceeds board size %d", ErrInvalidRequest, runLength, r.BoardSize)
	}

	return Parsed{
		Board:      b,
		Symbol:     sym,
		RunLength:  runLength,
		Difficulty: d,
		MaxDepth:   r.MaxDepth,
		Seed:       r.Seed,
	}, nil
}

// Solve validates a request and selects a move. A seeded request is
// reproducible.
func Solve(r Request, opts Options) (Choice, error) {
	p, err := r.Parse()
	if err != nil {
		return Choice{}, err
	}
	if p.Seed != nil {
		opts.RNG = NewRNG(*p.Seed)
	}
	return ChooseMove(p.Board, p.Symbol, p.Difficulty, p.MaxDepth, p.RunLength, opts)
}

// NewRequest builds a request from engine types, the inverse of Parse.
func NewRequest(b Board, symbol Symbol, d Difficulty, runLength, maxDepth int) Request {
	return Request{
		Board:      b.Rows(),
		Symbol:     symbol.String(),
		BoardSize:  b.Size,
		RunLength:  runLength,
		Difficulty: d.String(),
		MaxDepth:   maxDepth,
	}
}
