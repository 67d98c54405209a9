package game

import (
	"fmt"
	"strings"
)

// Symbol is the content of a single cell.
type Symbol uint8

const (
	Empty Symbol = iota
	X            // always moves first
	O
)

func (s Symbol) String() string {
	switch s {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player's symbol. Empty has no opponent.
func (s Symbol) Opponent() Symbol {
	switch s {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseSymbol accepts "X" or "O" (case-insensitive).
func ParseSymbol(v string) (Symbol, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("%w: symbol %q must be X or O", ErrInvalidRequest, v)
}

// parseCell is ParseSymbol plus the empty spellings used on the wire ("" and " ").
func parseCell(v string) (Symbol, error) {
	if strings.TrimSpace(v) == "" {
		return Empty, nil
	}
	return ParseSymbol(v)
}

const (
	MinBoardSize = 3
	MaxBoardSize = 6
)

// RunLengthFor is the canonical number of marks in a row needed to win:
// 3 on the 3x3 board, 4 on every larger board.
func RunLengthFor(size int) int {
	if size <= 3 {
		return 3
	}
	return 4
}

type Board struct {
	Size  int
	Cells [][]Symbol
}

func NewBoard(size int) Board {
	if size < MinBoardSize || size > MaxBoardSize {
		size = MinBoardSize
	}

	c := make([][]Symbol, size)
	for i := range c {
		c[i] = make([]Symbol, size)
	}

	return Board{
		Size:  size,
		Cells: c,
	}
}

// ParseBoard converts the wire grid into a Board, checking that it is square
// and matches size.
func ParseBoard(rows [][]string, size int) (Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return Board{}, fmt.Errorf("%w: board size %d out of range", ErrInvalidRequest, size)
	}
	if len(rows) != size {
		return Board{}, fmt.Errorf("%w: board has %d rows, want %d", ErrInvalidRequest, len(rows), size)
	}
	b := NewBoard(size)
	for r, row := range rows {
		if len(row) != size {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidRequest, r, len(row), size)
		}
		for c, v := range row {
			s, err := parseCell(v)
			if err != nil {
				return Board{}, fmt.Errorf("cell (%d,%d): %w", r, c, err)
			}
			b.Cells[r][c] = s
		}
	}
	return b, nil
}

// Clone returns a deep copy; the engine never mutates a caller's board.
func (b Board) Clone() Board {
	c := make([][]Symbol, len(b.Cells))
	for i := range b.Cells {
		c[i] = append([]Symbol(nil), b.Cells[i]...)
	}
	return Board{Size: b.Size, Cells: c}
}

func (b Board) At(m Move) Symbol { return b.Cells[m.Row][m.Col] }

func (b Board) InBounds(m Move) bool {
	return m.Row >= 0 && m.Row < b.Size && m.Col >= 0 && m.Col < b.Size
}

// EmptyCells lists empty cells in row-major order.
func (b Board) EmptyCells() []Move {
	out := make([]Move, 0, b.Size*b.Size)
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			if b.Cells[r][c] == Empty {
				out = append(out, Move{Row: r, Col: c})
			}
		}
	}
	return out
}

func (b Board) IsFull() bool {
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			if b.Cells[r][c] == Empty {
				return false
			}
		}
	}
	return true
}

// Rows renders the board in wire form ("X", "O" or "").
func (b Board) Rows() [][]string {
	out := make([][]string, b.Size)
	for r := range out {
		out[r] = make([]string, b.Size)
		for c := range out[r] {
			out[r][c] = b.Cells[r][c].String()
		}
	}
	return out
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if s := b.Cells[r][c]; s == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteString(s.String())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
