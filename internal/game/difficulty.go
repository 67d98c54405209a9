package game

import (
	"fmt"
	"strings"

	"xo-arena/internal/config"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Impossible
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Impossible:
		return "impossible"
	default:
		return "unknown"
	}
}

// ParseDifficulty accepts the tier names used by the web client; "hard" is an
// alias for impossible.
func ParseDifficulty(v string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "impossible", "hard":
		return Impossible, nil
	}
	return Easy, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRequest, v)
}

// Lower is the next weaker tier, used when a search cannot complete.
// Easy has nothing below it.
func (d Difficulty) Lower() (Difficulty, bool) {
	switch d {
	case Impossible:
		return Medium, true
	case Medium:
		return Easy, true
	default:
		return Easy, false
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// SearchDepth maps a tier and board size to a ply limit (counting the root
// move). Easy never searches. A positive requested depth overrides the
// configured Impossible depth; Medium always uses its configured depth.
func SearchDepth(d Difficulty, size, requested int, depths config.Depths) int {
	switch d {
	case Easy:
		return 0
	case Medium:
		if v, ok := depths.Medium[size]; ok && v > 0 {
			return v
		}
		switch size {
		case 3:
			return 5
		case 4:
			return 4
		}
		return 3
	case Impossible:
		if requested > 0 {
			return requested
		}
		if v, ok := depths.Impossible[size]; ok && v > 0 {
			return v
		}
		return size * size
	}
	return 0
}
