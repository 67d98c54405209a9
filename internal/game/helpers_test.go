package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"xo-arena/internal/config"
)

// mustBoard builds a board from compact rows such as "X.O".
func mustBoard(t *testing.T, rows ...string) Board {
	t.Helper()
	grid := make([][]string, len(rows))
	for r, row := range rows {
		require.Len(t, row, len(rows), "row %d", r)
		grid[r] = make([]string, len(row))
		for c, ch := range row {
			if ch != '.' {
				grid[r][c] = string(ch)
			}
		}
	}
	b, err := ParseBoard(grid, len(rows))
	require.NoError(t, err)
	return b
}

func testOptions(seed uint64) Options {
	cfg := config.Default()
	opts := OptionsFrom(cfg)
	opts.RNG = NewRNG(seed)
	return opts
}
