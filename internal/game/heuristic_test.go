package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xo-arena/internal/config"
)

func TestEvaluateTerminal(t *testing.T) {
	w := config.DefaultWeights()

	won := mustBoard(t, "XXX", "OO.", "...")
	assert.Equal(t, WinScore, Evaluate(won, X, 3, w))
	assert.Equal(t, -WinScore, Evaluate(won, O, 3, w))

	draw := mustBoard(t, "XOX", "XOO", "OXX")
	assert.Equal(t, 0, Evaluate(draw, X, 3, w))
}

func TestTerminalScorePrefersFasterWins(t *testing.T) {
	won := mustBoard(t, "XXX", "OO.", "...")

	fast, ok := terminalScore(won, X, 3, 1)
	assert.True(t, ok)
	slow, _ := terminalScore(won, X, 3, 5)
	assert.Greater(t, fast, slow)

	quickLoss, _ := terminalScore(won, O, 3, 1)
	lateLoss, _ := terminalScore(won, O, 3, 5)
	assert.Less(t, quickLoss, lateLoss)
}

func TestHeuristicWindows(t *testing.T) {
	w := config.DefaultWeights()

	// X holds the centre: four open lines run through it.
	b := mustBoard(t, "...", ".X.", "...")
	assert.Equal(t, w.Center+4*w.Two, Heuristic(b, X, 3, w))
	assert.Equal(t, -(w.Center + 4*w.BlockTwo), Heuristic(b, O, 3, w))

	centreOnly := w
	centreOnly.Two, centreOnly.BlockTwo = 0, 0
	assert.Equal(t, w.Center, Heuristic(b, X, 3, centreOnly))
	assert.Equal(t, -w.Center, Heuristic(b, O, 3, centreOnly))

	// Two X in the top row with one empty cell.
	b = mustBoard(t, "XX.", "...", "...")
	score := Heuristic(b, X, 3, w)
	assert.GreaterOrEqual(t, score, w.NearWin)

	assert.Equal(t, w.NearWin+3*w.Two, score)

	// The same shape seen by O is a threat, weighted lower than the attack.
	threat := Heuristic(b, O, 3, w)
	assert.Equal(t, -(w.BlockNearWin + 3*w.BlockTwo), threat)
	assert.Less(t, -threat, score)
}

func TestHeuristicBlockedWindowsScoreNothing(t *testing.T) {
	w := config.DefaultWeights()
	w.Center, w.CenterEven = 0, 0

	// The top row holds both symbols and counts for neither side.
	b := mustBoard(t, "XXO", "...", "...")
	assert.Equal(t, 3*w.Two-2*w.BlockTwo, Heuristic(b, X, 3, w))
}

func TestHeuristicEvenCentre(t *testing.T) {
	w := config.DefaultWeights()
	w.NearWin, w.Two, w.Three = 0, 0, 0
	w.BlockNearWin, w.BlockTwo, w.BlockThree = 0, 0, 0

	b := mustBoard(t, "....", ".XO.", ".X..", "....")
	assert.Equal(t, w.CenterEven, Heuristic(b, X, 4, w))
}

func TestHeuristicStaysBelowWinScore(t *testing.T) {
	w := config.Weights{
		NearWin: config.MaxWeight - 1, Two: config.MaxWeight - 1, Three: config.MaxWeight - 1,
		BlockNearWin: 0, BlockTwo: 0, BlockThree: 0,
		Center: config.MaxWeight - 1, CenterEven: config.MaxWeight - 1,
	}
	b := mustBoard(t,
		"X.....",
		"......",
		"..XX..",
		"..XX..",
		"......",
		"......",
	)
	assert.Less(t, Heuristic(b, X, 4, w), WinScore)
}
