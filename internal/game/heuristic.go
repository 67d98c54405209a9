package game

import "xo-arena/internal/config"

// WinScore is the sentinel for a completed run. Config caps every heuristic
// weight so that no heuristic sum can come near it.
const WinScore = 1_000_000_000

// Evaluate scores b from maximizer's point of view: the win/loss sentinels
// for decided positions, 0 for a full board, the heuristic otherwise.
func Evaluate(b Board, maximizer Symbol, runLength int, w config.Weights) int {
	if score, ok := terminalScore(b, maximizer, runLength, 0); ok {
		return score
	}
	return Heuristic(b, maximizer, runLength, w)
}

// terminalScore adjusts the sentinels by depth so that faster wins and
// slower losses are preferred.
func terminalScore(b Board, maximizer Symbol, runLength, depth int) (int, bool) {
	if HasWin(b, maximizer, runLength) {
		return WinScore - depth, true
	}
	if HasWin(b, maximizer.Opponent(), runLength) {
		return -WinScore + depth, true
	}
	if b.IsFull() {
		return 0, true
	}
	return 0, false
}

// Heuristic counts unblocked near-complete windows for both sides and adds
// a small bonus for holding the centre.
func Heuristic(b Board, maximizer Symbol, runLength int, w config.Weights) int {
	opponent := maximizer.Opponent()
	score := 0

	forEachSegment(b.Size, runLength, func(r, c, dr, dc int) bool {
		mine, theirs, empty := 0, 0, 0
		for k := 0; k < runLength; k++ {
			switch b.Cells[r+k*dr][c+k*dc] {
			case maximizer:
				mine++
			case opponent:
				theirs++
			default:
				empty++
			}
		}

		// Windows holding both symbols can never be completed.
		if theirs == 0 {
			score += progress(mine, empty, runLength, w.NearWin, w.Two, w.Three)
		}
		if mine == 0 {
			score -= progress(theirs, empty, runLength, w.BlockNearWin, w.BlockTwo, w.BlockThree)
		}
		return true
	})

	return score + centerScore(b, maximizer, w)
}

func progress(count, empty, runLength, near, two, three int) int {
	switch {
	case count == runLength-1 && empty == 1:
		return near
	case count == runLength-2 && empty == 2:
		return two
	case runLength > 3 && count == runLength-3 && empty == 3:
		return three
	}
	return 0
}

// centerScore rewards the middle cell on odd boards and the four middle
// cells on even boards.
func centerScore(b Board, maximizer Symbol, w config.Weights) int {
	opponent := maximizer.Opponent()
	value := func(s Symbol, weight int) int {
		switch s {
		case maximizer:
			return weight
		case opponent:
			return -weight
		}
		return 0
	}

	if b.Size%2 != 0 {
		mid := b.Size / 2
		return value(b.Cells[mid][mid], w.Center)
	}

	m1, m2 := b.Size/2-1, b.Size/2
	score := 0
	for _, p := range [4][2]int{{m1, m1}, {m1, m2}, {m2, m1}, {m2, m2}} {
		score += value(b.Cells[p[0]][p[1]], w.CenterEven)
	}
	return score
}
