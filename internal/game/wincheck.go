package game

// directions in scan order: horizontal, vertical, diagonal ↘, diagonal ↙.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// forEachSegment visits every window of length n on the board. Windows are
// visited rows first (top-to-bottom, left-to-right), then columns, then each
// diagonal direction. fn returns false to stop the scan.
func forEachSegment(size, n int, fn func(r, c, dr, dc int) bool) {
	if n <= 0 || n > size {
		return
	}
	for _, d := range directions {
		dr, dc := d[0], d[1]
		if dr == 1 && dc == 0 {
			for c := 0; c < size; c++ {
				for r := 0; r+n <= size; r++ {
					if !fn(r, c, dr, dc) {
						return
					}
				}
			}
			continue
		}
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				endR, endC := r+(n-1)*dr, c+(n-1)*dc
				if !in(endR, endC, size) {
					continue
				}
				if !fn(r, c, dr, dc) {
					return
				}
			}
		}
	}
}

func in(r, c, size int) bool {
	return r >= 0 && r < size && c >= 0 && c < size
}

func segmentIs(b Board, s Symbol, r, c, dr, dc, n int) bool {
	for k := 0; k < n; k++ {
		if b.Cells[r+k*dr][c+k*dc] != s {
			return false
		}
	}
	return true
}

// HasWin reports whether s owns runLength consecutive cells in any direction.
func HasWin(b Board, s Symbol, runLength int) bool {
	if s == Empty {
		return false
	}
	won := false
	forEachSegment(b.Size, runLength, func(r, c, dr, dc int) bool {
		if segmentIs(b, s, r, c, dr, dc, runLength) {
			won = true
			return false
		}
		return true
	})
	return won
}

// FindWinningLine returns the cells of the first winning window for s, or nil.
func FindWinningLine(b Board, s Symbol, runLength int) []Move {
	if s == Empty {
		return nil
	}
	var line []Move
	forEachSegment(b.Size, runLength, func(r, c, dr, dc int) bool {
		if !segmentIs(b, s, r, c, dr, dc, runLength) {
			return true
		}
		line = make([]Move, runLength)
		for k := range line {
			line[k] = Move{Row: r + k*dr, Col: c + k*dc}
		}
		return false
	})
	return line
}

// ImmediateWins lists the empty cells where s would complete a run with one move.
func ImmediateWins(b Board, s Symbol, runLength int) []Move {
	var out []Move
	work := b.Clone()
	for _, m := range work.EmptyCells() {
		if completesRun(work, m, s, runLength) {
			out = append(out, m)
		}
	}
	return out
}

// completesRun places s at m, checks for a win and restores the cell.
func completesRun(b Board, m Move, s Symbol, runLength int) bool {
	b.Cells[m.Row][m.Col] = s
	won := HasWin(b, s, runLength)
	b.Cells[m.Row][m.Col] = Empty
	return won
}
