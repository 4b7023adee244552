package bot

import "connect-arena/internal/game"

// NoMove is returned by ChooseMove when every column is full.
const NoMove = -1

// ColumnOrder returns the center-biased evaluation order: the center column
// first, then alternating left and right outward. For seven columns this is
// 3,2,4,1,5,0,6.
func ColumnOrder(cols int) []int {
	if cols <= 0 {
		return nil
	}
	center := (cols - 1) / 2
	order := make([]int, 0, cols)
	order = append(order, center)
	for d := 1; len(order) < cols; d++ {
		if c := center - d; c >= 0 {
			order = append(order, c)
		}
		if c := center + d; c < cols {
			order = append(order, c)
		}
	}
	return order
}

// ChooseMove picks a column for own: win now, block an immediate opponent
// win, best potential-three score, then first legal column. The board is not
// mutated.
func ChooseMove(b *game.Board, own, opp game.Token) int {
	order := ColumnOrder(b.Cols())

	for _, col := range order {
		if winsWith(b, col, own) {
			return col
		}
	}

	for _, col := range order {
		if winsWith(b, col, opp) && b.CanPlay(col) {
			return col
		}
	}

	best, bestScore := NoMove, -1
	for _, col := range order {
		sim := b.Clone()
		if _, err := sim.Apply(col, own); err != nil {
			continue
		}
		if score := potentialThrees(sim, own); score > bestScore {
			best, bestScore = col, score
		}
	}
	if best != NoMove {
		return best
	}

	for _, col := range order {
		if b.CanPlay(col) {
			return col
		}
	}
	return NoMove
}

func winsWith(b *game.Board, col int, t game.Token) bool {
	sim := b.Clone()
	if _, err := sim.Apply(col, t); err != nil {
		return false
	}
	_, won := sim.CheckWin(t)
	return won
}

// potentialThrees counts windows holding exactly three t tokens and one
// empty cell.
func potentialThrees(b *game.Board, t game.Token) int {
	score := 0
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			for _, d := range game.Directions {
				w, ok := b.Window(r, c, d)
				if !ok {
					continue
				}
				own, empty := 0, 0
				for _, v := range w {
					switch v {
					case t:
						own++
					case game.Empty:
						empty++
					}
				}
				if own == game.ConnectLength-1 && empty == 1 {
					score++
				}
			}
		}
	}
	return score
}
