// Package search picks Tic-Tac-Toe moves by game-tree search.
//
// Minimax walks the whole tree and scores terminal positions +1/0/-1.
// AlphaBeta prunes branches that cannot change the decision and scores wins by
// distance so that the quickest win and the slowest loss are preferred.
package search

import (
	"math"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// Move is a scored choice. Index is -1 when the board has no moves left.
type Move struct {
	Index int
	Score int
}

// Minimax returns the best move for me by exhaustive search. Ties go to the
// lowest index.
func Minimax(b domain.Board, me domain.Cell) Move {
	return minimax(&b, me, b.ToMove())
}

func minimax(b *domain.Board, me, turn domain.Cell) Move {
	if b.HasWon(me) {
		return Move{Index: -1, Score: 1}
	}
	if b.HasWon(me.Opponent()) {
		return Move{Index: -1, Score: -1}
	}
	if b.Full() {
		return Move{Index: -1, Score: 0}
	}

	maximizing := turn == me
	best := Move{Index: -1, Score: math.MaxInt}
	if maximizing {
		best.Score = math.MinInt
	}
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		b[i] = turn
		child := minimax(b, me, turn.Opponent())
		b[i] = domain.Empty

		if (maximizing && child.Score > best.Score) || (!maximizing && child.Score < best.Score) {
			best = Move{Index: i, Score: child.Score}
		}
	}
	return best
}
