package search

import "github.com/jaminalder/minimax-tic-tac-toe/internal/domain"

// Heuristic weights used by Evaluate.
const (
	CenterWeight      = 5
	CornerWeight      = 3
	OpenTwoWeight     = 10
	OpponentTwoWeight = 8
)

var corners = [4]int{0, 2, 6, 8}

// Evaluate scores a non-terminal board from me's point of view: centre and
// corner control, plus open two-in-a-rows for me minus those of the opponent.
func Evaluate(b domain.Board, me domain.Cell) int {
	score := 0
	if b[4] == me {
		score += CenterWeight
	}
	for _, c := range corners {
		if b[c] == me {
			score += CornerWeight
		}
	}

	opp := me.Opponent()
	for _, ln := range domain.Lines {
		var mine, theirs, empty int
		for _, i := range ln {
			switch b[i] {
			case me:
				mine++
			case opp:
				theirs++
			default:
				empty++
			}
		}
		if empty != 1 {
			continue
		}
		switch {
		case mine == 2:
			score += OpenTwoWeight
		case theirs == 2:
			score -= OpponentTwoWeight
		}
	}
	return score
}
