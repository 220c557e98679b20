package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is one winning combination of board indices.
type Line [3]int

// Lines lists every winning combination, rows first, then columns, then diagonals.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Outcome summarises a board position.
type Outcome int

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "x_wins"
	case OWins:
		return "o_wins"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
	Board   Board
	Turn    Cell
	Winner  Cell
	Over    bool
	Moves   int
	WinLine *Line
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
	ErrBadBoard    = errors.New("malformed board")
)

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	if g.Over {
		return ErrGameOver
	}
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	return g.PlayAt(r*3 + c)
}

// PlayAt attempts to play the current turn at board index idx (0..8).
func (g *Game) PlayAt(idx int) error {
	if g.Over {
		return ErrGameOver
	}
	if idx < 0 || idx >= len(g.Board) {
		return ErrOutOfBounds
	}
	if g.Board[idx] != Empty {
		return ErrOccupied
	}

	g.Board[idx] = g.Turn
	g.Moves++

	if side, line, ok := g.Board.Winner(); ok && side == g.Turn {
		g.Winner = side
		g.WinLine = &line
		g.Over = true
		return nil
	}

	if g.Moves == len(g.Board) {
		g.Winner = Empty
		g.Over = true
		return nil
	}

	g.Turn = g.Turn.Opponent()
	return nil
}

// Outcome reports the game's result so far.
func (g Game) Outcome() Outcome {
	return g.Board.Outcome()
}

// Winner returns the owner of the first completed line, in Lines order.
func (b Board) Winner() (Cell, Line, bool) {
	for _, ln := range Lines {
		if s := b[ln[0]]; s != Empty && b[ln[1]] == s && b[ln[2]] == s {
			return s, ln, true
		}
	}
	return Empty, Line{}, false
}

// HasWon reports whether side owns a complete line.
func (b Board) HasWon(side Cell) bool {
	for _, ln := range Lines {
		if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
			return true
		}
	}
	return false
}

// Outcome classifies the board.
func (b Board) Outcome() Outcome {
	if side, _, ok := b.Winner(); ok {
		if side == X {
			return XWins
		}
		return OWins
	}
	if b.Full() {
		return Draw
	}
	return InProgress
}

// Terminal reports whether no further moves can be made.
func (b Board) Terminal() bool {
	return b.Outcome() != InProgress
}

// Empty returns the empty cell indices in ascending order.
func (b Board) Empty() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether every cell is taken.
func (b Board) Full() bool {
	return b.Count(Empty) == 0
}

// Count returns how many cells hold side.
func (b Board) Count(side Cell) int {
	n := 0
	for _, c := range b {
		if c == side {
			n++
		}
	}
	return n
}

// ToMove derives the side to move from piece counts. X moves first.
func (b Board) ToMove() Cell {
	if b.Count(X) > b.Count(O) {
		return O
	}
	return X
}

// String renders the board as nine characters, '.' for empty cells.
func (b Board) String() string {
	var s strings.Builder
	for _, c := range b {
		if c == Empty {
			s.WriteByte('.')
			continue
		}
		s.WriteString(c.String())
	}
	return s.String()
}

// ParseBoard reads nine characters of X, O and '.', '-', '_' or ' ' for empty.
// The piece counts must describe a reachable turn order.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != len(b) {
		return b, fmt.Errorf("%w: want %d cells, got %d", ErrBadBoard, len(b), len(s))
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '.', '-', '_', ' ':
			b[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q at %d", ErrBadBoard, s[i], i)
		}
	}
	if d := b.Count(X) - b.Count(O); d < 0 || d > 1 {
		return Board{}, fmt.Errorf("%w: %d X against %d O", ErrBadBoard, b.Count(X), b.Count(O))
	}
	return b, nil
}

// FromBoard rebuilds a game from a board position.
func FromBoard(b Board) Game {
	g := Game{Board: b, Turn: b.ToMove(), Moves: len(b) - b.Count(Empty)}
	if side, line, ok := b.Winner(); ok {
		g.Turn = side
		g.Winner = side
		g.WinLine = &line
		g.Over = true
	} else if b.Full() {
		g.Over = true
	}
	return g
}
