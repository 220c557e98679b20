package web

import (
	"errors"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

// ---- Client -> Server ----

// ClientMsg is sent over the game socket.
type ClientMsg struct {
	Type       string `json:"type"`                 // "move" | "reset" | "difficulty" | "ping"
	Index      *int   `json:"index,omitempty"`      // for "move"
	Difficulty string `json:"difficulty,omitempty"` // for "difficulty"
}

// ---- Server -> Client ----

type Assigned struct {
	Type string `json:"type"` // "assigned"
	You  string `json:"you"`  // "X", "O" or "" for spectators
}

type Score struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// State is a full game snapshot, pushed on every change and served by the JSON API.
type State struct {
	Type       string            `json:"type"` // "state"
	Game       string            `json:"game"`
	Mode       app.Mode          `json:"mode"`
	Difficulty search.Difficulty `json:"difficulty"`
	Board      [9]string         `json:"board"`
	Next       string            `json:"next,omitempty"`
	Status     string            `json:"status"`
	Winner     string            `json:"winner,omitempty"`
	WinLine    []int             `json:"win_line,omitempty"`
	Moves      int               `json:"moves"`
	Round      int               `json:"round"`
	Score      Score             `json:"score"`
}

type Pong struct {
	Type string `json:"type"` // "pong"
}

type Error struct {
	Type   string `json:"type"` // "error"
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// SolveRequest asks for the best move on an arbitrary position.
type SolveRequest struct {
	Board    string `json:"board"`
	Side     string `json:"side,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
}

type SolveResponse struct {
	Index int    `json:"index"`
	Score int    `json:"score"`
	Side  string `json:"side"`
	Nodes int    `json:"nodes"`
}

func newState(gs app.GameState) State {
	st := State{
		Type:       "state",
		Game:       gs.ID,
		Mode:       gs.Mode,
		Difficulty: gs.Difficulty,
		Status:     gs.Game.Outcome().String(),
		Moves:      gs.Game.Moves,
		Round:      gs.Round,
		Score:      Score{X: gs.Score.X, O: gs.Score.O, Draws: gs.Score.Draws},
	}
	for i, c := range gs.Game.Board {
		st.Board[i] = c.String()
	}
	if !gs.Game.Over {
		st.Next = gs.Game.Turn.String()
	}
	if gs.Game.Winner != domain.Empty {
		st.Winner = gs.Game.Winner.String()
	}
	if ln := gs.Game.WinLine; ln != nil {
		st.WinLine = ln[:]
	}
	return st
}

func newError(err error) Error {
	return Error{Type: "error", Code: errorCode(err), Detail: errorMessage(err)}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "not_a_player"
	case errors.Is(err, app.ErrNotAIGame):
		return "not_ai_game"
	case errors.Is(err, search.ErrUnknownDifficulty):
		return "bad_difficulty"
	case errors.Is(err, domain.ErrOccupied):
		return "cell_taken"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "invalid_position"
	case errors.Is(err, domain.ErrGameOver):
		return "game_over"
	default:
		return "bad_request"
	}
}
