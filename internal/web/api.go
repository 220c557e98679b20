package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) apiState(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, Error{Type: "error", Code: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, newState(*gs))
}

// solve answers with the alpha-beta best move for any legal position.
func (h *handlers) solve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Type: "error", Code: "bad_request", Detail: err.Error()})
		return
	}
	board, err := domain.ParseBoard(req.Board)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Type: "error", Code: "bad_board", Detail: err.Error()})
		return
	}
	side := board.ToMove()
	if req.Side != "" {
		want, err := parseSide(req.Side)
		if err == nil && want != side {
			err = fmt.Errorf("%w: %s is to move", errBadSide, side)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Error{Type: "error", Code: "bad_side", Detail: err.Error()})
			return
		}
	}
	if board.Terminal() {
		writeJSON(w, http.StatusUnprocessableEntity, Error{Type: "error", Code: "game_over", Detail: board.Outcome().String()})
		return
	}

	var stats search.Stats
	m := search.AlphaBeta(board, side, search.WithMaxDepth(req.MaxDepth), search.WithStats(&stats))
	h.log.Debug().
		Str("board", board.String()).
		Stringer("side", side).
		Int("index", m.Index).
		Int("nodes", stats.Nodes).
		Msg("solved position")
	writeJSON(w, http.StatusOK, SolveResponse{Index: m.Index, Score: m.Score, Side: side.String(), Nodes: stats.Nodes})
}

var errBadSide = errors.New("bad side")

func parseSide(s string) (domain.Cell, error) {
	switch s {
	case "X", "x":
		return domain.X, nil
	case "O", "o":
		return domain.O, nil
	default:
		return domain.Empty, fmt.Errorf("%w: %q, want X or O", errBadSide, s)
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
