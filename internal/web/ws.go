package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

var errUpdatesClosed = errors.New("game updates closed")

// socket upgrades to a WebSocket that pushes State on every change and
// accepts ClientMsg commands from the player.
func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	side, _, err := h.svc.Join(id, pid)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Subscribe before the upgrade so no change slips between the first
	// snapshot and the update stream.
	updates, unsub, err := h.svc.Subscribe(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("game", id).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")

	log := h.log.With().Str("game", id).Str("player", pid).Logger()
	log.Debug().Stringer("seat", side).Msg("socket connected")

	errg, ctx := errgroup.WithContext(r.Context())
	replies := make(chan any, 4)

	errg.Go(func() error {
		if err := wsjson.Write(ctx, conn, Assigned{Type: "assigned", You: side.String()}); err != nil {
			return err
		}
		gs, ok := h.svc.Get(id)
		if !ok {
			return errUpdatesClosed
		}
		if err := wsjson.Write(ctx, conn, newState(*gs)); err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case st, ok := <-updates:
				if !ok {
					return errUpdatesClosed
				}
				if err := wsjson.Write(ctx, conn, newState(st)); err != nil {
					return err
				}
			case msg := <-replies:
				if err := wsjson.Write(ctx, conn, msg); err != nil {
					return err
				}
			}
		}
	})

	errg.Go(func() error {
		for {
			var msg ClientMsg
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return err
			}
			reply := h.handleClientMsg(id, pid, msg)
			if reply == nil {
				continue
			}
			select {
			case replies <- reply:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	err = errg.Wait()
	switch {
	case errors.Is(err, errUpdatesClosed):
		log.Debug().Msg("socket closed, game gone or client too slow")
		conn.Close(websocket.StatusGoingAway, "game closed")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway,
		errors.Is(err, context.Canceled):
		log.Debug().Msg("socket disconnected")
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		log.Warn().Err(err).Msg("socket failed")
	}
}

// handleClientMsg applies one command. State changes reach the client through
// the subscription, so only errors and pongs are returned.
func (h *handlers) handleClientMsg(id, pid string, msg ClientMsg) any {
	var err error
	switch msg.Type {
	case "ping":
		return Pong{Type: "pong"}
	case "move":
		if msg.Index == nil {
			return Error{Type: "error", Code: "invalid_position", Detail: "missing index"}
		}
		_, err = h.svc.PlayAt(id, pid, *msg.Index)
	case "reset":
		_, err = h.svc.Reset(id, pid)
	case "difficulty":
		var d search.Difficulty
		if d, err = search.ParseDifficulty(msg.Difficulty); err == nil {
			_, err = h.svc.SetDifficulty(id, pid, d)
		}
	default:
		return Error{Type: "error", Code: "bad_request", Detail: "unknown message type " + msg.Type}
	}
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return Error{Type: "error", Code: "not_found", Detail: err.Error()}
		}
		return newError(err)
	}
	return nil
}
