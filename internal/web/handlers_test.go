package web

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(app.WithSeed(1))
	h := NewServer(s, WithHeartbeat(time.Second))
	return s, h
}

func postForm(h http.Handler, path, playerID string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if playerID != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: playerID})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
	for _, want := range []string{"Play with Friend", "Play with AI", `value="hard"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("index should contain %q; got body: %q", want, body)
		}
	}
}

func TestCreateRedirectsToGame(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("POST", "/game", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
}

func TestCreateAIGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := postForm(h, "/game", "", url.Values{"mode": {"ai"}, "difficulty": {"hard"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	id := strings.TrimPrefix(rr.Result().Header.Get("Location"), "/game/")
	gs, ok := svc.Get(id)
	if !ok {
		t.Fatalf("game %q not created", id)
	}
	if gs.Mode != app.ModeAI || gs.Difficulty != search.Hard || gs.O != app.AIPlayer {
		t.Fatalf("unexpected game: mode=%v difficulty=%v O=%q", gs.Mode, gs.Difficulty, gs.O)
	}

	for _, form := range []url.Values{{"mode": {"solo"}}, {"mode": {"ai"}, "difficulty": {"brutal"}}} {
		if rr := postForm(h, "/game", "", form); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", form, rr.Code)
		}
	}
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
	svc, h := newTestServer(t)
	// Create a game via service to know ID
	gs, _ := svc.CreateGame(app.ModeFriend, search.Medium)

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	// Cookie set
	cookies := rr.Result().Cookies()
	var playerID string
	for _, c := range cookies {
		if c.Name == "player_id" {
			playerID = c.Value
			break
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	// Auto-claimed seat
	latest, ok := svc.Get(gs.ID)
	if !ok || (latest.X != playerID && latest.O != playerID) {
		t.Fatalf("expected auto-claim X or O; have X=%q O=%q pid=%q", latest.X, latest.O, playerID)
	}
	// SSE wiring present
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, "Player X&#39;s turn") {
		t.Fatalf("expected turn status in page; got body: %q", body)
	}
}

func TestGamePageUnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeFriend, search.Medium)
	// First GET to auto-claim X for p1
	req1 := httptest.NewRequest("GET", "/game/"+gs.ID, nil)
	rr1 := httptest.NewRecorder()
	h.ServeHTTP(rr1, req1)

	rr := postForm(h, "/game/"+gs.ID+"/join", "p2", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.O != "p2" && latest.X != "p2" { // allow if X was free
		t.Fatalf("expected seat for p2, got X=%q O=%q", latest.X, latest.O)
	}
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeFriend, search.Medium)
	// Assign X and O
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")

	rr := postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"r": {"0"}, "c": {"0"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Moves != 1 {
		t.Fatalf("expected move applied, moves=%d", latest.Game.Moves)
	}

	// Index form field, wrong player
	rr = postForm(h, "/game/"+gs.ID+"/play", "p1", url.Values{"i": {"4"}})
	if !strings.Contains(rr.Body.String(), "Not your turn") {
		t.Fatalf("expected turn error, got %q", rr.Body.String())
	}
	rr = postForm(h, "/game/"+gs.ID+"/play", "p2", url.Values{"i": {"0"}})
	if !strings.Contains(rr.Body.String(), "Cell is occupied") {
		t.Fatalf("expected occupied error, got %q", rr.Body.String())
	}
	rr = postForm(h, "/game/"+gs.ID+"/play", "p2", url.Values{"i": {"4"}})
	latest, _ = svc.Get(gs.ID)
	if latest.Game.Board[4] != domain.O {
		t.Fatalf("expected O at centre, board %s", latest.Game.Board)
	}
}

func TestPlayAgainstComputerAndReset(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeAI, search.Hard)
	svc.Join(gs.ID, "human")

	rr := postForm(h, "/game/"+gs.ID+"/play", "human", url.Values{"i": {"0"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Moves != 2 || latest.Game.Board[4] != domain.O {
		t.Fatalf("computer should have answered in the centre, board %s", latest.Game.Board)
	}

	rr = postForm(h, "/game/"+gs.ID+"/difficulty", "human", url.Values{"difficulty": {"easy"}})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `value="easy" disabled`) {
		t.Fatalf("expected easy selected, got %d %q", rr.Code, rr.Body.String())
	}

	rr = postForm(h, "/game/"+gs.ID+"/reset", "human", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ = svc.Get(gs.ID)
	if latest.Game.Moves != 0 || latest.Round != 2 || latest.Difficulty != search.Easy {
		t.Fatalf("unexpected state after reset: moves=%d round=%d difficulty=%v", latest.Game.Moves, latest.Round, latest.Difficulty)
	}
}

func TestBoardShowsWinnerAndScore(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.ModeFriend, search.Medium)
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")
	players := []string{"p1", "p2"}
	var rr *httptest.ResponseRecorder
	for i, idx := range []string{"0", "3", "1", "4", "2"} {
		rr = postForm(h, "/game/"+gs.ID+"/play", players[i%2], url.Values{"i": {idx}})
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Player X wins!") {
		t.Fatalf("expected win status, got %q", body)
	}
	if strings.Count(body, "cell win") != 3 {
		t.Fatalf("expected three highlighted cells, got %q", body)
	}
	if !strings.Contains(body, "X: 1") {
		t.Fatalf("expected score line, got %q", body)
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	// create a game via POST
	reqCreate := httptest.NewRequest("POST", "/game", nil)
	rrCreate := httptest.NewRecorder()
	h.ServeHTTP(rrCreate, reqCreate)
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	// Request SSE
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestEventsStreamBoardUpdates(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	gs, _ := svc.CreateGame(app.ModeFriend, search.Medium)
	svc.Join(gs.ID, "p1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/game/"+gs.ID+"/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events request: %v", err)
	}
	defer resp.Body.Close()

	go func() {
		// Give the handler a moment to subscribe before the move is broadcast.
		time.Sleep(50 * time.Millisecond)
		svc.PlayAt(gs.ID, "p1", 4)
	}()

	sc := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event: board" {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data: ") && strings.Contains(line, "Player O&#39;s turn") {
			return
		}
	}
	t.Fatalf("did not receive board event (sawEvent=%v): %v", sawEvent, sc.Err())
}

func TestEventsUnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/nope/events", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
