package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

var difficulties = []search.Difficulty{search.Easy, search.Medium, search.Hard}

func funcs() template.FuncMap {
	return template.FuncMap{
		"row": func(cells []cellView, r int) []cellView { return cells[r*3 : r*3+3] },
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.row form{margin:2px}
.cell{width:4rem;height:4rem;font-size:2rem}
.cell.win{background:#c8f7c5}
.alert{color:#b00}
</style>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<p><a href="/">Back to menu</a></p>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="live" hx-sse="swap:board">{{template "board" .Board}}</div>
</div>`))
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const indexTemplate = `<h1>Tic-Tac-Toe</h1>
<form action="/game" method="post">
  <input type="hidden" name="mode" value="player">
  <button>Play with Friend</button>
</form>
<form action="/game" method="post">
  <input type="hidden" name="mode" value="ai">
  <select name="difficulty">
    {{range .}}<option value="{{.}}"{{if eq .String "medium"}} selected{{end}}>{{.}}</option>{{end}}
  </select>
  <button>Play with AI</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="status">{{.Status}}</p>
  {{/* 3x3 grid */}}
  {{$id := .ID}}{{$cells := .Cells}}
  {{range $r := iter 3}}
  <div class="row">
    {{range row $cells $r}}
      <form hx-post="/game/{{$id}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="i" value="{{.Index}}">
        <button type="submit" class="cell{{if .Win}} win{{end}}" aria-label="Cell {{.Label}}, {{if .Symbol}}{{.Symbol}}{{else}}empty{{end}}"{{if not .Playable}} disabled{{end}}>{{.Symbol}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  <p class="score">X: {{.Score.X}} &middot; O: {{.Score.O}} &middot; Draws: {{.Score.Draws}}</p>
  <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post">
    <button type="submit">Reset</button>
  </form>
  {{if .AI}}
  <form hx-post="/game/{{.ID}}/difficulty" hx-target="#board" hx-swap="outerHTML" method="post">
    {{$current := .Difficulty}}
    {{range .Difficulties}}
    <button type="submit" name="difficulty" value="{{.}}"{{if eq .String $current}} disabled{{end}}>{{.}}</button>
    {{end}}
  </form>
  {{end}}
</div>
`

type cellView struct {
	Index    int
	Label    int
	Symbol   string
	Win      bool
	Playable bool
}

type boardView struct {
	ID           string
	Cells        []cellView
	Status       string
	Score        app.Score
	AI           bool
	Difficulty   string
	Difficulties []search.Difficulty
	Error        string
}

type pageData struct {
	ID    string
	Board boardView
}

func newBoardView(gs app.GameState, errMsg string) boardView {
	v := boardView{
		ID:           gs.ID,
		Cells:        make([]cellView, len(gs.Game.Board)),
		Status:       statusText(gs),
		Score:        gs.Score,
		AI:           gs.Mode == app.ModeAI,
		Difficulty:   gs.Difficulty.String(),
		Difficulties: difficulties,
		Error:        errMsg,
	}
	for i, c := range gs.Game.Board {
		v.Cells[i] = cellView{
			Index:    i,
			Label:    i + 1,
			Symbol:   c.String(),
			Playable: c == domain.Empty && !gs.Game.Over,
		}
	}
	if ln := gs.Game.WinLine; ln != nil {
		for _, i := range ln {
			v.Cells[i].Win = true
		}
	}
	return v
}

func statusText(gs app.GameState) string {
	g := gs.Game
	switch {
	case g.Over && g.Winner != domain.Empty:
		return fmt.Sprintf("Player %s wins!", g.Winner)
	case g.Over:
		return "It's a draw!"
	case gs.BotSide() == g.Turn:
		return "Computer is thinking..."
	default:
		return fmt.Sprintf("Player %s's turn", g.Turn)
	}
}

const playerCookie = "player_id"

// ensurePlayerCookie returns the caller's player ID, issuing one on first visit.
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
