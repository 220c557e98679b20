package search

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

var (
	ErrNoMoves   = errors.New("no moves left")
	ErrNotMyTurn = errors.New("not the bot's turn")
)

const center = 4

// Bot is a computer opponent for one side. It is safe for concurrent use.
type Bot struct {
	side       domain.Cell
	difficulty Difficulty

	mu  sync.Mutex
	rng *rand.Rand
}

type BotOption func(b *Bot)

// WithSeed makes the bot's random choices reproducible.
func WithSeed(seed uint64) BotOption {
	return func(b *Bot) {
		b.rng = rand.New(rand.NewSource(seed))
	}
}

// NewBot returns a bot playing side at difficulty d.
func NewBot(side domain.Cell, d Difficulty, opts ...BotOption) *Bot {
	b := &Bot{side: side, difficulty: d}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return b
}

func (b *Bot) Side() domain.Cell { return b.side }

func (b *Bot) Difficulty() Difficulty { return b.difficulty }

// Choose returns the index the bot plays on board.
//
// Lower difficulties play a random empty cell with probability
// Difficulty.RandomShare. Otherwise the bot takes the centre (or a free corner)
// while at most one piece is down, and from then on plays a best-scoring move
// from a full-depth alpha-beta search, picking randomly between equal moves.
func (b *Bot) Choose(board domain.Board) (int, error) {
	if board.Terminal() {
		return -1, ErrNoMoves
	}
	if board.ToMove() != b.side {
		return -1, ErrNotMyTurn
	}
	empty := board.Empty()

	b.mu.Lock()
	defer b.mu.Unlock()

	if share := b.difficulty.RandomShare(); share > 0 && b.rng.Float64() < share {
		return empty[b.rng.Intn(len(empty))], nil
	}

	if len(empty) >= len(board)-1 {
		if board[center] == domain.Empty {
			return center, nil
		}
		free := make([]int, 0, len(corners))
		for _, c := range corners {
			if board[c] == domain.Empty {
				free = append(free, c)
			}
		}
		if len(free) > 0 {
			return free[b.rng.Intn(len(free))], nil
		}
	}

	moves := ScoreMoves(board, b.side)
	best := make([]int, 0, len(moves))
	top := moves[0].Score
	for _, m := range moves {
		switch {
		case m.Score > top:
			top = m.Score
			best = append(best[:0], m.Index)
		case m.Score == top:
			best = append(best, m.Index)
		}
	}
	return best[b.rng.Intn(len(best))], nil
}
