package search

import (
	"math"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// WinScore is the value of an immediate win. A win found d plies deep scores
// WinScore-d, a loss d-WinScore.
const WinScore = 100

// Stats collects counters from a search.
type Stats struct {
	Nodes int
}

type Option func(cfg *config)

type config struct {
	maxDepth int
	stats    *Stats
}

// WithMaxDepth stops the search after depth plies and scores the leaf with
// Evaluate. Zero means search to the end of the game.
func WithMaxDepth(depth int) Option {
	return func(cfg *config) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// WithStats records visited nodes into s.
func WithStats(s *Stats) Option {
	return func(cfg *config) {
		cfg.stats = s
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// AlphaBeta returns the best move for me using alpha-beta pruned minimax.
// Ties go to the lowest index.
func AlphaBeta(b domain.Board, me domain.Cell, opts ...Option) Move {
	cfg := newConfig(opts)
	return alphaBeta(&b, me, b.ToMove(), 0, math.MinInt, math.MaxInt, cfg)
}

// ScoreMoves scores every empty cell for me with a full window, so equal
// scores are exact and comparable. Cells are returned in ascending order.
func ScoreMoves(b domain.Board, me domain.Cell, opts ...Option) []Move {
	cfg := newConfig(opts)
	if b.Terminal() {
		return nil
	}
	turn := b.ToMove()
	moves := make([]Move, 0, len(b))
	for _, i := range b.Empty() {
		b[i] = turn
		child := alphaBeta(&b, me, turn.Opponent(), 1, math.MinInt, math.MaxInt, cfg)
		b[i] = domain.Empty
		moves = append(moves, Move{Index: i, Score: child.Score})
	}
	return moves
}

func alphaBeta(b *domain.Board, me, turn domain.Cell, depth, alpha, beta int, cfg *config) Move {
	if cfg.stats != nil {
		cfg.stats.Nodes++
	}
	if winner, _, ok := b.Winner(); ok {
		if winner == me {
			return Move{Index: -1, Score: WinScore - depth}
		}
		return Move{Index: -1, Score: depth - WinScore}
	}
	if b.Full() {
		return Move{Index: -1, Score: 0}
	}
	if cfg.maxDepth > 0 && depth >= cfg.maxDepth {
		return Move{Index: -1, Score: Evaluate(*b, me)}
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
		child := alphaBeta(b, me, turn.Opponent(), depth+1, alpha, beta, cfg)
		b[i] = domain.Empty

		if maximizing {
			if child.Score > best.Score {
				best = Move{Index: i, Score: child.Score}
			}
			alpha = max(alpha, best.Score)
		} else {
			if child.Score < best.Score {
				best = Move{Index: i, Score: child.Score}
			}
			beta = min(beta, best.Score)
		}
		if beta <= alpha {
			break
		}
	}
	return best
}
