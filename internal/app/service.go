package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/twipi/pubsub"
	"golang.org/x/exp/rand"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
	ErrNotAIGame   = errors.New("not a game against the computer")
)

// AIPlayer is the seat holder recorded for the computer opponent.
const AIPlayer = "ai"

// Score counts finished rounds of one game.
type Score struct {
	X     int
	O     int
	Draws int
}

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID         string
	Game       domain.Game
	Mode       Mode
	Difficulty search.Difficulty
	X          string
	O          string
	Score      Score
	Round      int
	Created    time.Time
	Updated    time.Time
	// Version counts broadcast changes.
	Version    int
}

// Seat returns the mark held by playerID, or Empty for spectators.
func (gs GameState) Seat(playerID string) domain.Cell {
	switch {
	case playerID == "":
		return domain.Empty
	case gs.X == playerID:
		return domain.X
	case gs.O == playerID:
		return domain.O
	default:
		return domain.Empty
	}
}

// BotSide is the mark played by the computer, Empty in friend games.
func (gs GameState) BotSide() domain.Cell {
	if gs.Mode != ModeAI {
		return domain.Empty
	}
	return gs.Seat(AIPlayer)
}

// subscriberBuffer holds a human move and the computer's answer.
const subscriberBuffer = 4

// subscriber receives snapshots of one game. The pubsub queue behind in is
// unbounded; pump moves snapshots into the bounded out and drops the
// subscriber once out is full.
type subscriber struct {
	in   chan GameState
	out  chan GameState
	done chan struct{}
	once sync.Once
}

func (sub *subscriber) stop() { sub.once.Do(func() { close(sub.done) }) }

type entry struct {
	mu    sync.Mutex
	state GameState
	bot   *search.Bot
	subs  map[*subscriber]struct{}
	dead  bool
}

// Service manages games and subscribers.
type Service struct {
	games *xsync.MapOf[string, *entry]
	log   zerolog.Logger
	now   func() time.Time

	updates chan GameState
	pub     *pubsub.Subscriber[GameState]

	aiDelay    time.Duration
	expiry     time.Duration
	sweepEvery time.Duration

	seedMu sync.Mutex
	seeds  *rand.Rand
}

type Option func(s *Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger }
}

// WithAIDelay makes the computer answer after d instead of immediately.
func WithAIDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.aiDelay = d
		}
	}
}

// WithExpiry deletes games idle for longer than ttl, checking every interval.
func WithExpiry(ttl, interval time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.expiry = ttl
		}
		if interval > 0 {
			s.sweepEvery = interval
		}
	}
}

// WithSeed makes computer moves reproducible. Zero keeps time-based seeding.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		if seed != 0 {
			s.seeds = rand.New(rand.NewSource(seed))
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an empty service. The computer answers immediately unless
// WithAIDelay says otherwise.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:      xsync.NewMapOf[string, *entry](),
		log:        zerolog.Nop(),
		now:        time.Now,
		expiry:     24 * time.Hour,
		sweepEvery: 10 * time.Minute,
		updates:    make(chan GameState),
		pub:        pubsub.NewSubscriber[GameState](),
	}
	for _, opt := range opts {
		opt(s)
	}
	// Runs for the life of the service; broadcastLocked feeds it.
	go s.pub.Listen(context.Background(), s.updates)
	return s
}

// lock returns the live entry for id with its mutex held.
func (s *Service) lock(id string) (*entry, error) {
	e, ok := s.games.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) newBot(side domain.Cell, d search.Difficulty) *search.Bot {
	if s.seeds == nil {
		return search.NewBot(side, d)
	}
	s.seedMu.Lock()
	seed := s.seeds.Uint64()
	s.seedMu.Unlock()
	return search.NewBot(side, d, search.WithSeed(seed))
}

// CreateGame creates and registers a new game. In AI mode the computer takes O.
func (s *Service) CreateGame(mode Mode, difficulty search.Difficulty) (*GameState, error) {
	if mode != ModeFriend && mode != ModeAI {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	now := s.now()
	e := &entry{
		state: GameState{
			ID:         uuid.NewString(),
			Game:       domain.New(),
			Mode:       mode,
			Difficulty: difficulty,
			Round:      1,
			Created:    now,
			Updated:    now,
		},
		subs: make(map[*subscriber]struct{}),
	}
	if mode == ModeAI {
		e.state.O = AIPlayer
		e.bot = s.newBot(domain.O, difficulty)
	}
	s.games.Store(e.state.ID, e)

	s.log.Debug().
		Str("game", e.state.ID).
		Str("mode", string(mode)).
		Stringer("difficulty", difficulty).
		Msg("game created")

	cp := e.state
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	e, err := s.lock(id)
	if err != nil {
		return nil, false
	}
	defer e.mu.Unlock()
	cp := e.state
	return &cp, true
}

// Len reports the number of live games.
func (s *Service) Len() int {
	return s.games.Size()
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
	e, err := s.lock(id)
	if err != nil {
		return domain.Empty, nil, err
	}
	defer e.mu.Unlock()

	gs := &e.state
	side := domain.Empty
	switch {
	case playerID == "" || playerID == AIPlayer:
	case gs.X == "" || gs.X == playerID:
		gs.X = playerID
		side = domain.X
	case gs.O == "" || gs.O == playerID:
		gs.O = playerID
		side = domain.O
	}
	gs.Updated = s.now()
	cp := *gs
	return side, &cp, nil
}

// Play validates seat and turn and applies a move at row r, column c.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	idx := r*3 + c
	if r < 0 || r > 2 || c < 0 || c > 2 {
		idx = -1
	}
	return s.PlayAt(id, playerID, idx)
}

// PlayAt validates seat and turn, applies a move at board index idx, updates
// timestamps and score, and broadcasts. In AI games the computer then answers,
// immediately or after the configured delay.
func (s *Service) PlayAt(id, playerID string, idx int) (*GameState, error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, err
	}

	seat := e.state.Seat(playerID)
	if seat == domain.Empty || playerID == AIPlayer {
		e.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if e.state.Game.Over {
		e.mu.Unlock()
		return nil, domain.ErrGameOver
	}
	if seat != e.state.Game.Turn {
		e.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	if err := e.state.Game.PlayAt(idx); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	s.afterMoveLocked(e, seat, idx)
	cp := s.broadcastLocked(e)
	botTurn := !cp.Game.Over && cp.BotSide() == cp.Game.Turn
	e.mu.Unlock()

	if botTurn {
		if s.aiDelay == 0 {
			if st, err := s.botMove(e, cp.Round); err == nil {
				cp = *st
			}
		} else {
			round := cp.Round
			time.AfterFunc(s.aiDelay, func() { _, _ = s.botMove(e, round) })
		}
	}
	return &cp, nil
}

// botMove lets the computer play if it is still its turn in the given round.
func (s *Service) botMove(e *entry, round int) (*GameState, error) {
	e.mu.Lock()
	gs := &e.state
	id := gs.ID
	if e.dead || e.bot == nil || gs.Round != round || gs.Game.Over || gs.Game.Turn != e.bot.Side() {
		e.mu.Unlock()
		return nil, search.ErrNotMyTurn
	}
	idx, err := e.bot.Choose(gs.Game.Board)
	if err == nil {
		err = gs.Game.PlayAt(idx)
	}
	if err != nil {
		e.mu.Unlock()
		s.log.Error().Err(err).Str("game", id).Msg("computer move failed")
		return nil, err
	}
	s.afterMoveLocked(e, e.bot.Side(), idx)
	cp := s.broadcastLocked(e)
	e.mu.Unlock()
	return &cp, nil
}

func (s *Service) afterMoveLocked(e *entry, by domain.Cell, idx int) {
	gs := &e.state
	gs.Updated = s.now()
	s.log.Debug().
		Str("game", gs.ID).
		Stringer("by", by).
		Int("index", idx).
		Msg("move played")

	if !gs.Game.Over {
		return
	}
	switch gs.Game.Winner {
	case domain.X:
		gs.Score.X++
	case domain.O:
		gs.Score.O++
	default:
		gs.Score.Draws++
	}
	s.log.Info().
		Str("game", gs.ID).
		Int("round", gs.Round).
		Stringer("outcome", gs.Game.Outcome()).
		Msg("round finished")
}

// Reset starts a new round with the same seats, mode and score. Only seated
// players may reset.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	if e.state.Seat(playerID) == domain.Empty || playerID == AIPlayer {
		e.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	e.state.Game = domain.New()
	e.state.Round++
	e.state.Updated = s.now()
	cp := s.broadcastLocked(e)
	e.mu.Unlock()

	s.log.Debug().Str("game", id).Int("round", cp.Round).Msg("round reset")
	return &cp, nil
}

// SetDifficulty changes the computer's strength for the following moves.
func (s *Service) SetDifficulty(id, playerID string, d search.Difficulty) (*GameState, error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	if e.state.Mode != ModeAI {
		e.mu.Unlock()
		return nil, ErrNotAIGame
	}
	if e.state.Seat(playerID) == domain.Empty || playerID == AIPlayer {
		e.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	e.state.Difficulty = d
	e.bot = s.newBot(e.bot.Side(), d)
	e.state.Updated = s.now()
	cp := s.broadcastLocked(e)
	e.mu.Unlock()
	return &cp, nil
}

// broadcastLocked bumps the version and publishes a snapshot to the game's
// subscribers. Callers hold e.mu, which keeps snapshots of one game in order.
func (s *Service) broadcastLocked(e *entry) GameState {
	e.state.Version++
	gs := e.state
	if len(e.subs) > 0 {
		s.updates <- gs
	}
	return gs
}

// Subscribe registers a subscriber for a game. The channel is closed when ctx
// ends, the returned unsubscribe func is called, the subscriber falls behind
// or the game expires.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan GameState, func(), error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, func() {}, err
	}
	sub := &subscriber{
		in:   make(chan GameState),
		out:  make(chan GameState, subscriberBuffer),
		done: make(chan struct{}),
	}
	since := e.state.Version
	s.pub.Subscribe(sub.in, func(gs GameState) bool { return gs.ID == id && gs.Version > since })
	e.subs[sub] = struct{}{}
	e.mu.Unlock()

	go s.pump(ctx, e, sub)
	return sub.out, sub.stop, nil
}

func (s *Service) pump(ctx context.Context, e *entry, sub *subscriber) {
	defer close(sub.out)
	defer s.detach(e, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case gs, ok := <-sub.in:
			if !ok {
				return
			}
			select {
			case sub.out <- gs:
			default:
				s.log.Debug().Str("game", gs.ID).Msg("dropped slow subscriber")
				return
			}
		}
	}
}

func (s *Service) detach(e *entry, sub *subscriber) {
	e.mu.Lock()
	delete(e.subs, sub)
	e.mu.Unlock()
	s.pub.Unsubscribe(sub.in)
}

// Sweep deletes games idle for longer than the expiry and returns how many
// were removed. Expired entries are marked dead first, so callers that loaded
// one before the delete get ErrNotFound.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.expiry)
	removed := 0
	s.games.Range(func(id string, e *entry) bool {
		e.mu.Lock()
		expired := !e.dead && e.state.Updated.Before(cutoff)
		var subs []*subscriber
		if expired {
			e.dead = true
			for sub := range e.subs {
				subs = append(subs, sub)
			}
			clear(e.subs)
		}
		e.mu.Unlock()
		if !expired {
			return true
		}
		s.games.Delete(id)
		for _, sub := range subs {
			s.pub.Unsubscribe(sub.in)
		}
		removed++
		s.log.Debug().Str("game", id).Msg("game expired, deleted")
		return true
	})
	return removed
}

// Start sweeps expired games until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info().Int("removed", n).Int("live", s.Len()).Msg("swept expired games")
			}
		}
	}
}
