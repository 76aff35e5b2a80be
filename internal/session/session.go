// Package session runs a round against a clock.
//
// The engine is single threaded and measures time only through
// SetPlayTime. A Session owns the engine's lock, feeds elapsed wall time to
// it from a quartz ticker and serialises every other call made by a front
// end.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/freerange/run21/internal/run21"
)

// Session couples a game with a play clock
type Session struct {
	mu     sync.Mutex
	game   *run21.Game
	clock  quartz.Clock
	tick   time.Duration
	logger *log.Logger

	paused bool
	last   time.Time
	onTick func(run21.View)

	cancel context.CancelFunc
	ticker quartz.Waiter
}

// New creates a session. The clock does not run until Start is called.
func New(game *run21.Game, clock quartz.Clock, tick time.Duration, logger *log.Logger) *Session {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		game:   game,
		clock:  clock,
		tick:   tick,
		logger: logger.WithPrefix("session"),
	}
}

// OnTick registers fn to receive the board after every clock tick that
// advanced play time. fn runs without the session lock held.
func (s *Session) OnTick(fn func(run21.View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = fn
}

// Start runs the play clock until ctx is done or Stop is called.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.last = s.clock.Now()
	s.ticker = s.clock.TickerFunc(ctx, s.tick, s.onClockTick, "session", "tick")
	s.logger.Debug("Clock started", "tick", s.tick)
}

// Stop halts the play clock and waits for an in-flight tick to finish.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, ticker := s.cancel, s.ticker
	s.cancel, s.ticker = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = ticker.Wait()
	s.logger.Debug("Clock stopped")
}

func (s *Session) onClockTick() error {
	s.mu.Lock()
	now := s.clock.Now()
	delta := now.Sub(s.last)
	s.last = now
	if s.paused || s.game.IsGameOver() {
		s.mu.Unlock()
		return nil
	}
	s.game.SetPlayTime(delta.Seconds(), true)
	view := s.game.View()
	fn := s.onTick
	s.mu.Unlock()

	if fn != nil {
		fn(view)
	}
	return nil
}

// Pause stops play time from accumulating.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume continues accumulating play time from now.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.last = s.clock.Now()
}

// Paused reports whether the clock is paused
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Do runs fn with exclusive access to the game and returns the resulting
// board. Event subscribers are invoked from inside fn and must not call
// back into the session.
func (s *Session) Do(fn func(g *run21.Game)) run21.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
	return s.game.View()
}

// Reset deals a new round and restarts the time measurement.
func (s *Session) Reset(seed *int64) run21.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.Reset(seed)
	s.last = s.clock.Now()
	s.paused = false
	s.logger.Debug("Round reset", "seed", s.game.Seed())
	return s.game.View()
}

// View returns the current board
func (s *Session) View() run21.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.View()
}
