package history

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/gameid"
	"github.com/freerange/run21/internal/run21"
)

// Recorder journals the rounds played on a game. It subscribes to the
// game's event bus when created and starts a new History on every reset.
type Recorder struct {
	game   *run21.Game
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	current    *History
	onComplete func(*History)
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithLogger sets the recorder's logger
func WithLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNow overrides the wall clock used for StartedAt
func WithNow(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// OnComplete registers fn to receive a copy of every finished round
func OnComplete(fn func(*History)) RecorderOption {
	return func(r *Recorder) {
		r.onComplete = fn
	}
}

// NewRecorder starts journaling g from its current round.
func NewRecorder(g *run21.Game, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		game:   g,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("history")
	r.start()
	g.Events().Subscribe(r)
	return r
}

func (r *Recorder) start() {
	r.current = &History{
		ID:        gameid.Generate(),
		Seed:      r.game.Seed(),
		DeckSize:  r.game.DeckSize(),
		Scoring:   r.game.Scoring(),
		Limits:    r.game.Limits(),
		StartedAt: r.now().UTC(),
	}
}

// OnEvent implements run21.EventSubscriber
func (r *Recorder) OnEvent(event run21.Event) {
	r.mu.Lock()
	var done *History

	switch e := event.(type) {
	case run21.RoundStartEvent:
		r.start()
		r.logger.Debug("Recording round", "id", r.current.ID, "seed", e.Seed)

	case run21.ScoreEvent:
		r.current.Entries = append(r.current.Entries, Entry{
			Type:      EntryPlay,
			Lane:      e.Lane,
			Card:      e.Card.Notation(),
			Points:    e.Score,
			Bust:      e.IsBust,
			GameScore: r.game.Score().GameScore,
			PlayTime:  r.game.Score().PlayTime(),
		})

	case run21.UndoEvent:
		r.current.Entries = append(r.current.Entries, Entry{
			Type:      EntryUndo,
			GameScore: e.GameScore,
			PlayTime:  r.game.Score().PlayTime(),
		})

	case run21.GameOverEvent:
		s := r.game.Score()
		r.current.Final = &Final{
			FinalScore:  e.FinalScore,
			GameScore:   s.GameScore,
			Busts:       e.BustCount,
			PlayTime:    s.PlayTime(),
			TimeExpired: e.IsTimeExpired,
			Perfect:     e.PerfectScore,
		}
		r.logger.Debug("Round recorded", "id", r.current.ID, "entries", len(r.current.Entries), "finalScore", e.FinalScore)
		done = r.current.clone()
	}

	fn := r.onComplete
	r.mu.Unlock()

	if done != nil && fn != nil {
		fn(done)
	}
}

// RoundID returns the ID of the round being recorded
func (r *Recorder) RoundID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.ID
}

// History returns a copy of the round being recorded
func (r *Recorder) History() *History {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.clone()
}

func (h *History) clone() *History {
	c := *h
	c.Entries = append([]Entry(nil), h.Entries...)
	if h.Final != nil {
		f := *h.Final
		c.Final = &f
	}
	return &c
}
