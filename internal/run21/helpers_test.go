package run21

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/deck"
	"github.com/stretchr/testify/require"
)

// eventRecorder captures every published event
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnEvent(event Event) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) scores() []ScoreEvent {
	var out []ScoreEvent
	for _, e := range r.events {
		if se, ok := e.(ScoreEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

func (r *eventRecorder) gameOvers() []GameOverEvent {
	var out []GameOverEvent
	for _, e := range r.events {
		if ge, ok := e.(GameOverEvent); ok {
			out = append(out, ge)
		}
	}
	return out
}

func (r *eventRecorder) lastScore(t *testing.T) ScoreEvent {
	t.Helper()
	scores := r.scores()
	require.NotEmpty(t, scores)
	return scores[len(scores)-1]
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newTestGame returns a seeded game whose draw deck deals the cards in top
// (in order) before the rest of the deck.
func newTestGame(t *testing.T, top string, opts ...Option) (*Game, *eventRecorder) {
	t.Helper()
	opts = append([]Option{WithSeed(1), WithLogger(quietLogger())}, opts...)
	g := NewGame(DefaultScoring(), DefaultLimits(), opts...)
	rec := &eventRecorder{}
	g.Events().Subscribe(rec)
	stackDrawDeck(t, g, top)
	return g, rec
}

// stackDrawDeck reorders the draw deck so the given cards are drawn first.
func stackDrawDeck(t *testing.T, g *Game, top string) {
	t.Helper()
	want := deck.MustParseCards(top)

	var ordered []deck.Card
	for _, c := range g.drawDeck.Cards() {
		if !containsCard(want, c) {
			ordered = append(ordered, c)
		}
	}
	require.Equal(t, g.drawDeck.Count(), len(ordered)+len(want), "stacked cards must be unique and in the deck")
	for i := len(want) - 1; i >= 0; i-- {
		ordered = append(ordered, want[i])
	}
	g.drawDeck.CopyFrom(deck.FromCards(ordered...))
}

// rigDrawDeck replaces the whole draw deck with exactly the given cards.
func rigDrawDeck(g *Game, cards string) {
	want := deck.MustParseCards(cards)
	var ordered []deck.Card
	for i := len(want) - 1; i >= 0; i-- {
		ordered = append(ordered, want[i])
	}
	g.drawDeck.CopyFrom(deck.FromCards(ordered...))
	g.deckSize = len(want)
	g.remainingCards = len(want)
}

func containsCard(cards []deck.Card, c deck.Card) bool {
	for _, x := range cards {
		if x.Same(c) {
			return true
		}
	}
	return false
}

// play draws and plays one card per lane given
func play(g *Game, lanes ...int) {
	for _, lane := range lanes {
		g.DrawCard()
		g.PlayCard(lane)
	}
}
