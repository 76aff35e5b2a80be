package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/run21"
)

// Replay deals the recorded round again from its seed, applies every
// journaled move and checks that the engine arrives at the recorded
// result. It returns the replayed game, or nil when the recorded scoring
// or limits are unusable.
func Replay(h *History, logger *log.Logger) (*run21.Game, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("replay")

	limits := h.Limits
	if h.DeckSize > 0 {
		limits.DeckSize = h.DeckSize
	}
	if err := errors.Join(h.Scoring.Validate(), limits.Validate()); err != nil {
		return nil, fmt.Errorf("invalid history settings: %w", err)
	}
	g := run21.NewGame(h.Scoring, limits, run21.WithSeed(h.Seed), run21.WithLogger(logger))

	for i, e := range h.Entries {
		g.SetPlayTime(e.PlayTime, false)

		switch e.Type {
		case EntryPlay:
			if err := replayPlay(g, e); err != nil {
				return g, fmt.Errorf("entry %d: %w", i, err)
			}
		case EntryUndo:
			if !g.UndoLastMove() {
				return g, fmt.Errorf("entry %d: %w: nothing to undo", i, ErrMismatch)
			}
		default:
			return g, fmt.Errorf("entry %d: unknown entry type %q", i, e.Type)
		}

		if got := g.Score().GameScore; got != e.GameScore {
			return g, fmt.Errorf("entry %d: %w: game score %d, recorded %d", i, ErrMismatch, got, e.GameScore)
		}
	}

	if h.Final == nil {
		logger.Debug("History has no result, replayed moves only", "entries", len(h.Entries))
		return g, nil
	}

	g.SetPlayTime(h.Final.PlayTime, false)
	g.EndGame()

	if got := g.Score().FinalScore(); got != h.Final.FinalScore {
		return g, fmt.Errorf("%w: final score %d, recorded %d", ErrMismatch, got, h.Final.FinalScore)
	}
	logger.Debug("Replay verified", "finalScore", h.Final.FinalScore)
	return g, nil
}

// replayPlay draws the next card if none is active, then plays the
// recorded card onto its lane.
func replayPlay(g *run21.Game, e Entry) error {
	want, err := deck.ParseCards(e.Card)
	if err != nil || len(want) != 1 {
		return fmt.Errorf("bad card %q in history", e.Card)
	}

	g.DrawCard()
	card, ok := g.ActiveCard()
	if !ok {
		return fmt.Errorf("%w: card %s never drawn", ErrMismatch, e.Card)
	}
	if !card.Same(want[0]) {
		return fmt.Errorf("%w: active card %s, recorded %s", ErrMismatch, card.Notation(), e.Card)
	}

	g.PlayCard(e.Lane)
	return nil
}
