// Package bot provides automated players that pick a lane for the active
// card.
package bot

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sort"

	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/run21"
)

// ErrUnknownStrategy is returned by New for an unrecognised strategy name
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy chooses the lane the active card is played on
type Strategy interface {
	Name() string
	ChooseLane(view run21.View) int
}

var strategies = map[string]func(rng *rand.Rand) Strategy{
	"random": func(rng *rand.Rand) Strategy { return NewRandom(rng) },
	"safe":   func(*rand.Rand) Strategy { return Safe{} },
	"greedy": func(*rand.Rand) Strategy { return Greedy{} },
}

// New returns the strategy registered under name
func New(name string, rng *rand.Rand) (Strategy, error) {
	mk, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return mk(rng), nil
}

// Names lists the registered strategy names in sorted order
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Random plays every card on a uniformly random lane
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random strategy. A nil rng uses the global source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Name() string { return "random" }

func (r *Random) ChooseLane(run21.View) int {
	if r.rng == nil {
		return rand.IntN(run21.NumLanes)
	}
	return r.rng.IntN(run21.NumLanes)
}

// Safe plays on the first lane the card does not bust
type Safe struct{}

func (Safe) Name() string { return "safe" }

func (Safe) ChooseLane(view run21.View) int {
	card, ok := activeCard(view)
	if !ok {
		return 0
	}
	for lane := range run21.NumLanes {
		if !run21.PreviewPlay(card, laneDeck(view, lane)).IsBust {
			return lane
		}
	}
	return 0
}

// Greedy clears a lane whenever it can, otherwise builds the lane whose
// total gets closest to 21 without busting.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) ChooseLane(view run21.View) int {
	card, ok := activeCard(view)
	if !ok {
		return 0
	}

	best, bestRank := 0, -1
	for lane := range run21.NumLanes {
		rank := rankPlay(run21.PreviewPlay(card, laneDeck(view, lane)))
		if rank > bestRank {
			best, bestRank = lane, rank
		}
	}
	return best
}

// rankPlay orders outcomes: any clear beats any build, builds are ranked by
// the resulting total and busts come last.
func rankPlay(o run21.LaneOutcome) int {
	switch {
	case o.Scores():
		return 100
	case o.IsBust:
		return 0
	case o.High <= 21:
		return o.High
	default:
		return o.Low
	}
}

func activeCard(view run21.View) (deck.Card, bool) {
	if view.ActiveCard == nil {
		return deck.Card{}, false
	}
	return *view.ActiveCard, true
}

func laneDeck(view run21.View, lane int) *deck.Deck {
	return deck.FromCards(view.Lanes[lane].Cards...)
}
