package run21

import (
	"fmt"

	"github.com/freerange/run21/internal/deck"
)

// CardValue returns the high and low point value of a card. Aces count 11
// high and 1 low; every other card has the same value both ways. An unknown
// rank means the deck is corrupt and panics.
func CardValue(c deck.Card) (high, low int) {
	switch c.Rank {
	case deck.Two, deck.Three, deck.Four, deck.Five, deck.Six, deck.Seven, deck.Eight, deck.Nine:
		return int(c.Rank), int(c.Rank)
	case deck.Ten, deck.Jack, deck.Queen, deck.King:
		return 10, 10
	case deck.Ace:
		return 11, 1
	default:
		panic(fmt.Sprintf("run21: card with unknown rank %d", c.Rank))
	}
}

// HiLowValue totals a lane both ways. Cards are added bottom to top and a
// card's high value is replaced by its low value whenever adding it would
// push the running high total past 21. The resolution is greedy: it never
// revisits an ace counted high earlier in the lane.
func HiLowValue(d *deck.Deck) (high, low int) {
	for _, c := range d.Cards() {
		h, l := CardValue(c)
		low += l
		if high+h > 21 {
			high += l
		} else {
			high += h
		}
	}
	return high, low
}

// LaneOutcome is the evaluation of a lane's contents.
type LaneOutcome struct {
	High        int  `json:"high"`
	Low         int  `json:"low"`
	IsBlackJack bool `json:"isBlackJack"`
	IsValue21   bool `json:"isValue21"`
	IsFiveCard  bool `json:"isFiveCard"`
	IsBust      bool `json:"isBust"`
}

// Scores reports whether the lane clears for points.
func (o LaneOutcome) Scores() bool {
	return o.IsBlackJack || o.IsValue21 || o.IsFiveCard
}

// EvaluateLane applies the lane rules to d without modifying it.
func EvaluateLane(d *deck.Deck) LaneOutcome {
	high, low := HiLowValue(d)
	top, _ := d.Top()
	o := LaneOutcome{
		High:        high,
		Low:         low,
		IsBlackJack: !d.IsEmpty() && top.IsBlackJack(),
		IsValue21:   high == 21 || low == 21,
		IsFiveCard:  d.Count() == 5 && low <= 21,
	}
	o.IsBust = !o.IsBlackJack && low > 21
	return o
}
