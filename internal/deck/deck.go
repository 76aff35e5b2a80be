package deck

import (
	rand "math/rand/v2"
)

// StandardSize is the number of cards in a full deck.
const StandardSize = 52

// Deck is an ordered pile of cards. The top of the pile is the last card
// in the underlying slice, so push and pop never shift the rest.
type Deck struct {
	cards []Card
}

// New creates an empty deck
func New() *Deck {
	return &Deck{cards: make([]Card, 0, StandardSize)}
}

// NewStandardDeck creates a new unshuffled 52-card deck, face down
func NewStandardDeck() *Deck {
	d := New()
	d.Fill()
	return d
}

// FromCards creates a deck holding a copy of cards. The last card is on top.
func FromCards(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards), max(len(cards), StandardSize))}
	copy(d.cards, cards)
	return d
}

// Fill replaces the contents with all 52 cards
func (d *Deck) Fill() {
	d.cards = d.cards[:0] // Clear the slice but keep capacity

	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// Shuffle randomizes the order of cards using Fisher-Yates. A nil rng
// falls back to the global (non-deterministic) source.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Count returns the number of cards in the deck
func (d *Deck) Count() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Top returns the top card without removing it from the deck
func (d *Deck) Top() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[len(d.cards)-1], true
}

// Push places a card on top of the deck
func (d *Deck) Push(card Card) {
	d.cards = append(d.cards, card)
}

// Pop removes and returns the top card
func (d *Deck) Pop() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, true
}

// MoveTopTo moves the top card onto other. It reports false when d is empty.
func (d *Deck) MoveTopTo(other *Deck) bool {
	card, ok := d.Pop()
	if !ok {
		return false
	}
	other.Push(card)
	return true
}

// SetTopFaceUp turns the top card face up or face down
func (d *Deck) SetTopFaceUp(up bool) {
	if len(d.cards) == 0 {
		return
	}
	d.cards[len(d.cards)-1].FaceUp = up
}

// Clear removes every card
func (d *Deck) Clear() {
	d.cards = d.cards[:0]
}

// Clone returns an independent copy of the deck
func (d *Deck) Clone() *Deck {
	return FromCards(d.cards...)
}

// CopyFrom replaces the contents of d with a copy of src's cards
func (d *Deck) CopyFrom(src *Deck) {
	d.cards = append(d.cards[:0], src.cards...)
}

// Cards returns a copy of the cards, bottom first
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Equal reports whether both decks hold the same cards in the same order
func (d *Deck) Equal(other *Deck) bool {
	if len(d.cards) != len(other.cards) {
		return false
	}
	for i := range d.cards {
		if d.cards[i] != other.cards[i] {
			return false
		}
	}
	return true
}

// String renders the deck bottom to top, e.g. "[A♠ 9♥]"
func (d *Deck) String() string {
	return FormatCards(d.cards)
}
