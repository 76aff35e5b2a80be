package run21

import (
	"time"

	"github.com/freerange/run21/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for events raised by the engine
const (
	EventTypeRoundStart EventType = "round_start"
	EventTypeScore      EventType = "score"
	EventTypeUndo       EventType = "undo"
	EventTypeGameOver   EventType = "game_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is any notification raised by the engine. Events are fire and
// forget; subscribers cannot veto or acknowledge them.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// RoundStartEvent is published when Reset deals a new round
type RoundStartEvent struct {
	Seed      int64
	DeckSize  int
	timestamp time.Time
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }
func (e RoundStartEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundStartEvent creates a new round start event
func NewRoundStartEvent(seed int64, deckSize int) RoundStartEvent {
	return RoundStartEvent{Seed: seed, DeckSize: deckSize, timestamp: time.Now()}
}

// ScoreEvent is published every time a card lands on a lane, whether or not
// the lane cleared. Deck holds a detached copy of the cards removed from the
// lane and is nil when the lane kept its cards.
type ScoreEvent struct {
	Lane             int
	Score            int
	IsBlackJack      bool
	IsValue21        bool
	IsFiveCardsScore bool
	IsBust           bool
	IsStreak         bool
	Streak           int
	Card             deck.Card
	Deck             *deck.Deck
	timestamp        time.Time
}

func (e ScoreEvent) EventType() EventType { return EventTypeScore }
func (e ScoreEvent) Timestamp() time.Time { return e.timestamp }

// Scored reports whether the lane cleared for points.
func (e ScoreEvent) Scored() bool {
	return e.IsBlackJack || e.IsValue21 || e.IsFiveCardsScore
}

// NewScoreEvent creates a score event for a lane evaluation. removed is
// cloned so later lane mutation is never visible through the event.
func NewScoreEvent(lane int, card deck.Card, outcome LaneOutcome, score, streak int, removed *deck.Deck) ScoreEvent {
	e := ScoreEvent{
		Lane:             lane,
		Score:            score,
		IsBlackJack:      outcome.IsBlackJack,
		IsValue21:        outcome.IsValue21,
		IsFiveCardsScore: outcome.IsFiveCard,
		IsBust:           outcome.IsBust,
		IsStreak:         outcome.Scores() && streak > 1,
		Streak:           streak,
		Card:             card,
		timestamp:        time.Now(),
	}
	if removed != nil {
		e.Deck = removed.Clone()
	}
	return e
}

// UndoEvent is published after the last move has been rolled back
type UndoEvent struct {
	GameScore int
	timestamp time.Time
}

func (e UndoEvent) EventType() EventType { return EventTypeUndo }
func (e UndoEvent) Timestamp() time.Time { return e.timestamp }

// NewUndoEvent creates a new undo event
func NewUndoEvent(gameScore int) UndoEvent {
	return UndoEvent{GameScore: gameScore, timestamp: time.Now()}
}

// GameOverEvent is published once when a round ends
type GameOverEvent struct {
	IsTimeExpired bool
	BustCount     int
	EmptyLanes    [NumLanes]bool
	PerfectScore  bool
	FinalScore    int
	timestamp     time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }

// NewGameOverEvent creates a new game over event
func NewGameOverEvent(timeExpired bool, busts int, emptyLanes [NumLanes]bool, perfect bool, finalScore int) GameOverEvent {
	return GameOverEvent{
		IsTimeExpired: timeExpired,
		BustCount:     busts,
		EmptyLanes:    emptyLanes,
		PerfectScore:  perfect,
		FinalScore:    finalScore,
		timestamp:     time.Now(),
	}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a function to EventSubscriber
type SubscriberFunc func(Event)

// OnEvent calls f(event)
func (f SubscriberFunc) OnEvent(event Event) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a synchronous in-memory event bus. Subscribers run on
// the publisher's goroutine in subscription order.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	if subscriber == nil {
		panic("run21: nil event subscriber")
	}
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events. Subscribers that
// are not comparable (such as SubscriberFunc) cannot be removed.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sameSubscriber(sub, subscriber) {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers. A nil event means the caller
// wiring is broken and panics.
func (bus *SimpleEventBus) Publish(event Event) {
	if event == nil {
		panic("run21: nil event published")
	}
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

func sameSubscriber(a, b EventSubscriber) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
