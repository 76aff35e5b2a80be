package run21

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/randutil"
)

// State is the conceptual phase of a round.
type State int

const (
	AwaitingDraw State = iota
	ActiveCardReady
	AwaitingGameOver
	GameOver
)

// String returns the string representation of a state
func (s State) String() string {
	switch s {
	case AwaitingDraw:
		return "awaiting_draw"
	case ActiveCardReady:
		return "active_card_ready"
	case AwaitingGameOver:
		return "awaiting_game_over"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Game is the 21 Run rules engine. It is not safe for concurrent use.
type Game struct {
	scoring   Scoring
	limits    Limits
	logger    *log.Logger
	bus       EventBus
	snapshots *SnapshotManager

	drawDeck   *deck.Deck
	activeDeck *deck.Deck
	lanes      [NumLanes]*deck.Deck
	score      *Score

	seed     int64
	deckSize int

	cardsPlayed     int
	remainingCards  int
	bustedCardCount int
	scoredCardCount int
	scoredStreak    int
	bestStreak      int
	columnsCleared  int
	isGameOver      bool
}

// Option configures a Game
type Option func(*Game)

// WithLogger sets the logger used for engine diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithEventBus publishes engine events on bus instead of a private bus
func WithEventBus(bus EventBus) Option {
	return func(g *Game) {
		if bus != nil {
			g.bus = bus
		}
	}
}

// WithSnapshotManager uses m for undo checkpoints
func WithSnapshotManager(m *SnapshotManager) Option {
	return func(g *Game) {
		if m != nil {
			g.snapshots = m
		}
	}
}

// WithSeed deals the first round from seed
func WithSeed(seed int64) Option {
	return func(g *Game) {
		g.seed = seed
	}
}

// NewGame creates an engine and deals its first round. Without WithSeed the
// first round is shuffled from a fresh random seed.
func NewGame(scoring Scoring, limits Limits, opts ...Option) *Game {
	g := &Game{
		scoring:    scoring,
		limits:     limits,
		logger:     log.New(io.Discard),
		bus:        NewEventBus(),
		snapshots:  NewSnapshotManager(nil),
		drawDeck:   deck.New(),
		activeDeck: deck.New(),
		score:      NewScore(scoring, limits),
		seed:       randutil.NewSeed(),
	}
	for i := range g.lanes {
		g.lanes[i] = deck.New()
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.WithPrefix("engine")

	seed := g.seed
	g.Reset(&seed)
	return g
}

// Events returns the bus engine events are published on
func (g *Game) Events() EventBus {
	return g.bus
}

// Snapshots returns the undo checkpoint manager
func (g *Game) Snapshots() *SnapshotManager {
	return g.snapshots
}

// Reset deals a new round without reallocating the engine. A non-nil seed
// deals a deterministic deck; nil shuffles from a fresh random seed.
func (g *Game) Reset(seed *int64) {
	if seed != nil {
		g.seed = *seed
	} else {
		g.seed = randutil.NewSeed()
	}

	g.activeDeck.Clear()
	for _, lane := range g.lanes {
		lane.Clear()
	}
	g.drawDeck.Fill()
	g.drawDeck.Shuffle(randutil.New(g.seed))
	for g.drawDeck.Count() > g.limits.DeckSize {
		g.drawDeck.Pop()
	}

	g.deckSize = g.drawDeck.Count()
	g.score.Reset()
	g.cardsPlayed = 0
	g.remainingCards = g.deckSize
	g.bustedCardCount = 0
	g.scoredCardCount = 0
	g.scoredStreak = 0
	g.bestStreak = 0
	g.columnsCleared = 0
	g.isGameOver = false
	g.snapshots.Clear()

	g.logger.Debug("Round reset", "seed", g.seed, "deckSize", g.deckSize)
	g.bus.Publish(NewRoundStartEvent(g.seed, g.deckSize))
}

// DrawCard turns the top card of the draw deck face up onto the active
// card pile. It does nothing once the round is over, while a card is
// already active, or when the deck is empty.
func (g *Game) DrawCard() {
	if g.isGameOver {
		g.logger.Debug("Draw ignored after game over")
		return
	}
	if !g.activeDeck.IsEmpty() {
		g.logger.Debug("Draw ignored, card already active")
		return
	}
	if !g.drawDeck.MoveTopTo(g.activeDeck) {
		g.logger.Debug("Draw ignored, draw deck empty")
		return
	}
	g.activeDeck.SetTopFaceUp(true)

	card, _ := g.activeDeck.Top()
	g.logger.Debug("Card drawn", "card", card, "remaining", g.drawDeck.Count())
}

// PlayCard moves the active card onto lane and evaluates it. Out of range
// lanes, a missing active card and calls after game over are ignored.
func (g *Game) PlayCard(lane int) {
	if g.isGameOver {
		g.logger.Debug("Play ignored after game over", "lane", lane)
		return
	}
	if lane < 0 || lane >= NumLanes {
		g.logger.Debug("Play ignored, lane out of range", "lane", lane)
		return
	}
	if g.activeDeck.IsEmpty() {
		g.logger.Debug("Play ignored, no active card", "lane", lane)
		return
	}

	checkpoint := g.capture()

	g.activeDeck.MoveTopTo(g.lanes[lane])
	g.cardsPlayed++
	g.remainingCards--
	g.snapshots.retain(checkpoint)

	g.CheckLaneDeck(lane)
	g.CheckGameOver()
}

// CheckLaneDeck evaluates lane after a card has been played on it, clears
// it when it scores or busts, updates the streak and publishes a ScoreEvent.
// Out of range or empty lanes and calls after game over are ignored and
// report false.
func (g *Game) CheckLaneDeck(lane int) (ScoreEvent, bool) {
	if g.isGameOver {
		g.logger.Debug("Lane check ignored after game over", "lane", lane)
		return ScoreEvent{}, false
	}
	if lane < 0 || lane >= NumLanes {
		g.logger.Debug("Lane check ignored, lane out of range", "lane", lane)
		return ScoreEvent{}, false
	}
	laneDeck := g.lanes[lane]
	if laneDeck.IsEmpty() {
		g.logger.Debug("Lane check ignored, lane empty", "lane", lane)
		return ScoreEvent{}, false
	}
	card, _ := laneDeck.Top()
	outcome := EvaluateLane(laneDeck)

	var (
		points  int
		removed *deck.Deck
	)

	switch {
	case outcome.Scores():
		g.scoredStreak++
		g.bestStreak = max(g.bestStreak, g.scoredStreak)
		g.columnsCleared++
		points = g.score.ScoreLaneDeck(outcome.IsValue21, outcome.IsBlackJack, outcome.IsFiveCard, g.scoredStreak)
		removed = laneDeck.Clone()
		g.scoredCardCount += laneDeck.Count()
		laneDeck.Clear()
		g.logger.Debug("Lane scored", "lane", lane, "points", points, "streak", g.scoredStreak,
			"run21", outcome.IsValue21, "blackjack", outcome.IsBlackJack, "fiveCard", outcome.IsFiveCard)

	case outcome.IsBust:
		g.score.AddBust()
		removed = laneDeck.Clone()
		g.bustedCardCount += laneDeck.Count()
		laneDeck.Clear()
		g.scoredStreak = 0
		g.logger.Debug("Lane bust", "lane", lane, "low", outcome.Low, "busts", g.score.Busts())

	default:
		g.scoredStreak = 0
	}

	event := NewScoreEvent(lane, card, outcome, points, g.scoredStreak, removed)
	g.bus.Publish(event)
	return event, true
}

// CheckGameOver ends the round when the bust limit is reached, every card
// has been played, or time has run out. It reports whether the round is
// over. Checks made while an undo is being applied are suppressed.
func (g *Game) CheckGameOver() bool {
	if g.isGameOver {
		return true
	}
	if g.snapshots.IsUndoInProgress() {
		return false
	}

	outOfCards := g.activeDeck.IsEmpty() && g.drawDeck.IsEmpty() && g.cardsPlayed > 0
	if g.score.Busts() >= g.limits.MaxBusts || outOfCards || g.score.IsTimeExpired() {
		g.finish()
		return true
	}
	return false
}

// EndGame ends the round at the player's request. It has no effect if the
// round is already over.
func (g *Game) EndGame() {
	if g.isGameOver {
		return
	}
	g.logger.Debug("Round ended by player")
	g.finish()
}

func (g *Game) finish() {
	g.isGameOver = true
	final := g.score.CalculateFinalScore(g)

	var empty [NumLanes]bool
	for i, lane := range g.lanes {
		empty[i] = lane.IsEmpty()
	}

	g.logger.Debug("Game over",
		"finalScore", final,
		"busts", g.score.Busts(),
		"timeExpired", g.score.IsTimeExpired(),
		"perfect", g.score.IsPerfectGame())

	g.bus.Publish(NewGameOverEvent(g.score.IsTimeExpired(), g.score.Busts(), empty, g.score.IsPerfectGame(), final))
}

// SetPlayTime sets the elapsed round time, or adds to it when isDelta is
// true, then checks whether time has run out.
func (g *Game) SetPlayTime(seconds float64, isDelta bool) {
	if g.isGameOver {
		return
	}
	if isDelta {
		seconds += g.score.PlayTime()
	}
	g.score.SetPlayTime(seconds)
	g.CheckGameOver()
}

// IsCardCausingDeckBust reports whether playing card onto laneDeck would
// bust it. laneDeck is not modified.
func (g *Game) IsCardCausingDeckBust(card deck.Card, laneDeck *deck.Deck) bool {
	return PreviewPlay(card, laneDeck).IsBust
}

// PreviewPlay evaluates laneDeck as if card had been played on it.
func PreviewPlay(card deck.Card, laneDeck *deck.Deck) LaneOutcome {
	trial := laneDeck.Clone()
	trial.Push(card)
	return EvaluateLane(trial)
}

// UndoLastMove rolls back the most recent PlayCard. It reports false when
// there is nothing to undo or the round is over.
func (g *Game) UndoLastMove() bool {
	if g.isGameOver {
		return false
	}
	if !g.snapshots.UndoLastMove(g) {
		return false
	}
	g.logger.Debug("Move undone", "gameScore", g.score.GameScore, "streak", g.scoredStreak)
	g.bus.Publish(NewUndoEvent(g.score.GameScore))
	return true
}

// TakeSnapshot stores the current state as the undo checkpoint.
func (g *Game) TakeSnapshot() {
	g.snapshots.TakeSnapshot(g)
}

// State returns the phase of the round.
func (g *Game) State() State {
	switch {
	case g.isGameOver:
		return GameOver
	case !g.activeDeck.IsEmpty():
		return ActiveCardReady
	case g.drawDeck.IsEmpty():
		return AwaitingGameOver
	default:
		return AwaitingDraw
	}
}

func (g *Game) Scoring() Scoring { return g.scoring }
func (g *Game) Limits() Limits { return g.limits }
func (g *Game) Score() *Score { return g.score }
func (g *Game) Seed() int64 { return g.seed }
func (g *Game) DeckSize() int { return g.deckSize }
func (g *Game) DrawDeck() *deck.Deck { return g.drawDeck }
func (g *Game) ActiveCardDeck() *deck.Deck { return g.activeDeck }
func (g *Game) CardsPlayed() int { return g.cardsPlayed }
func (g *Game) RemainingCards() int { return g.remainingCards }
func (g *Game) BustedCardCount() int { return g.bustedCardCount }
func (g *Game) ScoredCardCount() int { return g.scoredCardCount }
func (g *Game) ScoredStreak() int { return g.scoredStreak }
func (g *Game) BestStreak() int { return g.bestStreak }
func (g *Game) ColumnsCleared() int { return g.columnsCleared }
func (g *Game) IsGameOver() bool { return g.isGameOver }

// LaneDeck returns the live deck for lane, or nil when lane is out of range.
func (g *Game) LaneDeck(lane int) *deck.Deck {
	if lane < 0 || lane >= NumLanes {
		return nil
	}
	return g.lanes[lane]
}

// ActiveCard returns the card waiting to be played.
func (g *Game) ActiveCard() (deck.Card, bool) {
	return g.activeDeck.Top()
}

// CardsAccountedFor totals every card in play or removed this round. It
// always equals DeckSize.
func (g *Game) CardsAccountedFor() int {
	n := g.drawDeck.Count() + g.activeDeck.Count() + g.bustedCardCount + g.scoredCardCount
	for _, lane := range g.lanes {
		n += lane.Count()
	}
	return n
}
