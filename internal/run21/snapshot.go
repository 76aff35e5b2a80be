package run21

import (
	"github.com/freerange/run21/internal/deck"
)

// Snapshot is a detached copy of everything a move can change: the decks,
// the confirmed score and bust count, and the round counters.
type Snapshot struct {
	drawDeck   *deck.Deck
	activeDeck *deck.Deck
	lanes      [NumLanes]*deck.Deck
	score      scoreState

	cardsPlayed     int
	remainingCards  int
	bustedCardCount int
	scoredCardCount int
	scoredStreak    int
	bestStreak      int
	columnsCleared  int
}

func (g *Game) capture() *Snapshot {
	s := &Snapshot{
		drawDeck:        g.drawDeck.Clone(),
		activeDeck:      g.activeDeck.Clone(),
		score:           g.score.state(),
		cardsPlayed:     g.cardsPlayed,
		remainingCards:  g.remainingCards,
		bustedCardCount: g.bustedCardCount,
		scoredCardCount: g.scoredCardCount,
		scoredStreak:    g.scoredStreak,
		bestStreak:      g.bestStreak,
		columnsCleared:  g.columnsCleared,
	}
	for i, lane := range g.lanes {
		s.lanes[i] = lane.Clone()
	}
	return s
}

// restore copies the snapshot into g's existing decks so references held
// by callers stay valid.
func (s *Snapshot) restore(g *Game) {
	g.drawDeck.CopyFrom(s.drawDeck)
	g.activeDeck.CopyFrom(s.activeDeck)
	for i, lane := range g.lanes {
		lane.CopyFrom(s.lanes[i])
	}
	g.score.restore(s.score)
	g.cardsPlayed = s.cardsPlayed
	g.remainingCards = s.remainingCards
	g.bustedCardCount = s.bustedCardCount
	g.scoredCardCount = s.scoredCardCount
	g.scoredStreak = s.scoredStreak
	g.bestStreak = s.bestStreak
	g.columnsCleared = s.columnsCleared
}

// SnapshotManager keeps the single checkpoint that the most recent move can
// be undone to.
type SnapshotManager struct {
	last      *Snapshot
	undoing   bool
	onRestore func(*Game)
}

// NewSnapshotManager creates a manager. onRestore, if not nil, is called
// after a snapshot has been applied and before the undo completes, so a
// presentation layer can resync its view of the board.
func NewSnapshotManager(onRestore func(*Game)) *SnapshotManager {
	return &SnapshotManager{onRestore: onRestore}
}

// TakeSnapshot replaces the retained checkpoint with the current state of g.
func (m *SnapshotManager) TakeSnapshot(g *Game) {
	m.last = g.capture()
}

func (m *SnapshotManager) retain(s *Snapshot) {
	m.last = s
}

// IsUndoLastMoveAvailable reports whether a checkpoint is retained and no
// undo is being applied.
func (m *SnapshotManager) IsUndoLastMoveAvailable() bool {
	return m.last != nil && !m.undoing
}

// IsUndoInProgress reports whether an undo is currently being applied.
func (m *SnapshotManager) IsUndoInProgress() bool {
	return m.undoing
}

// UndoLastMove restores g to the retained checkpoint and discards it, so a
// second call without an intervening move reports false.
func (m *SnapshotManager) UndoLastMove(g *Game) bool {
	if !m.IsUndoLastMoveAvailable() {
		return false
	}

	m.undoing = true
	defer func() { m.undoing = false }()

	snap := m.last
	m.last = nil
	snap.restore(g)

	if m.onRestore != nil {
		m.onRestore(g)
	}
	return true
}

// Clear discards the retained checkpoint.
func (m *SnapshotManager) Clear() {
	m.last = nil
}
