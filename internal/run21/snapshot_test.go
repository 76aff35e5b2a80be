package run21

import (
	"testing"

	"github.com/freerange/run21/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boardCopy struct {
	draw, active *deck.Deck
	lanes        [NumLanes]*deck.Deck
}

func copyBoard(g *Game) boardCopy {
	b := boardCopy{draw: g.DrawDeck().Clone(), active: g.ActiveCardDeck().Clone()}
	for i := range NumLanes {
		b.lanes[i] = g.LaneDeck(i).Clone()
	}
	return b
}

func assertBoard(t *testing.T, want boardCopy, g *Game) {
	t.Helper()
	assert.True(t, want.draw.Equal(g.DrawDeck()), "draw deck")
	assert.True(t, want.active.Equal(g.ActiveCardDeck()), "active deck")
	for i := range NumLanes {
		assert.True(t, want.lanes[i].Equal(g.LaneDeck(i)), "lane %d", i)
	}
}

func TestUndoRestoresScoringMove(t *testing.T) {
	g, rec := newTestGame(t, "KsJcAh")

	play(g, 0, 1)
	g.DrawCard()
	require.Equal(t, 1, g.ScoredStreak())

	beforeBoard := copyBoard(g)
	beforeScore := g.Score().GameScore
	beforePlayed := g.CardsPlayed()

	g.PlayCard(0)
	require.Equal(t, 2, g.ScoredStreak())
	require.Greater(t, g.Score().GameScore, beforeScore)
	require.True(t, g.Snapshots().IsUndoLastMoveAvailable())

	require.True(t, g.UndoLastMove())

	assertBoard(t, beforeBoard, g)
	assert.Equal(t, beforeScore, g.Score().GameScore)
	assert.Equal(t, 1, g.ScoredStreak())
	assert.Equal(t, 1, g.ColumnsCleared())
	assert.Equal(t, beforePlayed, g.CardsPlayed())
	assert.Equal(t, g.DeckSize(), g.CardsAccountedFor())
	assert.Equal(t, ActiveCardReady, g.State())

	assert.False(t, g.UndoLastMove(), "only the last move can be undone")
	assert.False(t, g.Snapshots().IsUndoLastMoveAvailable())

	var undos int
	for _, e := range rec.events {
		if e.EventType() == EventTypeUndo {
			undos++
			assert.Equal(t, beforeScore, e.(UndoEvent).GameScore)
		}
	}
	assert.Equal(t, 1, undos)
}

func TestUndoRestoresBust(t *testing.T) {
	g, _ := newTestGame(t, "KsQh5d")

	play(g, 0, 0)
	g.DrawCard()
	beforeBoard := copyBoard(g)

	g.PlayCard(0)
	require.Equal(t, 1, g.Score().Busts())
	require.Equal(t, 3, g.BustedCardCount())

	require.True(t, g.UndoLastMove())

	assertBoard(t, beforeBoard, g)
	assert.Zero(t, g.Score().Busts())
	assert.Zero(t, g.BustedCardCount())
}

func TestUndoKeepsDeckReferences(t *testing.T) {
	g, _ := newTestGame(t, "9h")
	lane := g.LaneDeck(2)
	active := g.ActiveCardDeck()

	play(g, 2)
	require.Equal(t, 1, lane.Count())
	require.True(t, g.UndoLastMove())

	assert.Same(t, lane, g.LaneDeck(2))
	assert.Same(t, active, g.ActiveCardDeck())
	assert.True(t, lane.IsEmpty())
	assert.Equal(t, 1, active.Count())
}

func TestUndoDoesNotRewindPlayTime(t *testing.T) {
	g, _ := newTestGame(t, "9h")

	play(g, 0)
	g.SetPlayTime(42, false)
	require.True(t, g.UndoLastMove())

	assert.Equal(t, 42.0, g.Score().PlayTime())
}

func TestUndoUnavailableBeforeFirstMoveAndAfterGameOver(t *testing.T) {
	g, _ := newTestGame(t, "9h")
	assert.False(t, g.UndoLastMove())

	play(g, 0)
	g.EndGame()
	assert.False(t, g.UndoLastMove())
	assert.False(t, g.View().UndoAvailable)
}

func TestGameOverSuppressedDuringUndo(t *testing.T) {
	var (
		inProgress      bool
		availableDuring bool
		overDuring      bool
	)
	mgr := NewSnapshotManager(func(g *Game) {
		inProgress = g.Snapshots().IsUndoInProgress()
		availableDuring = g.Snapshots().IsUndoLastMoveAvailable()
		g.Score().SetPlayTime(g.Limits().MaxPlayTime)
		overDuring = g.CheckGameOver()
	})
	g, rec := newTestGame(t, "9h", WithSnapshotManager(mgr))

	play(g, 0)
	require.True(t, g.UndoLastMove())

	assert.True(t, inProgress)
	assert.False(t, availableDuring)
	assert.False(t, overDuring)
	assert.False(t, g.IsGameOver())
	assert.False(t, g.Snapshots().IsUndoInProgress())
	assert.Empty(t, rec.gameOvers())

	assert.True(t, g.CheckGameOver())
	require.Len(t, rec.gameOvers(), 1)
	assert.True(t, rec.gameOvers()[0].IsTimeExpired)
}

func TestTakeSnapshotReplacesCheckpoint(t *testing.T) {
	g, _ := newTestGame(t, "9h8h")

	play(g, 0)
	g.DrawCard()
	g.TakeSnapshot()
	board := copyBoard(g)

	g.PlayCard(1)
	require.True(t, g.UndoLastMove())
	assertBoard(t, board, g)

	g.PlayCard(1)
	g.Snapshots().Clear()
	assert.False(t, g.UndoLastMove())
}
