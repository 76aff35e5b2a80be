package run21

import (
	"testing"

	"github.com/freerange/run21/internal/deck"
	"github.com/freerange/run21/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameDealsFullDeck(t *testing.T) {
	g := NewGame(DefaultScoring(), DefaultLimits(), WithLogger(quietLogger()))

	assert.Equal(t, 52, g.DeckSize())
	assert.Equal(t, 52, g.DrawDeck().Count())
	assert.Equal(t, 52, g.RemainingCards())
	assert.Equal(t, AwaitingDraw, g.State())
	assert.False(t, g.IsGameOver())
	assert.False(t, g.Snapshots().IsUndoLastMoveAvailable())
}

func TestResetWithSeedIsDeterministic(t *testing.T) {
	seed := int64(2024)
	a := NewGame(DefaultScoring(), DefaultLimits(), WithSeed(seed))
	b := NewGame(DefaultScoring(), DefaultLimits())
	b.Reset(&seed)

	assert.True(t, a.DrawDeck().Equal(b.DrawDeck()))
	assert.Equal(t, seed, b.Seed())

	other := seed + 1
	b.Reset(&other)
	assert.False(t, a.DrawDeck().Equal(b.DrawDeck()))
}

func TestResetClearsRound(t *testing.T) {
	g, _ := newTestGame(t, "KsJc5h")
	play(g, 0, 1)
	g.DrawCard()
	require.True(t, g.Snapshots().IsUndoLastMoveAvailable())

	g.Reset(nil)

	assert.Equal(t, 52, g.DrawDeck().Count())
	assert.True(t, g.ActiveCardDeck().IsEmpty())
	for i := range NumLanes {
		assert.True(t, g.LaneDeck(i).IsEmpty())
	}
	assert.Zero(t, g.Score().GameScore)
	assert.Zero(t, g.CardsPlayed())
	assert.Zero(t, g.ColumnsCleared())
	assert.False(t, g.Snapshots().IsUndoLastMoveAvailable())
}

func TestDrawCardTurnsCardFaceUp(t *testing.T) {
	g, _ := newTestGame(t, "9h")

	g.DrawCard()

	card, ok := g.ActiveCard()
	require.True(t, ok)
	assert.True(t, card.Same(deck.NewCard(deck.Hearts, deck.Nine)))
	assert.True(t, card.FaceUp)
	assert.Equal(t, 51, g.DrawDeck().Count())
	assert.Equal(t, ActiveCardReady, g.State())
}

func TestPlayCardIgnoresInvalidCalls(t *testing.T) {
	g, rec := newTestGame(t, "9h")

	g.PlayCard(0) // nothing drawn yet
	assert.Zero(t, g.CardsPlayed())

	g.DrawCard()
	g.PlayCard(-1)
	g.PlayCard(NumLanes)
	assert.Zero(t, g.CardsPlayed())
	assert.Equal(t, 1, g.ActiveCardDeck().Count())
	assert.Empty(t, rec.scores())
	assert.Nil(t, g.LaneDeck(NumLanes))
}

func TestDrawCardIgnoredWhileCardActive(t *testing.T) {
	g, _ := newTestGame(t, "9h5c")

	g.DrawCard()
	g.DrawCard()

	assert.Equal(t, 1, g.ActiveCardDeck().Count())
	card, ok := g.ActiveCard()
	require.True(t, ok)
	assert.True(t, card.Same(deck.NewCard(deck.Hearts, deck.Nine)))
	assert.Equal(t, 51, g.DrawDeck().Count())
	assert.Equal(t, ActiveCardReady, g.State())

	g.PlayCard(0)
	g.DrawCard()
	card, ok = g.ActiveCard()
	require.True(t, ok)
	assert.True(t, card.Same(deck.NewCard(deck.Clubs, deck.Five)))
}

func TestCheckLaneDeckIgnoresInvalidCalls(t *testing.T) {
	g, rec := newTestGame(t, "9h")

	tests := []struct {
		name string
		lane int
	}{
		{"negative lane", -1},
		{"lane past the end", NumLanes},
		{"empty lane", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := g.CheckLaneDeck(tt.lane)
			assert.False(t, ok)
			assert.Empty(t, rec.scores())
		})
	}

	play(g, 1)
	ev, ok := g.CheckLaneDeck(1)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Lane)

	g.EndGame()
	count := len(rec.scores())
	_, ok = g.CheckLaneDeck(1)
	assert.False(t, ok)
	assert.Len(t, rec.scores(), count)
}

func TestPlayCardWithoutScore(t *testing.T) {
	g, rec := newTestGame(t, "9h")

	play(g, 2)

	ev := rec.lastScore(t)
	assert.Equal(t, 2, ev.Lane)
	assert.Zero(t, ev.Score)
	assert.False(t, ev.Scored())
	assert.False(t, ev.IsBust)
	assert.Nil(t, ev.Deck)
	assert.Equal(t, 1, g.LaneDeck(2).Count())
	assert.Equal(t, 1, g.CardsPlayed())
	assert.Equal(t, 51, g.RemainingCards())
	assert.Equal(t, AwaitingDraw, g.State())
}

func TestAcesResolveTo21(t *testing.T) {
	g, rec := newTestGame(t, "AsAh9c")

	play(g, 0, 0, 0)

	ev := rec.lastScore(t)
	assert.True(t, ev.IsValue21)
	assert.False(t, ev.IsBust)
	assert.Positive(t, ev.Score)
	require.NotNil(t, ev.Deck)
	assert.Equal(t, 3, ev.Deck.Count())
	assert.True(t, g.LaneDeck(0).IsEmpty())
	assert.Equal(t, 1, g.ColumnsCleared())
	assert.Equal(t, ev.Score, g.Score().GameScore)
}

func TestBustClearsLaneAndResetsStreak(t *testing.T) {
	g, rec := newTestGame(t, "KsQhJc5d")

	play(g, 0, 0, 3)
	require.Equal(t, 1, g.ScoredStreak())

	play(g, 0)

	ev := rec.lastScore(t)
	assert.True(t, ev.IsBust)
	assert.Zero(t, ev.Score)
	require.NotNil(t, ev.Deck)
	assert.Equal(t, 3, ev.Deck.Count())
	assert.Equal(t, 1, g.Score().Busts())
	assert.Equal(t, 3, g.BustedCardCount())
	assert.Equal(t, 0, g.ScoredStreak())
	assert.True(t, g.LaneDeck(0).IsEmpty())
}

func TestFiveCardScore(t *testing.T) {
	g, rec := newTestGame(t, "2s3s2h3h2d")
	sc := g.Scoring()

	play(g, 1, 1, 1, 1, 1)

	ev := rec.lastScore(t)
	assert.True(t, ev.IsFiveCardsScore)
	assert.False(t, ev.IsValue21)
	assert.Equal(t, sc.FiveCardBonus+sc.GoodStreakBonus, ev.Score)
	assert.True(t, g.LaneDeck(1).IsEmpty())
}

func TestBlackJackScoresRegardlessOfTotal(t *testing.T) {
	g, rec := newTestGame(t, "KhQhJs")
	sc := g.Scoring()

	play(g, 0, 0, 0)

	ev := rec.lastScore(t)
	assert.True(t, ev.IsBlackJack)
	assert.False(t, ev.IsBust)
	assert.Equal(t, sc.BlackJackBonus+sc.GoodStreakBonus, ev.Score)
	assert.Zero(t, g.Score().Busts())
}

func TestStreakTiers(t *testing.T) {
	// Fill every lane to 20, then finish each with an ace and close with a
	// black jack so five clears happen back to back.
	g, rec := newTestGame(t, "KsQsKhQhKdQdKcQcAsAhAdAcJc")
	sc := g.Scoring()

	play(g, 0, 0, 1, 1, 2, 2, 3, 3)
	require.Zero(t, g.Score().GameScore)

	play(g, 0, 1, 2, 3, 0)

	scores := rec.scores()
	require.Len(t, scores, 13)
	last := scores[8:]
	assert.Equal(t, sc.Run21Bonus+sc.GoodStreakBonus, last[0].Score)
	assert.Equal(t, sc.Run21Bonus+sc.GreatStreakBonus, last[1].Score)
	assert.Equal(t, sc.Run21Bonus+sc.AmazingStreakBonus, last[2].Score)
	assert.Equal(t, sc.Run21Bonus+sc.OutstandingStreakBonus, last[3].Score)
	assert.Equal(t, sc.BlackJackBonus+sc.PerfectStreakBonus, last[4].Score)

	assert.False(t, last[0].IsStreak)
	assert.True(t, last[4].IsStreak)
	assert.Equal(t, 5, g.ScoredStreak())
	assert.Equal(t, 5, g.BestStreak())
	assert.Equal(t, 5, g.ColumnsCleared())
}

func TestBustBreaksStreak(t *testing.T) {
	g, rec := newTestGame(t, "KsQsKhQhKdQdKcQcAsAh5hAc")
	sc := g.Scoring()

	play(g, 0, 0, 1, 1, 2, 2, 3, 3)
	play(g, 0, 1)
	require.Equal(t, 2, g.ScoredStreak())

	play(g, 2) // 25 busts
	assert.Equal(t, 0, g.ScoredStreak())

	play(g, 3)
	ev := rec.lastScore(t)
	assert.Equal(t, sc.Run21Bonus+sc.GoodStreakBonus, ev.Score)
	assert.Equal(t, 1, g.ScoredStreak())
	assert.Equal(t, 2, g.BestStreak())
}

func TestScoreEventDeckIsDetached(t *testing.T) {
	g, rec := newTestGame(t, "KsJc9d")

	play(g, 0, 0)
	ev := rec.lastScore(t)
	require.NotNil(t, ev.Deck)
	require.Equal(t, 2, ev.Deck.Count())
	require.True(t, g.LaneDeck(0).IsEmpty())

	play(g, 0)
	assert.Equal(t, 2, ev.Deck.Count())
	assert.NotSame(t, g.LaneDeck(0), ev.Deck)

	ev.Deck.Clear()
	assert.Equal(t, 1, g.LaneDeck(0).Count())
	assert.Equal(t, 2, g.ScoredCardCount())
}

func TestIsCardCausingDeckBust(t *testing.T) {
	g, _ := newTestGame(t, "")
	lane := deck.FromCards(deck.MustParseCards("KsQh")...)

	assert.True(t, g.IsCardCausingDeckBust(deck.NewCard(deck.Diamonds, deck.Five), lane))
	assert.False(t, g.IsCardCausingDeckBust(deck.NewCard(deck.Diamonds, deck.Ace), lane))
	assert.False(t, g.IsCardCausingDeckBust(deck.NewCard(deck.Clubs, deck.Jack), lane))
	assert.True(t, g.IsCardCausingDeckBust(deck.NewCard(deck.Hearts, deck.Jack), lane))
	assert.Equal(t, 2, lane.Count(), "query must not modify the lane")
}

func TestGameOverOnTimeExpired(t *testing.T) {
	g, rec := newTestGame(t, "")

	g.SetPlayTime(299, false)
	require.False(t, g.IsGameOver())

	g.SetPlayTime(1, true)
	require.True(t, g.IsGameOver())

	overs := rec.gameOvers()
	require.Len(t, overs, 1)
	assert.True(t, overs[0].IsTimeExpired)
	assert.Equal(t, GameOver, g.State())

	g.SetPlayTime(10, true)
	g.EndGame()
	assert.Len(t, rec.gameOvers(), 1)
}

func TestGameOverOnThreeBusts(t *testing.T) {
	g, rec := newTestGame(t, "KsQs5sKhQh5hKdQd5d9c")

	play(g, 0, 0, 0, 1, 1, 1, 2, 2)
	require.False(t, g.IsGameOver())
	play(g, 2)
	require.True(t, g.IsGameOver())

	overs := rec.gameOvers()
	require.Len(t, overs, 1)
	assert.False(t, overs[0].IsTimeExpired)
	assert.Equal(t, 3, overs[0].BustCount)
	assert.False(t, overs[0].PerfectScore)

	played := g.CardsPlayed()
	drawCount := g.DrawDeck().Count()
	play(g, 3)
	assert.Equal(t, played, g.CardsPlayed())
	assert.Equal(t, drawCount, g.DrawDeck().Count())
}

func TestGameOverWhenDeckExhausted(t *testing.T) {
	limits := DefaultLimits()
	limits.DeckSize = 3
	g := NewGame(DefaultScoring(), limits, WithSeed(5), WithLogger(quietLogger()))
	rec := &eventRecorder{}
	g.Events().Subscribe(rec)

	require.Equal(t, 3, g.DeckSize())
	require.False(t, g.CheckGameOver(), "no card played yet")

	play(g, 0, 1)
	require.False(t, g.IsGameOver())
	play(g, 2)

	require.True(t, g.IsGameOver())
	overs := rec.gameOvers()
	require.Len(t, overs, 1)
	assert.False(t, overs[0].IsTimeExpired)
	assert.Equal(t, 3, g.CardsAccountedFor())
}

func TestEndGameFinalizesOnce(t *testing.T) {
	g, rec := newTestGame(t, "Jc")
	play(g, 0)

	g.EndGame()
	g.EndGame()

	overs := rec.gameOvers()
	require.Len(t, overs, 1)
	assert.True(t, g.Score().IsFinalized())
	assert.Equal(t, g.Score().FinalScore(), overs[0].FinalScore)
	assert.Equal(t, [NumLanes]bool{true, true, true, true}, overs[0].EmptyLanes)
	assert.False(t, overs[0].PerfectScore, "cards are left in the draw deck")

	g.DrawCard()
	assert.True(t, g.ActiveCardDeck().IsEmpty())
}

func TestPerfectGameFinalScore(t *testing.T) {
	g, rec := newTestGame(t, "")
	rigDrawDeck(g, "JcJs")
	sc := g.Scoring()

	g.SetPlayTime(60, false)
	play(g, 0, 1)

	require.True(t, g.IsGameOver())
	s := g.Score()
	assert.Equal(t, 4, s.EmptyLanes)
	assert.True(t, s.DrawDeckEmpty)
	assert.True(t, s.ActiveDeckEmpty)

	wantGame := sc.BlackJackBonus + sc.GoodStreakBonus + sc.BlackJackBonus + sc.GreatStreakBonus
	assert.Equal(t, wantGame, s.GameScore)
	assert.Equal(t, sc.NoBustBonus, s.BustScore())
	assert.Equal(t, 4*sc.EmptyLaneBonus, s.LaneScore())
	assert.Positive(t, s.PerfectGameScore())
	assert.Equal(t, 2400, s.TimeScore())
	assert.Equal(t, s.GameScore+s.BustScore()+s.LaneScore()+s.PerfectGameScore()+s.TimeScore(), s.FinalScore())

	overs := rec.gameOvers()
	require.Len(t, overs, 1)
	assert.True(t, overs[0].PerfectScore)
	assert.Equal(t, s.FinalScore(), overs[0].FinalScore)
}

func TestCardConservationThroughRandomRound(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := NewGame(DefaultScoring(), DefaultLimits(), WithSeed(seed), WithLogger(quietLogger()))
		rng := randutil.New(seed)

		for steps := 0; !g.IsGameOver() && steps < 500; steps++ {
			g.DrawCard()
			g.PlayCard(rng.IntN(NumLanes))
			if rng.IntN(5) == 0 {
				g.UndoLastMove()
			}

			require.Equal(t, g.DeckSize(), g.CardsAccountedFor(), "seed %d step %d", seed, steps)
			require.LessOrEqual(t, g.Score().Busts(), 3)
			require.GreaterOrEqual(t, g.ScoredStreak(), 0)
		}
		require.True(t, g.IsGameOver(), "seed %d never finished", seed)
	}
}
