package run21

import "github.com/freerange/run21/internal/deck"

// LaneView is a read-only copy of one lane.
type LaneView struct {
	Cards []deck.Card `json:"cards"`
	High  int         `json:"high"`
	Low   int         `json:"low"`
}

// View is a detached, serialisable copy of the round as a player sees it.
type View struct {
	State          string             `json:"state"`
	Seed           int64              `json:"seed"`
	ActiveCard     *deck.Card         `json:"activeCard,omitempty"`
	Lanes          [NumLanes]LaneView `json:"lanes"`
	DrawCount      int                `json:"drawCount"`
	GameScore      int                `json:"gameScore"`
	Busts          int                `json:"busts"`
	MaxBusts       int                `json:"maxBusts"`
	PlayTime       float64            `json:"playTime"`
	MaxPlayTime    float64            `json:"maxPlayTime"`
	Streak         int                `json:"streak"`
	BestStreak     int                `json:"bestStreak"`
	ColumnsCleared int                `json:"columnsCleared"`
	CardsPlayed    int                `json:"cardsPlayed"`
	RemainingCards int                `json:"remainingCards"`
	UndoAvailable  bool               `json:"undoAvailable"`
	IsGameOver     bool               `json:"isGameOver"`
	FinalScore     int                `json:"finalScore,omitempty"`
}

// View returns a snapshot of the round for presentation or bots.
func (g *Game) View() View {
	v := View{
		State:          g.State().String(),
		Seed:           g.seed,
		DrawCount:      g.drawDeck.Count(),
		GameScore:      g.score.GameScore,
		Busts:          g.score.Busts(),
		MaxBusts:       g.limits.MaxBusts,
		PlayTime:       g.score.PlayTime(),
		MaxPlayTime:    g.limits.MaxPlayTime,
		Streak:         g.scoredStreak,
		BestStreak:     g.bestStreak,
		ColumnsCleared: g.columnsCleared,
		CardsPlayed:    g.cardsPlayed,
		RemainingCards: g.remainingCards,
		UndoAvailable:  !g.isGameOver && g.snapshots.IsUndoLastMoveAvailable(),
		IsGameOver:     g.isGameOver,
	}
	if card, ok := g.activeDeck.Top(); ok {
		v.ActiveCard = &card
	}
	for i, lane := range g.lanes {
		high, low := HiLowValue(lane)
		v.Lanes[i] = LaneView{Cards: lane.Cards(), High: high, Low: low}
	}
	if g.isGameOver {
		v.FinalScore = g.score.FinalScore()
	}
	return v
}
