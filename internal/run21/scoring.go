package run21

import (
	"errors"
	"fmt"

	"github.com/freerange/run21/internal/deck"
)

// NumLanes is the number of lanes cards are played into.
const NumLanes = 4

// Scoring holds the point values awarded during and at the end of a round.
type Scoring struct {
	TimeBonus      int `json:"timeBonus"`
	Run21Bonus     int `json:"run21Bonus"`
	BlackJackBonus int `json:"blackJackBonus"`
	FiveCardBonus  int `json:"fiveCardBonus"`

	GoodStreakBonus        int `json:"goodStreakBonus"`
	GreatStreakBonus       int `json:"greatStreakBonus"`
	AmazingStreakBonus     int `json:"amazingStreakBonus"`
	OutstandingStreakBonus int `json:"outstandingStreakBonus"`
	PerfectStreakBonus     int `json:"perfectStreakBonus"`

	NoBustBonus      int `json:"noBustBonus"`
	EmptyLaneBonus   int `json:"emptyLaneBonus"`
	PerfectGameBonus int `json:"perfectGameBonus"`

	Run21BlackJackCombo    int `json:"run21BlackJackCombo"`
	Run21FiveCardCombo     int `json:"run21FiveCardCombo"`
	FiveCardBlackJackCombo int `json:"fiveCardBlackJackCombo"`
	TripleCombo            int `json:"tripleCombo"`
}

// DefaultScoring returns the standard point table.
func DefaultScoring() Scoring {
	return Scoring{
		TimeBonus:      3000,
		Run21Bonus:     400,
		BlackJackBonus: 300,
		FiveCardBonus:  500,

		GoodStreakBonus:        100,
		GreatStreakBonus:       200,
		AmazingStreakBonus:     300,
		OutstandingStreakBonus: 400,
		PerfectStreakBonus:     500,

		NoBustBonus:      1000,
		EmptyLaneBonus:   250,
		PerfectGameBonus: 2000,

		Run21BlackJackCombo:    200,
		Run21FiveCardCombo:     300,
		FiveCardBlackJackCombo: 300,
		TripleCombo:            600,
	}
}

// StreakBonus returns the bonus for a lane clear that extends the streak to
// streak consecutive clears.
func (s Scoring) StreakBonus(streak int) int {
	switch {
	case streak == 1:
		return s.GoodStreakBonus
	case streak == 2:
		return s.GreatStreakBonus
	case streak == 3:
		return s.AmazingStreakBonus
	case streak == 4:
		return s.OutstandingStreakBonus
	case streak >= 5:
		return s.PerfectStreakBonus
	default:
		return 0
	}
}

// ComboBonus returns the extra points for two or more scoring conditions
// met by the same lane. The tiers are mutually exclusive.
func (s Scoring) ComboBonus(is21, isBlackJack, isFiveCard bool) int {
	switch {
	case is21 && isBlackJack && isFiveCard:
		return s.TripleCombo
	case is21 && isBlackJack:
		return s.Run21BlackJackCombo
	case is21 && isFiveCard:
		return s.Run21FiveCardCombo
	case isFiveCard && isBlackJack:
		return s.FiveCardBlackJackCombo
	default:
		return 0
	}
}

// Validate rejects negative point values.
func (s Scoring) Validate() error {
	fields := map[string]int{
		"time_bonus":                s.TimeBonus,
		"run21_bonus":               s.Run21Bonus,
		"blackjack_bonus":           s.BlackJackBonus,
		"five_card_bonus":           s.FiveCardBonus,
		"good_streak_bonus":         s.GoodStreakBonus,
		"great_streak_bonus":        s.GreatStreakBonus,
		"amazing_streak_bonus":      s.AmazingStreakBonus,
		"outstanding_streak_bonus":  s.OutstandingStreakBonus,
		"perfect_streak_bonus":      s.PerfectStreakBonus,
		"no_bust_bonus":             s.NoBustBonus,
		"empty_lane_bonus":          s.EmptyLaneBonus,
		"perfect_game_bonus":        s.PerfectGameBonus,
		"run21_blackjack_combo":     s.Run21BlackJackCombo,
		"run21_five_card_combo":     s.Run21FiveCardCombo,
		"five_card_blackjack_combo": s.FiveCardBlackJackCombo,
		"triple_combo":              s.TripleCombo,
	}
	var errs []error
	for name, v := range fields {
		if v < 0 {
			errs = append(errs, fmt.Errorf("scoring %s must not be negative, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

// Limits are the session constants a round is played under.
type Limits struct {
	DeckSize             int     `json:"deckSize"`
	MaxBusts             int     `json:"maxBusts"`
	MaxPlayTime          float64 `json:"maxPlayTime"`
	MinTimeBonusPlayTime float64 `json:"minTimeBonusPlayTime"`
}

// DefaultLimits returns a full deck, three busts and five minutes.
func DefaultLimits() Limits {
	return Limits{
		DeckSize:             deck.StandardSize,
		MaxBusts:             3,
		MaxPlayTime:          300,
		MinTimeBonusPlayTime: 30,
	}
}

// Validate checks that every limit is usable.
func (l Limits) Validate() error {
	if l.DeckSize < 1 || l.DeckSize > deck.StandardSize {
		return fmt.Errorf("deck size must be between 1 and %d, got %d", deck.StandardSize, l.DeckSize)
	}
	if l.MaxBusts < 1 {
		return fmt.Errorf("max busts must be positive, got %d", l.MaxBusts)
	}
	if l.MaxPlayTime <= 0 {
		return fmt.Errorf("max play time must be positive, got %v", l.MaxPlayTime)
	}
	if l.MinTimeBonusPlayTime < 0 || l.MinTimeBonusPlayTime > l.MaxPlayTime {
		return fmt.Errorf("min time bonus play time must be within [0, %v], got %v", l.MaxPlayTime, l.MinTimeBonusPlayTime)
	}
	return nil
}
