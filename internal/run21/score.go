package run21

// Score tracks the points of a single round. GameScore is the confirmed
// total; DisplayedGameScore trails it for presentation and is moved along by
// StepDisplayedScore.
type Score struct {
	scoring Scoring
	limits  Limits

	GameScore          int
	DisplayedGameScore int

	busts    int
	playTime float64

	// Set by CalculateFinalScore.
	EmptyLanes      int
	DrawDeckEmpty   bool
	ActiveDeckEmpty bool
	finalized       bool
}

// NewScore creates a zeroed score for the given point table and limits.
func NewScore(scoring Scoring, limits Limits) *Score {
	return &Score{scoring: scoring, limits: limits}
}

// Reset zeroes every counter for a new round.
func (s *Score) Reset() {
	*s = Score{scoring: s.scoring, limits: s.limits}
}

// Scoring returns the point table in use.
func (s *Score) Scoring() Scoring {
	return s.scoring
}

// Busts returns the number of busted lanes this round.
func (s *Score) Busts() int {
	return s.busts
}

// SetBusts assigns the bust count, saturating within [0, MaxBusts].
func (s *Score) SetBusts(n int) {
	s.busts = max(0, min(n, s.limits.MaxBusts))
}

// AddBust counts one more busted lane.
func (s *Score) AddBust() {
	s.SetBusts(s.busts + 1)
}

// PlayTime returns the elapsed round time in seconds.
func (s *Score) PlayTime() float64 {
	return s.playTime
}

// SetPlayTime assigns the elapsed time, saturating within [0, MaxPlayTime].
func (s *Score) SetPlayTime(seconds float64) {
	s.playTime = max(0, min(seconds, s.limits.MaxPlayTime))
}

// IsTimeExpired reports whether the round has used all of its time.
func (s *Score) IsTimeExpired() bool {
	return s.playTime >= s.limits.MaxPlayTime
}

// ScoreLaneDeck awards the points for a cleared lane and returns them.
// streak is the streak length including this clear.
func (s *Score) ScoreLaneDeck(is21, isBlackJack, isFiveCard bool, streak int) int {
	delta := 0
	if is21 {
		delta += s.scoring.Run21Bonus
	}
	if isBlackJack {
		delta += s.scoring.BlackJackBonus
	}
	if isFiveCard {
		delta += s.scoring.FiveCardBonus
	}
	delta += s.scoring.ComboBonus(is21, isBlackJack, isFiveCard)
	delta += s.scoring.StreakBonus(streak)

	s.GameScore += delta
	return delta
}

// BustScore is the end-of-round bonus for finishing without a bust.
func (s *Score) BustScore() int {
	if s.busts == 0 {
		return s.scoring.NoBustBonus
	}
	return 0
}

// LaneScore is the end-of-round bonus for each empty lane.
func (s *Score) LaneScore() int {
	return s.EmptyLanes * s.scoring.EmptyLaneBonus
}

// IsPerfectGame reports whether every card was cleared without a bust.
func (s *Score) IsPerfectGame() bool {
	return s.busts == 0 && s.EmptyLanes == NumLanes && s.DrawDeckEmpty && s.ActiveDeckEmpty
}

// PerfectGameScore is the bonus for a perfect game.
func (s *Score) PerfectGameScore() int {
	if s.IsPerfectGame() {
		return s.scoring.PerfectGameBonus
	}
	return 0
}

// TimeScore rewards finishing early. Rounds shorter than
// MinTimeBonusPlayTime earn nothing so quitting at once pays nothing.
func (s *Score) TimeScore() int {
	if s.limits.MaxPlayTime <= 0 || s.playTime < s.limits.MinTimeBonusPlayTime {
		return 0
	}
	remaining := (s.limits.MaxPlayTime - s.playTime) / s.limits.MaxPlayTime
	return max(0, int(remaining*float64(s.scoring.TimeBonus)))
}

// FinalScore is the confirmed score plus every end-of-round bonus.
func (s *Score) FinalScore() int {
	return s.GameScore + s.BustScore() + s.LaneScore() + s.PerfectGameScore() + s.TimeScore()
}

// IsFinalized reports whether CalculateFinalScore has run this round.
func (s *Score) IsFinalized() bool {
	return s.finalized
}

// CalculateFinalScore records the end-of-round board state from g and
// returns the final score.
func (s *Score) CalculateFinalScore(g *Game) int {
	s.EmptyLanes = 0
	for i := range NumLanes {
		if g.lanes[i].IsEmpty() {
			s.EmptyLanes++
		}
	}
	s.DrawDeckEmpty = g.drawDeck.IsEmpty()
	s.ActiveDeckEmpty = g.activeDeck.IsEmpty()
	s.finalized = true
	return s.FinalScore()
}

// StepDisplayedScore moves DisplayedGameScore up to step points toward
// GameScore and reports whether it has caught up.
func (s *Score) StepDisplayedScore(step int) bool {
	diff := s.GameScore - s.DisplayedGameScore
	switch {
	case diff == 0:
		return true
	case step <= 0 || abs(diff) <= step:
		s.DisplayedGameScore = s.GameScore
	case diff > 0:
		s.DisplayedGameScore += step
	default:
		s.DisplayedGameScore -= step
	}
	return s.DisplayedGameScore == s.GameScore
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// scoreState is the part of a Score that undo rolls back. Play time is not
// included; the clock keeps running through an undo.
type scoreState struct {
	gameScore int
	displayed int
	busts     int
}

func (s *Score) state() scoreState {
	return scoreState{gameScore: s.GameScore, displayed: s.DisplayedGameScore, busts: s.busts}
}

func (s *Score) restore(st scoreState) {
	s.GameScore = st.gameScore
	s.DisplayedGameScore = st.displayed
	s.busts = st.busts
}
