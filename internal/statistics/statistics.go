package statistics

import (
	"fmt"
	"math"
	"sort"
)

// EndReason records why a round finished
type EndReason string

const (
	EndTimeExpired EndReason = "time"
	EndBusts       EndReason = "busts"
	EndDeck        EndReason = "deck"
	EndPlayer      EndReason = "player"
)

// RoundResult represents the outcome of a single round
type RoundResult struct {
	Seed           int64     // Deck seed for this round (for replay)
	FinalScore     int       // Score including end of round bonuses
	GameScore      int       // Points from lane clears only
	Busts          int       // Busted lanes
	BestStreak     int       // Longest run of consecutive clears
	ColumnsCleared int       // Lanes cleared for points
	CardsPlayed    int       // Cards that reached a lane
	Perfect        bool      // Perfect game bonus awarded
	Reason         EndReason // Why the round ended
}

// Statistics aggregates final scores over many rounds
type Statistics struct {
	Rounds int
	Sum    float64
	SumSq  float64   // Sum of squares for variance calculation
	Values []float64 // Final scores kept for median/percentile calculation

	MinScore int
	MaxScore int

	TotalBusts          int
	TotalColumnsCleared int
	BestStreak          int
	PerfectGames        int
	Reasons             map[EndReason]int
}

// Add incorporates a round result into the statistics
func (s *Statistics) Add(result RoundResult) {
	score := float64(result.FinalScore)
	if s.Rounds == 0 || result.FinalScore < s.MinScore {
		s.MinScore = result.FinalScore
	}
	if s.Rounds == 0 || result.FinalScore > s.MaxScore {
		s.MaxScore = result.FinalScore
	}

	s.Rounds++
	s.Sum += score
	s.SumSq += score * score
	s.Values = append(s.Values, score)

	s.TotalBusts += result.Busts
	s.TotalColumnsCleared += result.ColumnsCleared
	s.BestStreak = max(s.BestStreak, result.BestStreak)
	if result.Perfect {
		s.PerfectGames++
	}
	if s.Reasons == nil {
		s.Reasons = make(map[EndReason]int)
	}
	s.Reasons[result.Reason]++
}

// Mean returns the mean final score
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.Sum / float64(s.Rounds)
}

// Variance returns the sample variance of final scores
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of final scores
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(max(0, s.Variance()))
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median final score
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the linearly interpolated value at p (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// BustRate returns the mean number of busts per round
func (s *Statistics) BustRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.TotalBusts) / float64(s.Rounds)
}

// Validate checks that the aggregated counters agree with each other
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	total := 0
	for _, n := range s.Reasons {
		total += n
	}
	if total != s.Rounds {
		return fmt.Errorf("end reasons total (%d) does not match rounds count (%d)", total, s.Rounds)
	}
	if s.PerfectGames > s.Rounds {
		return fmt.Errorf("perfect games (%d) exceed rounds (%d)", s.PerfectGames, s.Rounds)
	}
	return nil
}
