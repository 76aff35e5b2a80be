// Package simulator plays batches of bot-driven rounds and aggregates their
// scores.
package simulator

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/bot"
	"github.com/freerange/run21/internal/randutil"
	"github.com/freerange/run21/internal/run21"
	"github.com/freerange/run21/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Rounds   int
	Strategy string
	Seed     int64
	Workers  int

	// SecondsPerCard is the play time charged for every card played, so
	// slow strategies can run out of time the way a human would.
	SecondsPerCard float64

	Scoring run21.Scoring
	Limits  run21.Limits
	Logger  *log.Logger
}

// Simulator runs batches of rounds
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulator{config: config, logger: logger.WithPrefix("simulator")}
}

// Run plays every round and returns the aggregated statistics. Round i is
// dealt from randutil.Derive(Seed, i), so results do not depend on the
// number of workers.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, []statistics.RoundResult, error) {
	if s.config.Rounds <= 0 {
		return nil, nil, fmt.Errorf("rounds must be positive, got %d", s.config.Rounds)
	}
	if _, err := bot.New(s.config.Strategy, nil); err != nil {
		return nil, nil, err
	}

	results := make([]statistics.RoundResult, s.config.Rounds)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range s.config.Rounds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := s.PlayRound(randutil.Derive(s.config.Seed, i))
			if err != nil {
				return fmt.Errorf("round %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	s.logger.Info("Simulation complete",
		"rounds", stats.Rounds,
		"strategy", s.config.Strategy,
		"mean", stats.Mean(),
		"workers", s.config.Workers)
	return stats, results, nil
}

// PlayRound plays a single round dealt from seed to completion.
func (s *Simulator) PlayRound(seed int64) (statistics.RoundResult, error) {
	strategy, err := bot.New(s.config.Strategy, randutil.New(seed))
	if err != nil {
		return statistics.RoundResult{}, err
	}

	g := run21.NewGame(s.config.Scoring, s.config.Limits, run21.WithSeed(seed))

	var over run21.GameOverEvent
	g.Events().Subscribe(run21.SubscriberFunc(func(e run21.Event) {
		if ev, ok := e.(run21.GameOverEvent); ok {
			over = ev
		}
	}))

	// Every draw and play either moves a card or ends the round, so a round
	// can never need more than two steps per card.
	for steps := 0; !g.IsGameOver(); steps++ {
		if steps > 2*g.DeckSize()+1 {
			return statistics.RoundResult{}, fmt.Errorf("round did not finish (seed %d)", seed)
		}
		if g.State() == run21.AwaitingDraw {
			g.DrawCard()
			continue
		}
		if g.State() == run21.AwaitingGameOver {
			g.EndGame()
			continue
		}
		g.PlayCard(strategy.ChooseLane(g.View()))
		if s.config.SecondsPerCard > 0 {
			g.SetPlayTime(s.config.SecondsPerCard, true)
		}
	}

	return statistics.RoundResult{
		Seed:           seed,
		FinalScore:     over.FinalScore,
		GameScore:      g.Score().GameScore,
		Busts:          over.BustCount,
		BestStreak:     g.BestStreak(),
		ColumnsCleared: g.ColumnsCleared(),
		CardsPlayed:    g.CardsPlayed(),
		Perfect:        over.PerfectScore,
		Reason:         endReason(g, over),
	}, nil
}

func endReason(g *run21.Game, over run21.GameOverEvent) statistics.EndReason {
	switch {
	case over.IsTimeExpired:
		return statistics.EndTimeExpired
	case over.BustCount >= g.Limits().MaxBusts:
		return statistics.EndBusts
	case g.DrawDeck().IsEmpty() && g.ActiveCardDeck().IsEmpty():
		return statistics.EndDeck
	default:
		return statistics.EndPlayer
	}
}

// PrintSummary writes a human readable summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics, strategy string) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS for %s bot ===\n", strategy)
	fmt.Fprintf(w, "Rounds played: %d\n", stats.Rounds)

	fmt.Fprintf(w, "\n=== FINAL SCORE ===\n")
	fmt.Fprintf(w, "Mean: %.1f\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.1f\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.1f\n", stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.1f, %.1f]\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.0f, P25=%.0f, P75=%.0f, P95=%.0f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
	fmt.Fprintf(w, "Range: %d to %d\n", stats.MinScore, stats.MaxScore)

	fmt.Fprintf(w, "\n=== PLAY ===\n")
	fmt.Fprintf(w, "Busts per round: %.2f\n", stats.BustRate())
	fmt.Fprintf(w, "Lanes cleared: %d\n", stats.TotalColumnsCleared)
	fmt.Fprintf(w, "Best streak: %d\n", stats.BestStreak)
	fmt.Fprintf(w, "Perfect games: %d\n", stats.PerfectGames)

	reasons := make([]string, 0, len(stats.Reasons))
	for r := range stats.Reasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	fmt.Fprintf(w, "\n=== ROUND ENDINGS ===\n")
	for _, r := range reasons {
		n := stats.Reasons[statistics.EndReason(r)]
		fmt.Fprintf(w, "%s: %d (%.1f%%)\n", r, n, float64(n)/float64(stats.Rounds)*100)
	}
}
