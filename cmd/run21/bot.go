package main

import (
	"fmt"
	"os"

	"github.com/freerange/run21/internal/bot"
	"github.com/freerange/run21/internal/client"
	"github.com/freerange/run21/internal/randutil"
	"github.com/freerange/run21/internal/statistics"
)

// BotCmd plays rounds on a running server with a built-in bot
type BotCmd struct {
	URL    string `short:"u" default:"http://localhost:8021" help:"Server URL"`
	Bot    string `short:"b" default:"greedy" enum:"${bots}" help:"Strategy to play with (${enum})"`
	Rounds int    `short:"n" default:"1" help:"Number of rounds to play"`
	Seed   *int64 `help:"Seed for the first round; later rounds use derived seeds"`
}

func (c *BotCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := setupSignalHandler(logger)

	conn := client.NewClient(c.URL, logger)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = conn.Disconnect() }()

	base := randutil.NewSeed()
	if c.Seed != nil {
		base = *c.Seed
	}

	stats := &statistics.Statistics{}
	for i := range c.Rounds {
		seed := base
		if i > 0 {
			seed = randutil.Derive(base, i)
		}
		strategy, err := bot.New(c.Bot, randutil.New(seed))
		if err != nil {
			return err
		}

		over, err := client.PlayRound(ctx, conn, strategy, &seed)
		if err != nil {
			return fmt.Errorf("round %d: %w", i+1, err)
		}
		fmt.Printf("%s seed=%d final=%d busts=%d cards=%d\n",
			okStyle.Render(over.RoundID), seed, over.FinalScore, over.Busts, over.CardsPlayed)

		stats.Add(statistics.RoundResult{
			Seed:           seed,
			FinalScore:     over.FinalScore,
			GameScore:      over.GameScore,
			Busts:          over.Busts,
			BestStreak:     over.BestStreak,
			ColumnsCleared: over.ColumnsCleared,
			CardsPlayed:    over.CardsPlayed,
			Perfect:        over.Perfect,
			Reason:         endReason(over.TimeExpired, over.Busts >= cfg.Limits.MaxBusts, over.CardsPlayed >= cfg.Limits.DeckSize),
		})
	}

	if c.Rounds > 1 {
		fmt.Printf("\nMean final score over %d rounds: %.1f (best %d)\n", stats.Rounds, stats.Mean(), stats.MaxScore)
	}
	return nil
}

func endReason(timeExpired, busted, outOfCards bool) statistics.EndReason {
	switch {
	case timeExpired:
		return statistics.EndTimeExpired
	case busted:
		return statistics.EndBusts
	case outOfCards:
		return statistics.EndDeck
	default:
		return statistics.EndPlayer
	}
}
