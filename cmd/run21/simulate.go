package main

import (
	"fmt"
	"os"
	"time"

	"github.com/freerange/run21/internal/fileutil"
	"github.com/freerange/run21/internal/randutil"
	"github.com/freerange/run21/internal/simulator"
)

// SimulateCmd plays a batch of rounds with a built-in bot
type SimulateCmd struct {
	Rounds         int     `short:"n" default:"10000" help:"Number of rounds to simulate"`
	Bot            string  `short:"b" default:"greedy" enum:"${bots}" help:"Strategy to play with (${enum})"`
	Seed           *int64  `help:"Base seed, random when unset"`
	Workers        int     `short:"w" default:"0" help:"Parallel workers (0 for GOMAXPROCS)"`
	SecondsPerCard float64 `default:"1.5" help:"Play time charged per card played"`
	Output         string  `short:"o" type:"path" help:"Write per-round results to this JSON file"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	seed := randutil.NewSeed()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("Starting simulation", "rounds", c.Rounds, "bot", c.Bot, "seed", seed)

	sim := simulator.New(simulator.Config{
		Rounds:         c.Rounds,
		Strategy:       c.Bot,
		Seed:           seed,
		Workers:        c.Workers,
		SecondsPerCard: c.SecondsPerCard,
		Scoring:        cfg.Scoring,
		Limits:         cfg.Limits,
		Logger:         logger,
	})

	ctx := setupSignalHandler(logger)
	start := time.Now()
	stats, results, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	simulator.PrintSummary(os.Stdout, stats, c.Bot)
	elapsed := time.Since(start)
	fmt.Printf("\nSeed: %d\nDuration: %v (%.0f rounds/sec)\n", seed, elapsed.Round(time.Millisecond), float64(stats.Rounds)/elapsed.Seconds())

	if c.Output != "" {
		if err := fileutil.WriteJSONAtomic(c.Output, results, 0o644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		logger.Info("Wrote round results", "path", c.Output)
	}
	return nil
}
