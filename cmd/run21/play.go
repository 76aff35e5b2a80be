package main

import (
	"io"
	"path/filepath"

	"github.com/coder/quartz"
	"github.com/freerange/run21/internal/history"
	"github.com/freerange/run21/internal/run21"
	"github.com/freerange/run21/internal/session"
	"github.com/freerange/run21/internal/tui"
)

// PlayCmd runs an interactive round in the terminal
type PlayCmd struct {
	Seed *int64 `help:"Deal the first round from this seed"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI, so logs only go to a configured file
	logger, closeLog, err := setupLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []run21.Option{run21.WithLogger(logger)}
	if c.Seed != nil {
		opts = append(opts, run21.WithSeed(*c.Seed))
	}
	game := run21.NewGame(cfg.Scoring, cfg.Limits, opts...)

	if dir := cfg.Server.HistoryDir; dir != "" {
		history.NewRecorder(game, history.WithLogger(logger), history.OnComplete(func(h *history.History) {
			path := filepath.Join(dir, h.ID+".json")
			if err := history.Save(path, h); err != nil {
				logger.Error("Failed to save round history", "error", err)
			}
		}))
	}

	s := session.New(game, quartz.NewReal(), cfg.Server.ClockTick, logger)
	ctx := setupSignalHandler(logger)
	return tui.Run(ctx, s, logger)
}
