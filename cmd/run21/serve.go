package main

import (
	"context"
	"os"
	"time"

	"github.com/freerange/run21/internal/server"
)

// ServeCmd runs the WebSocket server
type ServeCmd struct {
	Addr       string `help:"Listen address, overrides the configured address and port"`
	HistoryDir string `type:"path" help:"Save finished rounds to this directory"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	historyDir := cfg.Server.HistoryDir
	if c.HistoryDir != "" {
		historyDir = c.HistoryDir
	}

	s := server.NewServer(addr, server.Options{
		Scoring:    cfg.Scoring,
		Limits:     cfg.Limits,
		ClockTick:  cfg.Server.ClockTick,
		HistoryDir: historyDir,
	}, logger)

	logger.Info("Starting Run21 server",
		"address", addr,
		"deck_size", cfg.Limits.DeckSize,
		"max_busts", cfg.Limits.MaxBusts,
		"max_play_time", cfg.Limits.MaxPlayTime,
		"history_dir", historyDir)

	// Setup graceful shutdown
	ctx := setupSignalHandler(logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
