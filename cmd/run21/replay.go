package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/freerange/run21/internal/history"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// ReplayCmd replays recorded rounds and checks their scores
type ReplayCmd struct {
	Files   []string `arg:"" type:"existingfile" help:"Round history JSON files"`
	Entries bool     `short:"e" help:"Print every recorded move"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	failed := 0
	for _, path := range c.Files {
		h, err := history.Load(path)
		if err != nil {
			failed++
			fmt.Println(failStyle.Render("✗ "+path), err)
			continue
		}

		game, err := history.Replay(h, logger)
		if err != nil {
			failed++
			fmt.Println(failStyle.Render("✗ "+h.ID), err)
			continue
		}

		fmt.Printf("%s seed=%d plays=%d final=%d\n",
			okStyle.Render("✓ "+h.ID), h.Seed, h.Plays(), game.Score().FinalScore())

		if c.Entries {
			for i, e := range h.Entries {
				line := fmt.Sprintf("  %3d %-4s", i+1, e.Type)
				if e.Type == history.EntryPlay {
					line += fmt.Sprintf(" lane=%d card=%s points=%d", e.Lane+1, e.Card, e.Points)
					if e.Bust {
						line += " bust"
					}
				}
				line += fmt.Sprintf(" score=%d t=%.1fs", e.GameScore, e.PlayTime)
				fmt.Println(dimStyle.Render(line))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d histories failed to replay", failed, len(c.Files))
	}
	return nil
}
