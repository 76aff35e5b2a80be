// Package history journals rounds so they can be saved, reloaded and
// replayed against the engine.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/freerange/run21/internal/fileutil"
	"github.com/freerange/run21/internal/run21"
)

// ErrMismatch is returned when a replayed round diverges from its history
var ErrMismatch = errors.New("replay does not match history")

// EntryType names a journaled move
type EntryType string

const (
	EntryPlay EntryType = "play"
	EntryUndo EntryType = "undo"
)

// Entry is one move in a round
type Entry struct {
	Type      EntryType `json:"type"`
	Lane      int       `json:"lane"`
	Card      string    `json:"card,omitempty"`
	Points    int       `json:"points,omitempty"`
	Bust      bool      `json:"bust,omitempty"`
	GameScore int       `json:"gameScore"`
	PlayTime  float64   `json:"playTime"`
}

// Final is the result recorded when the round ended
type Final struct {
	FinalScore  int     `json:"finalScore"`
	GameScore   int     `json:"gameScore"`
	Busts       int     `json:"busts"`
	PlayTime    float64 `json:"playTime"`
	TimeExpired bool    `json:"timeExpired"`
	Perfect     bool    `json:"perfect"`
}

// History is the complete journal of one round
type History struct {
	ID        string        `json:"id"`
	Seed      int64         `json:"seed"`
	DeckSize  int           `json:"deckSize"`
	Scoring   run21.Scoring `json:"scoring"`
	Limits    run21.Limits  `json:"limits"`
	StartedAt time.Time     `json:"startedAt"`
	Entries   []Entry       `json:"entries"`
	Final     *Final        `json:"final,omitempty"`
}

// Complete reports whether the round has ended
func (h *History) Complete() bool {
	return h.Final != nil
}

// Plays counts the play entries that were not undone
func (h *History) Plays() int {
	n := 0
	for _, e := range h.Entries {
		switch e.Type {
		case EntryPlay:
			n++
		case EntryUndo:
			n--
		}
	}
	return n
}

// Save writes h to path as JSON, atomically
func Save(path string, h *History) error {
	if err := fileutil.WriteJSONAtomic(path, h, 0o644); err != nil {
		return fmt.Errorf("save history %s: %w", h.ID, err)
	}
	return nil
}

// Load reads a history written by Save
func Load(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	return &h, nil
}
