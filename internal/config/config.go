// Package config loads run21 settings from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freerange/run21/internal/run21"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete run21 configuration
type Config struct {
	Scoring run21.Scoring
	Limits  run21.Limits
	Server  ServerSettings
	Log     LogSettings
}

// ServerSettings contains websocket server configuration
type ServerSettings struct {
	Address    string
	Port       int
	ClockTick  time.Duration
	HistoryDir string
}

// LogSettings contains logging configuration
type LogSettings struct {
	Level string
	File  string
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Scoring: run21.DefaultScoring(),
		Limits:  run21.DefaultLimits(),
		Server: ServerSettings{
			Address:   "localhost",
			Port:      8021,
			ClockTick: 100 * time.Millisecond,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// The file schema uses pointers so that an attribute set to zero can be told
// apart from one that was left out.
type fileConfig struct {
	Scoring *scoringBlock `hcl:"scoring,block"`
	Limits  *limitsBlock  `hcl:"limits,block"`
	Server  *serverBlock  `hcl:"server,block"`
	Log     *logBlock     `hcl:"log,block"`
}

type scoringBlock struct {
	TimeBonus              *int `hcl:"time_bonus,optional"`
	Run21Bonus             *int `hcl:"run21_bonus,optional"`
	BlackJackBonus         *int `hcl:"blackjack_bonus,optional"`
	FiveCardBonus          *int `hcl:"five_card_bonus,optional"`
	GoodStreakBonus        *int `hcl:"good_streak_bonus,optional"`
	GreatStreakBonus       *int `hcl:"great_streak_bonus,optional"`
	AmazingStreakBonus     *int `hcl:"amazing_streak_bonus,optional"`
	OutstandingStreakBonus *int `hcl:"outstanding_streak_bonus,optional"`
	PerfectStreakBonus     *int `hcl:"perfect_streak_bonus,optional"`
	NoBustBonus            *int `hcl:"no_bust_bonus,optional"`
	EmptyLaneBonus         *int `hcl:"empty_lane_bonus,optional"`
	PerfectGameBonus       *int `hcl:"perfect_game_bonus,optional"`
	Run21BlackJackCombo    *int `hcl:"run21_blackjack_combo,optional"`
	Run21FiveCardCombo     *int `hcl:"run21_five_card_combo,optional"`
	FiveCardBlackJackCombo *int `hcl:"five_card_blackjack_combo,optional"`
	TripleCombo            *int `hcl:"triple_combo,optional"`
}

type limitsBlock struct {
	DeckSize             *int     `hcl:"deck_size,optional"`
	MaxBusts             *int     `hcl:"max_busts,optional"`
	MaxPlayTime          *float64 `hcl:"max_play_time,optional"`
	MinTimeBonusPlayTime *float64 `hcl:"min_time_bonus_play_time,optional"`
}

type serverBlock struct {
	Address    *string `hcl:"address,optional"`
	Port       *int    `hcl:"port,optional"`
	ClockTick  *string `hcl:"clock_tick,optional"`
	HistoryDir *string `hcl:"history_dir,optional"`
}

type logBlock struct {
	Level *string `hcl:"level,optional"`
	File  *string `hcl:"file,optional"`
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults; attributes left out of the file keep their default values.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse decodes configuration from HCL source. filename is only used in
// diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if b := fc.Scoring; b != nil {
		s := &cfg.Scoring
		setInt(&s.TimeBonus, b.TimeBonus)
		setInt(&s.Run21Bonus, b.Run21Bonus)
		setInt(&s.BlackJackBonus, b.BlackJackBonus)
		setInt(&s.FiveCardBonus, b.FiveCardBonus)
		setInt(&s.GoodStreakBonus, b.GoodStreakBonus)
		setInt(&s.GreatStreakBonus, b.GreatStreakBonus)
		setInt(&s.AmazingStreakBonus, b.AmazingStreakBonus)
		setInt(&s.OutstandingStreakBonus, b.OutstandingStreakBonus)
		setInt(&s.PerfectStreakBonus, b.PerfectStreakBonus)
		setInt(&s.NoBustBonus, b.NoBustBonus)
		setInt(&s.EmptyLaneBonus, b.EmptyLaneBonus)
		setInt(&s.PerfectGameBonus, b.PerfectGameBonus)
		setInt(&s.Run21BlackJackCombo, b.Run21BlackJackCombo)
		setInt(&s.Run21FiveCardCombo, b.Run21FiveCardCombo)
		setInt(&s.FiveCardBlackJackCombo, b.FiveCardBlackJackCombo)
		setInt(&s.TripleCombo, b.TripleCombo)
	}
	if b := fc.Limits; b != nil {
		setInt(&cfg.Limits.DeckSize, b.DeckSize)
		setInt(&cfg.Limits.MaxBusts, b.MaxBusts)
		if b.MaxPlayTime != nil {
			cfg.Limits.MaxPlayTime = *b.MaxPlayTime
		}
		if b.MinTimeBonusPlayTime != nil {
			cfg.Limits.MinTimeBonusPlayTime = *b.MinTimeBonusPlayTime
		}
	}
	if b := fc.Server; b != nil {
		setString(&cfg.Server.Address, b.Address)
		setInt(&cfg.Server.Port, b.Port)
		setString(&cfg.Server.HistoryDir, b.HistoryDir)
		if b.ClockTick != nil {
			d, err := time.ParseDuration(*b.ClockTick)
			if err != nil {
				return nil, fmt.Errorf("server clock_tick: %w", err)
			}
			cfg.Server.ClockTick = d
		}
	}
	if b := fc.Log; b != nil {
		setString(&cfg.Log.Level, b.Level)
		setString(&cfg.Log.File, b.File)
	}
	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Limits.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}
	if c.Server.ClockTick <= 0 {
		errs = append(errs, fmt.Errorf("clock tick must be positive, got %v", c.Server.ClockTick))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// ServerAddress returns the host:port the server listens on
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
