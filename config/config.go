package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/strategy"
)

// Config is the complete trader configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Source     SourceConfig     `json:"source" yaml:"source"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
}

// AccountConfig names the account, the pair it trades and its capital.
type AccountConfig struct {
	ID      string  `json:"id" yaml:"id"`
	Pair    string  `json:"pair" yaml:"pair"`
	Capital float64 `json:"capital" yaml:"capital"`
}

// StrategyConfig picks a preset policy. Non-zero fields override the preset.
type StrategyConfig struct {
	Preset string `json:"preset" yaml:"preset"`

	// Outcome selects the outcome model: "weighted" or "random_walk".
	Outcome string `json:"outcome,omitempty" yaml:"outcome,omitempty"`

	// Direction selects the direction model: "momentum" or "ema_cross".
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
	EMAFast   int    `json:"ema_fast,omitempty" yaml:"ema_fast,omitempty"`
	EMASlow   int    `json:"ema_slow,omitempty" yaml:"ema_slow,omitempty"`

	EntryPct           float64 `json:"entry_pct,omitempty" yaml:"entry_pct,omitempty"`
	TakeProfitPct      float64 `json:"take_profit_pct,omitempty" yaml:"take_profit_pct,omitempty"`
	StopLossPct        float64 `json:"stop_loss_pct,omitempty" yaml:"stop_loss_pct,omitempty"`
	LossMultiplierBase float64 `json:"loss_multiplier_base,omitempty" yaml:"loss_multiplier_base,omitempty"`
	LossMultiplierCap  *int    `json:"loss_multiplier_cap,omitempty" yaml:"loss_multiplier_cap,omitempty"`
	MaxWeeklyLossPct   float64 `json:"max_weekly_loss_pct,omitempty" yaml:"max_weekly_loss_pct,omitempty"`
	TradesPerDay       int     `json:"trades_per_day,omitempty" yaml:"trades_per_day,omitempty"`
	CandleInterval     string  `json:"candle_interval,omitempty" yaml:"candle_interval,omitempty"`
	CandleRange        string  `json:"candle_range,omitempty" yaml:"candle_range,omitempty"`
}

// SourceConfig selects where candles come from.
type SourceConfig struct {
	Type       string  `json:"type" yaml:"type"` // "yahoo", "oanda" or "synthetic"
	BaseURL    string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token      string  `json:"-" yaml:"-"` // oanda API token, from TRADER_OANDA_TOKEN only
	Timeout    string  `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "10s"
	StartPrice float64 `json:"start_price,omitempty" yaml:"start_price,omitempty"`
}

// SimulationConfig holds the defaults for the simulate command.
type SimulationConfig struct {
	Days         int   `json:"days" yaml:"days"`
	TradesPerDay int   `json:"trades_per_day,omitempty" yaml:"trades_per_day,omitempty"` // 0 uses the policy's
	Seed         int64 `json:"seed,omitempty" yaml:"seed,omitempty"`                     // 0 seeds from the clock
}

// JournalConfig says where simulation reports are stored. An empty path
// disables the store.
type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

const (
	SourceYahoo     = "yahoo"
	SourceSynthetic = "synthetic"
	SourceOanda     = "oanda"

	OutcomeWeighted   = "weighted"
	OutcomeRandomWalk = "random_walk"

	DirectionMomentum = "momentum"
	DirectionEMACross = "ema_cross"

	DefaultEMAFast = 9
	DefaultEMASlow = 21
)

// LoadEnv loads variables from .env style files into the process
// environment. Missing files are ignored; values already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a file (YAML or JSON), applies
// TRADER_* environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from TRADER_* environment variables.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"TRADER_ACCOUNT_ID":  &c.Account.ID,
		"TRADER_PAIR":        &c.Account.Pair,
		"TRADER_STRATEGY":    &c.Strategy.Preset,
		"TRADER_OUTCOME":     &c.Strategy.Outcome,
		"TRADER_SOURCE":      &c.Source.Type,
		"TRADER_SOURCE_URL":  &c.Source.BaseURL,
		"TRADER_OANDA_TOKEN": &c.Source.Token,
		"TRADER_DIRECTION":   &c.Strategy.Direction,
		"TRADER_JOURNAL_DB":  &c.Journal.DBPath,
		"TRADER_LOG_LEVEL":   &c.Log.Level,
		"TRADER_LOG_FORMAT":  &c.Log.Format,
	}
	for k, p := range str {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			*p = v
		}
	}

	if v := os.Getenv("TRADER_CAPITAL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRADER_CAPITAL: %w", err)
		}
		c.Account.Capital = f
	}
	if v := os.Getenv("TRADER_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TRADER_SEED: %w", err)
		}
		c.Simulation.Seed = n
	}
	if v := os.Getenv("TRADER_TRACING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRADER_TRACING: %w", err)
		}
		c.Tracing.Enabled = b
	}
	return nil
}

// Policy resolves the strategy preset and applies the overrides.
func (c *Config) Policy() (strategy.Policy, error) {
	p, err := strategy.Preset(c.Strategy.Preset)
	if err != nil {
		return strategy.Policy{}, err
	}

	s := c.Strategy
	if s.EntryPct != 0 {
		p.EntryPct = s.EntryPct
	}
	if s.TakeProfitPct != 0 {
		p.TakeProfitPct = s.TakeProfitPct
	}
	if s.StopLossPct != 0 {
		p.StopLossPct = s.StopLossPct
	}
	if s.LossMultiplierBase != 0 {
		p.LossMultiplierBase = s.LossMultiplierBase
	}
	if s.LossMultiplierCap != nil {
		p.LossMultiplierCap = *s.LossMultiplierCap
	}
	if s.MaxWeeklyLossPct != 0 {
		p.MaxWeeklyLossPct = s.MaxWeeklyLossPct
	}
	if s.TradesPerDay != 0 {
		p.TradesPerDay = s.TradesPerDay
	}
	if s.CandleInterval != "" {
		p.CandleInterval = s.CandleInterval
	}
	if s.CandleRange != "" {
		p.CandleRange = s.CandleRange
	}

	if err := p.Validate(); err != nil {
		return strategy.Policy{}, err
	}
	return p, nil
}

// EMAPeriods returns the configured fast and slow periods, defaulting to 9/21.
func (c *Config) EMAPeriods() (fast, slow int) {
	fast, slow = c.Strategy.EMAFast, c.Strategy.EMASlow
	if fast == 0 {
		fast = DefaultEMAFast
	}
	if slow == 0 {
		slow = DefaultEMASlow
	}
	return fast, slow
}

// SourceTimeout parses Source.Timeout, defaulting to 10s.
func (c *Config) SourceTimeout() (time.Duration, error) {
	if c.Source.Timeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(c.Source.Timeout)
}

// TradesPerDay is the simulation override or the policy's cadence.
func (c *Config) TradesPerDay(p strategy.Policy) int {
	if c.Simulation.TradesPerDay > 0 {
		return c.Simulation.TradesPerDay
	}
	return p.TradesPerDay
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.Pair == "" {
		return fmt.Errorf("account.pair is required")
	}
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	switch c.Strategy.Outcome {
	case "", OutcomeWeighted, OutcomeRandomWalk:
	default:
		return fmt.Errorf("strategy.outcome must be %q or %q", OutcomeWeighted, OutcomeRandomWalk)
	}
	switch c.Strategy.Direction {
	case "", DirectionMomentum:
	case DirectionEMACross:
		fast, slow := c.EMAPeriods()
		if fast <= 0 || slow <= fast {
			return fmt.Errorf("strategy.ema_fast must be positive and below strategy.ema_slow")
		}
	default:
		return fmt.Errorf("strategy.direction must be %q or %q", DirectionMomentum, DirectionEMACross)
	}
	switch c.Source.Type {
	case SourceYahoo, SourceSynthetic:
	case SourceOanda:
		if c.Source.Token == "" {
			return fmt.Errorf("source.type %q needs TRADER_OANDA_TOKEN", SourceOanda)
		}
	default:
		return fmt.Errorf("source.type must be %q, %q or %q", SourceYahoo, SourceOanda, SourceSynthetic)
	}
	if d, err := c.SourceTimeout(); err != nil || d <= 0 {
		return fmt.Errorf("source.timeout must be a positive duration")
	}
	if c.Source.StartPrice < 0 {
		return fmt.Errorf("source.start_price must not be negative")
	}
	if c.Simulation.Days < 0 || c.Simulation.TradesPerDay < 0 {
		return fmt.Errorf("simulation days and trades_per_day must not be negative")
	}
	if c.Log.Format != "" && c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:      "paper-001",
			Pair:    "BTC-USD",
			Capital: 10000,
		},
		Strategy: StrategyConfig{
			Preset:    strategy.TenTrades,
			Outcome:   OutcomeWeighted,
			Direction: DirectionMomentum,
		},
		Source: SourceConfig{
			Type:    SourceYahoo,
			Timeout: "10s",
		},
		Simulation: SimulationConfig{
			Days: 7,
		},
		Journal: JournalConfig{
			DBPath: "./trader.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
