package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidPolicy is wrapped by every Policy.Validate failure.
var ErrInvalidPolicy = errors.New("invalid policy")

// Policy is the immutable parameter set of one strategy variant.
// Percentages are expressed in percent, so 5.88 means 5.88%.
type Policy struct {
	Name string `json:"name" yaml:"name"`

	EntryPct      float64 `json:"entry_pct" yaml:"entry_pct"`
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`

	// Martingale ladder: size is multiplied by LossMultiplierBase^streak,
	// the streak never growing past LossMultiplierCap.
	LossMultiplierBase float64 `json:"loss_multiplier_base" yaml:"loss_multiplier_base"`
	LossMultiplierCap  int     `json:"loss_multiplier_cap" yaml:"loss_multiplier_cap"`

	// Circuit breaker on the trailing 7 day P/L.
	MaxWeeklyLossPct float64 `json:"max_weekly_loss_pct" yaml:"max_weekly_loss_pct"`

	TradesPerDay   int    `json:"trades_per_day" yaml:"trades_per_day"`
	CandleInterval string `json:"candle_interval" yaml:"candle_interval"`
	CandleRange    string `json:"candle_range" yaml:"candle_range"`
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	switch {
	case p.EntryPct <= 0:
		return fmt.Errorf("%w: entry_pct must be positive", ErrInvalidPolicy)
	case p.TakeProfitPct <= 0:
		return fmt.Errorf("%w: take_profit_pct must be positive", ErrInvalidPolicy)
	case p.TakeProfitPct >= 100:
		return fmt.Errorf("%w: take_profit_pct must be below 100", ErrInvalidPolicy)
	case p.StopLossPct <= 0:
		return fmt.Errorf("%w: stop_loss_pct must be positive", ErrInvalidPolicy)
	case p.StopLossPct >= 100:
		return fmt.Errorf("%w: stop_loss_pct must be below 100", ErrInvalidPolicy)
	case p.MaxWeeklyLossPct <= 0:
		return fmt.Errorf("%w: max_weekly_loss_pct must be positive", ErrInvalidPolicy)
	case p.LossMultiplierBase < 1:
		return fmt.Errorf("%w: loss_multiplier_base must be at least 1", ErrInvalidPolicy)
	case p.LossMultiplierCap < 0:
		return fmt.Errorf("%w: loss_multiplier_cap must not be negative", ErrInvalidPolicy)
	case p.TradesPerDay < 1:
		return fmt.Errorf("%w: trades_per_day must be at least 1", ErrInvalidPolicy)
	case p.CandleInterval == "":
		return fmt.Errorf("%w: candle_interval is required", ErrInvalidPolicy)
	case p.CandleRange == "":
		return fmt.Errorf("%w: candle_range is required", ErrInvalidPolicy)
	}
	return nil
}

const (
	ThousandTrades = "thousand_trades"
	TenTrades      = "ten_trades"
)

var presets = map[string]Policy{
	ThousandTrades: {
		Name:               ThousandTrades,
		EntryPct:           5.88,
		TakeProfitPct:      0.18,
		StopLossPct:        0.09,
		LossMultiplierBase: 2,
		LossMultiplierCap:  5,
		MaxWeeklyLossPct:   20,
		TradesPerDay:       1000,
		CandleInterval:     "1m",
		CandleRange:        "1d",
	},
	TenTrades: {
		Name:               TenTrades,
		EntryPct:           5,
		TakeProfitPct:      9,
		StopLossPct:        4.5,
		LossMultiplierBase: 2,
		LossMultiplierCap:  4,
		MaxWeeklyLossPct:   20,
		TradesPerDay:       10,
		CandleInterval:     "15m",
		CandleRange:        "1d",
	},
}

// Preset returns a copy of the named built-in policy.
func Preset(name string) (Policy, error) {
	p, ok := presets[name]
	if !ok {
		return Policy{}, fmt.Errorf("unknown strategy preset %q (known: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists the built-in policies in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
