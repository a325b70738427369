package sim

import (
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
)

// State is the lifecycle state of an Engine.
type State string

const (
	Inactive State = "inactive"
	Active   State = "active"
	Halted   State = "halted"
)

// Account identifies the capital pool a bot trades.
type Account struct {
	ID      string  `json:"id" yaml:"id"`
	Pair    string  `json:"pair" yaml:"pair"`
	Capital float64 `json:"capital" yaml:"capital"`
}

// SessionState is the mutable state of one engine.
type SessionState struct {
	AccountID      string
	TradingPair    string
	InitialCapital float64
	CurrentCapital float64
	Ladder         risk.Ladder
	Active         bool
	HaltedReason   string
}

// State derives the lifecycle state from the active flag and halt reason.
func (s SessionState) State() State {
	switch {
	case s.Active:
		return Active
	case s.HaltedReason != "":
		return Halted
	default:
		return Inactive
	}
}

// Status is a read-only snapshot of an engine.
type Status struct {
	State        State           `json:"state"`
	Active       bool            `json:"is_active"`
	HaltedReason string          `json:"halted_reason,omitempty"`
	AccountID    string          `json:"account_id"`
	TradingPair  string          `json:"trading_pair"`
	Policy       strategy.Policy `json:"policy"`

	InitialCapital float64 `json:"initial_capital"`
	CurrentCapital float64 `json:"current_capital"`

	LossMultiplier float64 `json:"current_loss_multiplier"`
	LossStreak     int     `json:"current_loss_count"`

	WeeklyProfitLoss    float64 `json:"weekly_profit_loss"`
	WeeklyProfitLossPct float64 `json:"weekly_profit_loss_percentage"`
	DailyTrades         int     `json:"daily_trades_count"`
	WeeklyTrades        int     `json:"weekly_trades_count"`
}
