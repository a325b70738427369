package sim

import (
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/risk"
)

// ResultStatus discriminates engine results.
type ResultStatus string

const (
	StatusStarted ResultStatus = "started"
	StatusStopped ResultStatus = "stopped"
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// Result confirms a Start or Stop.
type Result struct {
	Status      ResultStatus `json:"status"`
	Message     string       `json:"message"`
	TradingPair string       `json:"trading_pair"`
}

// TradeResult is returned by every ExecuteTrade call.
//
//   - success: Trade is set and Capital/LossMultiplier reflect it.
//   - stopped: the weekly breaker tripped; Breach is set and no trade was made.
//   - error:   nothing changed; the accompanying error says why.
type TradeResult struct {
	Status         ResultStatus  `json:"status"`
	Message        string        `json:"message,omitempty"`
	Trade          *ledger.Trade `json:"trade,omitempty"`
	Capital        float64       `json:"current_capital"`
	LossMultiplier float64       `json:"current_loss_multiplier"`
	LossStreak     int           `json:"current_loss_count"`
	Breach         *risk.Breach  `json:"breach,omitempty"`
}

// Halted reports whether this call tripped the weekly breaker.
func (r TradeResult) Halted() bool { return r.Status == StatusStopped && r.Breach != nil }
