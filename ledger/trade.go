package ledger

import (
	"time"

	"github.com/rustyeddy/papertrader/strategy"
)

// Trade is a closed paper trade. It is never modified after creation.
type Trade struct {
	ID          string             `json:"id"`
	AccountID   string             `json:"account_id"`
	TradingPair string             `json:"trading_pair"`
	Direction   strategy.Direction `json:"direction"`

	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   float64 `json:"quantity"`
	Amount     float64 `json:"amount"`

	EntryTime  time.Time           `json:"entry_time"`
	ExitTime   time.Time           `json:"exit_time"`
	ExitReason strategy.ExitReason `json:"exit_reason"`

	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`

	// LossMultiplier is the ladder multiplier that sized this trade.
	LossMultiplier float64 `json:"loss_multiplier"`
}

// Won reports whether the trade closed with a positive P/L.
func (t Trade) Won() bool { return t.ProfitLoss > 0 }
