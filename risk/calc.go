package risk

import (
	"fmt"

	"github.com/rustyeddy/papertrader/strategy"
)

// Size is the output of PositionSize.
type Size struct {
	Amount   float64 // capital committed, account currency
	Quantity float64 // units of the traded asset
}

// PositionSize commits entryPct percent of capital, scaled by the loss
// multiplier, at price.
func PositionSize(capital, entryPct, multiplier, price float64) (Size, error) {
	if price <= 0 {
		return Size{}, fmt.Errorf("position size: price must be positive, got %v", price)
	}
	amount := capital * (entryPct / 100) * multiplier
	return Size{Amount: amount, Quantity: amount / price}, nil
}

// Targets returns the take-profit and stop-loss prices for an entry.
// Longs take profit above and stop below; shorts the other way round.
func Targets(dir strategy.Direction, price, takeProfitPct, stopLossPct float64) (takeProfit, stopLoss float64) {
	if dir == strategy.Short {
		return price * (1 - takeProfitPct/100), price * (1 + stopLossPct/100)
	}
	return price * (1 + takeProfitPct/100), price * (1 - stopLossPct/100)
}

// ProfitLoss is the signed P/L of closing quantity units at exit.
func ProfitLoss(dir strategy.Direction, entry, exit, quantity float64) float64 {
	return dir.Sign() * (exit - entry) * quantity
}

// ProfitLossPct expresses pl as a percentage of the committed amount.
func ProfitLossPct(pl, amount float64) float64 {
	if amount == 0 {
		return 0
	}
	return pl / amount * 100
}
