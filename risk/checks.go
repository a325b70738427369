package risk

import "fmt"

// Breach describes a tripped circuit breaker.
type Breach struct {
	Code       string  `json:"code"`
	Msg        string  `json:"message"`
	ProfitLoss float64 `json:"profit_loss"` // trailing window P/L
	Pct        float64 `json:"pct"`         // ProfitLoss as % of initial capital
	LimitPct   float64 `json:"limit_pct"`
}

func (b Breach) Error() string { return b.Msg }

// CheckWeeklyLoss trips when the trailing weekly P/L, as a percentage of the
// initial capital, is at or below -maxWeeklyLossPct. It returns nil otherwise.
func CheckWeeklyLoss(weeklyPL, initialCapital, maxWeeklyLossPct float64) *Breach {
	pct := WeeklyPct(weeklyPL, initialCapital)
	if pct > -maxWeeklyLossPct {
		return nil
	}
	return &Breach{
		Code:       "WEEKLY_LOSS_LIMIT",
		Msg:        fmt.Sprintf("weekly loss %.2f%% reached limit of %.2f%%", pct, maxWeeklyLossPct),
		ProfitLoss: weeklyPL,
		Pct:        pct,
		LimitPct:   maxWeeklyLossPct,
	}
}

// WeeklyPct is pl as a percentage of the initial capital.
func WeeklyPct(pl, initialCapital float64) float64 {
	if initialCapital <= 0 {
		return 0
	}
	return pl / initialCapital * 100
}
