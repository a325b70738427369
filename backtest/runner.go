package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/sim"
)

var tracer = otel.Tracer("github.com/rustyeddy/papertrader/backtest")

// Runner drives an engine through a number of synthetic trading days.
type Runner struct {
	Engine *sim.Engine
	Log    *zap.Logger

	// Now stamps the report; defaults to time.Now.
	Now func() time.Time
}

// Run executes days × tradesPerDay trades against the engine and returns
// the aggregated report.
//
// The engine must be active. The run starts from a clean baseline (initial
// capital, ladder at rest, empty trade windows) and stops early when the
// weekly breaker halts the engine. Whatever happens, the engine's capital
// is put back to its value before the run. Ladder and trade windows keep
// the state the run left them in.
//
// Trades that fail for lack of market data are counted in Report.Errors and
// skipped. Any other error, including ctx being cancelled, aborts the run
// and is returned along with the partial report.
func (r *Runner) Run(ctx context.Context, days, tradesPerDay int) (Report, error) {
	if r.Engine == nil {
		return Report{}, fmt.Errorf("backtest: Engine is required")
	}
	if days < 1 || tradesPerDay < 1 {
		return Report{}, fmt.Errorf("backtest: days and trades per day must be positive (got %d, %d)", days, tradesPerDay)
	}
	if !r.Engine.Active() {
		return Report{}, sim.ErrInactiveBot
	}

	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	ctx, span := tracer.Start(ctx, "backtest.Run")
	defer span.End()

	saved := r.Engine.Capital()
	defer r.Engine.RestoreCapital(saved)

	r.Engine.ResetBaseline()
	sess := r.Engine.Session()

	rep := Report{
		RunID:          id.New(),
		Strategy:       r.Engine.Policy().Name,
		AccountID:      sess.AccountID,
		TradingPair:    sess.TradingPair,
		Days:           days,
		TradesPerDay:   tradesPerDay,
		InitialCapital: sess.InitialCapital,
		Started:        now(),
	}
	span.SetAttributes(
		attribute.String("run.id", rep.RunID),
		attribute.String("pair", rep.TradingPair),
		attribute.Int("days", days),
		attribute.Int("trades_per_day", tradesPerDay),
	)
	log = log.With(zap.String("run_id", rep.RunID), zap.String("pair", rep.TradingPair))
	log.Info("simulation started", zap.Int("days", days), zap.Int("trades_per_day", tradesPerDay))

	finish := func(err error) (Report, error) {
		rep.FinalCapital = r.Engine.Capital()
		rep.TotalProfitLoss = rep.FinalCapital - rep.InitialCapital
		rep.TotalProfitLossPct = pct(rep.TotalProfitLoss, rep.InitialCapital)
		rep.Finished = now()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("simulation aborted", zap.Error(err))
		} else {
			log.Info("simulation finished",
				zap.Int("trades", rep.TotalTrades),
				zap.Float64("final_capital", rep.FinalCapital),
				zap.Bool("halted", rep.Halted))
		}
		return rep, err
	}

	for day := 1; day <= days; day++ {
		dr := DayResult{Day: day}
		var halted bool

		for i := 0; i < tradesPerDay; i++ {
			if err := ctx.Err(); err != nil {
				rep.addDay(r.closeDay(dr))
				return finish(err)
			}

			res, err := r.Engine.ExecuteTrade(ctx)
			switch {
			case errors.Is(err, sim.ErrMarketDataUnavailable):
				rep.Errors++
				log.Debug("trade skipped", zap.Int("day", day), zap.Error(err))
				continue
			case err != nil:
				rep.addDay(r.closeDay(dr))
				return finish(fmt.Errorf("backtest: day %d trade %d: %w", day, i+1, err))
			}

			if res.Halted() {
				halted = true
				break
			}
			dr.add(res.Trade.ProfitLoss)
		}

		rep.addDay(r.closeDay(dr))

		if halted || r.Engine.State() == sim.Halted {
			rep.Halted = true
			rep.HaltedReason = r.Engine.Session().HaltedReason
			log.Info("simulation halted by weekly loss limit", zap.Int("day", day))
			break
		}
	}

	return finish(nil)
}

// closeDay fills in the capital figures for a finished day. The day's
// starting capital is derived from where it ended and what it made.
func (r *Runner) closeDay(d DayResult) DayResult {
	d.EndingCapital = r.Engine.Capital()
	d.StartingCapital = d.EndingCapital - d.ProfitLoss
	if d.StartingCapital > 0 {
		d.ProfitLossPct = d.ProfitLoss / d.StartingCapital * 100
	}
	return d
}

func pct(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return v / base * 100
}
