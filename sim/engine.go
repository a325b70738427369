package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
)

var tracer = otel.Tracer("github.com/rustyeddy/papertrader/sim")

// Engine runs one strategy policy against one account and trading pair.
//
// All methods are serialized by a mutex, so a status read can never observe
// a half applied trade. Each ExecuteTrade is all-or-nothing: capital, ladder
// and ledger are only touched once candles were fetched and the trade is
// fully computed.
type Engine struct {
	mu sync.Mutex

	policy  strategy.Policy
	state   SessionState
	ledger  *ledger.Ledger
	source  market.Source
	dir     strategy.DirectionModel
	outcome strategy.OutcomeModel
	now     func() time.Time
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now. Window eviction and trade timestamps use it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDirectionModel replaces the default momentum model.
func WithDirectionModel(m strategy.DirectionModel) Option {
	return func(e *Engine) { e.dir = m }
}

// WithOutcomeModel replaces the default 55/45 weighted draw.
func WithOutcomeModel(m strategy.OutcomeModel) Option {
	return func(e *Engine) { e.outcome = m }
}

// WithLocation sets the timezone of the daily trade window. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.ledger = ledger.New(ledger.WithLocation(loc)) }
}

// WithSeed seeds the default direction and outcome models so runs repeat.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		rng := rand.New(rand.NewSource(seed))
		e.dir = strategy.NewMomentum(rand.New(rand.NewSource(rng.Int63())))
		e.outcome = strategy.NewWeighted(rand.New(rand.NewSource(rng.Int63())))
	}
}

// NewEngine returns an Inactive engine for acct trading under policy.
func NewEngine(acct Account, policy strategy.Policy, src market.Source, opts ...Option) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if acct.Pair == "" {
		return nil, fmt.Errorf("new engine: trading pair is required")
	}
	if acct.Capital <= 0 {
		return nil, fmt.Errorf("new engine: capital must be positive, got %v", acct.Capital)
	}
	if src == nil {
		return nil, fmt.Errorf("new engine: market source is required")
	}

	e := &Engine{
		policy: policy,
		state: SessionState{
			AccountID:      acct.ID,
			TradingPair:    acct.Pair,
			InitialCapital: acct.Capital,
			CurrentCapital: acct.Capital,
			Ladder:         risk.NewLadder(policy.LossMultiplierBase, policy.LossMultiplierCap),
		},
		ledger: ledger.New(),
		source: src,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dir == nil {
		e.dir = strategy.NewMomentum(nil)
	}
	if e.outcome == nil {
		e.outcome = strategy.NewWeighted(nil)
	}
	e.log = e.log.With(
		zap.String("account", acct.ID),
		zap.String("pair", acct.Pair),
		zap.String("strategy", policy.Name),
	)
	return e, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() strategy.Policy { return e.policy }

// Key identifies the engine within a Registry.
func (e *Engine) Key() string { return Key(e.state.AccountID, e.state.TradingPair) }

// Start activates the engine. Starting an active engine only confirms it.
// Restarting after a halt clears the halt reason but keeps capital and
// ladder as they are.
func (e *Engine) Start() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active {
		e.state.Active = true
		e.state.HaltedReason = ""
		e.log.Info("bot started")
	}
	return Result{
		Status:      StatusStarted,
		Message:     fmt.Sprintf("%s bot started on %s", e.policy.Name, e.state.TradingPair),
		TradingPair: e.state.TradingPair,
	}
}

// Stop deactivates the engine.
func (e *Engine) Stop() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Active {
		e.state.Active = false
		e.log.Info("bot stopped")
	}
	return Result{
		Status:      StatusStopped,
		Message:     fmt.Sprintf("%s bot stopped on %s", e.policy.Name, e.state.TradingPair),
		TradingPair: e.state.TradingPair,
	}
}

// Active reports whether the engine accepts trades.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Active
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.State()
}

// Session returns a copy of the session state.
func (e *Engine) Session() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Status returns a snapshot for reporting.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	weekly := e.ledger.WeeklyProfitLoss(now)
	daily, weeklyN := e.ledger.Counts(now)

	return Status{
		State:               e.state.State(),
		Active:              e.state.Active,
		HaltedReason:        e.state.HaltedReason,
		AccountID:           e.state.AccountID,
		TradingPair:         e.state.TradingPair,
		Policy:              e.policy,
		InitialCapital:      e.state.InitialCapital,
		CurrentCapital:      e.state.CurrentCapital,
		LossMultiplier:      e.state.Ladder.Multiplier,
		LossStreak:          e.state.Ladder.Streak,
		WeeklyProfitLoss:    weekly,
		WeeklyProfitLossPct: risk.WeeklyPct(weekly, e.state.InitialCapital),
		DailyTrades:         daily,
		WeeklyTrades:        weeklyN,
	}
}

// WeeklyProfitLoss sums the P/L of trades closed in the trailing 7 days.
func (e *Engine) WeeklyProfitLoss() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.WeeklyProfitLoss(e.now())
}

// Trades returns the trades in the weekly and daily windows.
func (e *Engine) Trades() (weekly, daily []ledger.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	return e.ledger.Weekly(now), e.ledger.Daily(now)
}

// CheckWeeklyLossLimit returns the breach if the trailing weekly loss has
// reached the policy limit, or nil. Only an active engine is halted; a
// stopped engine stays inactive.
func (e *Engine) CheckWeeklyLossLimit() *risk.Breach {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkWeeklyLossLimitLocked(e.now())
}

func (e *Engine) checkWeeklyLossLimitLocked(now time.Time) *risk.Breach {
	b := risk.CheckWeeklyLoss(e.ledger.WeeklyProfitLoss(now), e.state.InitialCapital, e.policy.MaxWeeklyLossPct)
	if b == nil {
		return nil
	}
	if !e.state.Active {
		return b
	}
	e.log.Warn("weekly loss limit reached, halting",
		zap.Float64("weekly_pl", b.ProfitLoss),
		zap.Float64("weekly_pct", b.Pct),
		zap.Float64("limit_pct", b.LimitPct))
	e.state.Active = false
	e.state.HaltedReason = b.Msg
	return b
}

// ExecuteTrade opens and resolves one paper trade.
//
// It returns ErrInactiveBot when the engine is not active and a
// *MarketDataError when the source fails; both leave the session untouched.
// A tripped weekly breaker is not an error: the engine halts and the result
// has Status stopped with Breach set.
func (e *Engine) ExecuteTrade(ctx context.Context) (TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := tracer.Start(ctx, "sim.ExecuteTrade")
	defer span.End()
	span.SetAttributes(
		attribute.String("account", e.state.AccountID),
		attribute.String("pair", e.state.TradingPair),
		attribute.String("strategy", e.policy.Name),
	)

	if !e.state.Active {
		return e.failLocked(span, ErrInactiveBot), ErrInactiveBot
	}

	if b := e.checkWeeklyLossLimitLocked(e.now()); b != nil {
		span.AddEvent("weekly loss limit reached")
		return TradeResult{
			Status:         StatusStopped,
			Message:        b.Msg,
			Capital:        e.state.CurrentCapital,
			LossMultiplier: e.state.Ladder.Multiplier,
			LossStreak:     e.state.Ladder.Streak,
			Breach:         b,
		}, nil
	}

	series, err := e.source.Fetch(ctx, e.state.TradingPair, e.policy.CandleInterval, e.policy.CandleRange)
	if err == nil && series.CurrentPrice <= 0 {
		err = market.NoData(e.state.TradingPair, "current price %v", series.CurrentPrice)
	}
	if err != nil {
		mdErr := &MarketDataError{Pair: e.state.TradingPair, Err: err}
		e.log.Warn("market data unavailable", zap.Error(err))
		return e.failLocked(span, mdErr), mdErr
	}

	entryTime := e.now()
	price := series.CurrentPrice
	applied := e.state.Ladder.Multiplier

	size, err := risk.PositionSize(e.state.CurrentCapital, e.policy.EntryPct, applied, price)
	if err != nil {
		return e.failLocked(span, err), err
	}

	dir := e.dir.Direction(series)
	tp, sl := risk.Targets(dir, price, e.policy.TakeProfitPct, e.policy.StopLossPct)

	exit, err := e.outcome.Resolve(strategy.Order{
		Direction:  dir,
		Entry:      price,
		TakeProfit: tp,
		StopLoss:   sl,
	})
	if err != nil {
		err = fmt.Errorf("resolve outcome: %w", err)
		return e.failLocked(span, err), err
	}

	pl := risk.ProfitLoss(dir, price, exit.Price, size.Quantity)

	exitTime := e.now()
	if exitTime.Before(entryTime) {
		exitTime = entryTime
	}

	trade := ledger.Trade{
		ID:             id.At(exitTime),
		AccountID:      e.state.AccountID,
		TradingPair:    e.state.TradingPair,
		Direction:      dir,
		EntryPrice:     price,
		ExitPrice:      exit.Price,
		Quantity:       size.Quantity,
		Amount:         size.Amount,
		EntryTime:      entryTime,
		ExitTime:       exitTime,
		ExitReason:     exit.Reason,
		ProfitLoss:     pl,
		ProfitLossPct:  risk.ProfitLossPct(pl, size.Amount),
		LossMultiplier: applied,
	}

	// Commit. Nothing below can fail.
	e.state.CurrentCapital += pl
	e.state.Ladder.Apply(exit.Reason)
	e.ledger.Add(trade, exitTime)

	e.log.Debug("trade executed",
		zap.String("trade_id", trade.ID),
		zap.Stringer("direction", dir),
		zap.String("exit_reason", string(exit.Reason)),
		zap.Float64("entry", price),
		zap.Float64("exit", exit.Price),
		zap.Float64("pl", pl),
		zap.Float64("capital", e.state.CurrentCapital),
		zap.Float64("multiplier", e.state.Ladder.Multiplier))
	span.SetAttributes(
		attribute.String("trade.id", trade.ID),
		attribute.String("trade.exit_reason", string(exit.Reason)),
		attribute.Float64("trade.pl", pl),
	)

	return TradeResult{
		Status:         StatusSuccess,
		Trade:          &trade,
		Capital:        e.state.CurrentCapital,
		LossMultiplier: e.state.Ladder.Multiplier,
		LossStreak:     e.state.Ladder.Streak,
	}, nil
}

func (e *Engine) failLocked(span trace.Span, err error) TradeResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return TradeResult{
		Status:         StatusError,
		Message:        err.Error(),
		Capital:        e.state.CurrentCapital,
		LossMultiplier: e.state.Ladder.Multiplier,
		LossStreak:     e.state.Ladder.Streak,
	}
}

// Capital returns the current capital.
func (e *Engine) Capital() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentCapital
}

// ResetBaseline puts the session back at its starting point: initial
// capital, ladder at rest and empty trade windows. The active flag is kept.
func (e *Engine) ResetBaseline() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.CurrentCapital = e.state.InitialCapital
	e.state.Ladder.Reset()
	e.ledger.Reset()
}

// RestoreCapital overwrites the current capital, e.g. with a value saved
// before a simulation.
func (e *Engine) RestoreCapital(capital float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.CurrentCapital = capital
}
