package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/strategy"
)

// Scheduler runs ExecuteTrade for each registered engine on a fixed
// cadence derived from the engine's policy.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	journal journal.Journal
	log     *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a Scheduler. Trades are written to j when it is not nil.
// ctx is passed to every ExecuteTrade call.
func New(ctx context.Context, log *zap.Logger, j journal.Journal) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cl := Logger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:     ctx,
		journal: j,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Interval spreads the policy's daily trades evenly over 24 hours.
func Interval(p strategy.Policy) time.Duration {
	if p.TradesPerDay < 1 {
		return 24 * time.Hour
	}
	return 24 * time.Hour / time.Duration(p.TradesPerDay)
}

// every fires at a fixed period. Unlike cron.Every it keeps sub-second
// precision, so 1000 trades a day tick every 86.4s rather than 86s.
type every time.Duration

func (d every) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }

// Add schedules e. Each engine is scheduled at most once.
func (s *Scheduler) Add(e *sim.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.Key()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("scheduler: %s already scheduled", key)
	}

	period := Interval(e.Policy())
	id := s.cron.Schedule(every(period), cron.FuncJob(func() { s.Tick(e) }))
	s.entries[key] = id

	s.log.Info("bot scheduled", zap.String("bot", key), zap.Duration("every", period))
	return nil
}

// Remove unschedules the engine with the given key.
func (s *Scheduler) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[key]
	if ok {
		s.cron.Remove(id)
		delete(s.entries, key)
	}
	return ok
}

// Next reports when the engine with the given key runs next.
func (s *Scheduler) Next(key string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Tick executes one trade on e, journals it and logs the outcome.
func (s *Scheduler) Tick(e *sim.Engine) (sim.TradeResult, error) {
	log := s.log.With(zap.String("bot", e.Key()))

	res, err := e.ExecuteTrade(s.ctx)
	switch {
	case errors.Is(err, sim.ErrInactiveBot):
		log.Debug("bot inactive, skipping tick")
		return res, err
	case errors.Is(err, sim.ErrMarketDataUnavailable):
		log.Warn("no market data, will retry next tick", zap.Error(err))
		return res, err
	case err != nil:
		log.Error("trade failed", zap.Error(err))
		return res, err
	}

	if res.Halted() {
		log.Warn("bot halted", zap.String("reason", res.Message))
		return res, nil
	}

	log.Info("trade closed",
		zap.String("trade_id", res.Trade.ID),
		zap.String("exit_reason", string(res.Trade.ExitReason)),
		zap.Float64("pl", res.Trade.ProfitLoss),
		zap.Float64("capital", res.Capital),
		zap.Float64("multiplier", res.LossMultiplier))

	if s.journal != nil {
		if err := s.journal.RecordTrade(s.ctx, *res.Trade); err != nil {
			log.Error("journal trade", zap.Error(err))
			return res, fmt.Errorf("journal trade %s: %w", res.Trade.ID, err)
		}
	}
	return res, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info("scheduler stopped")
	return ctx
}
