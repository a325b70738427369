package journal

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/ledger"
)

// Journal streams closed trades to an output as they happen. Nothing is
// read back: trade history lasts as long as the session.
type Journal interface {
	RecordTrade(ctx context.Context, t ledger.Trade) error
	Close() error
}

// Multi fans a trade out to several journals and returns the first error.
type Multi []Journal

func (m Multi) RecordTrade(ctx context.Context, t ledger.Trade) error {
	for _, j := range m {
		if err := j.RecordTrade(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Text writes one human readable line per trade.
type Text struct {
	mu sync.Mutex
	w  io.Writer
}

func NewText(w io.Writer) *Text { return &Text{w: w} }

func (j *Text) RecordTrade(_ context.Context, t ledger.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := fmt.Fprintf(j.w, "%s %s/%s: %s %s @ %.5f -> %.5f (%s) pl=%s multiplier=%g\n",
		t.ExitTime.UTC().Format(time.RFC3339), t.AccountID, t.TradingPair, t.ID, t.Direction,
		t.EntryPrice, t.ExitPrice, t.ExitReason, money(t.ProfitLoss), t.LossMultiplier)
	return err
}

func (j *Text) Close() error { return nil }
