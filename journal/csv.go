package journal

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/ledger"
)

var csvHeader = []string{
	"trade_id", "account_id", "trading_pair", "direction", "entry_price", "exit_price",
	"quantity", "amount", "entry_time", "exit_time", "exit_reason", "profit_loss",
	"profit_loss_pct", "loss_multiplier",
}

// CSV writes one row per trade to w, flushing after every row.
type CSV struct {
	mu sync.Mutex
	w  *csv.Writer
}

// NewCSV writes the header row to w.
func NewCSV(w io.Writer) (*CSV, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return &CSV{w: cw}, nil
}

func (j *CSV) RecordTrade(_ context.Context, t ledger.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		t.ID,
		t.AccountID,
		t.TradingPair,
		t.Direction.String(),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Quantity),
		f(t.Amount),
		t.EntryTime.UTC().Format(time.RFC3339Nano),
		t.ExitTime.UTC().Format(time.RFC3339Nano),
		string(t.ExitReason),
		f(t.ProfitLoss),
		f(t.ProfitLossPct),
		f(t.LossMultiplier),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

// Close flushes pending rows. The underlying writer stays open.
func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	return j.w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
