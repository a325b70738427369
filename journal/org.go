package journal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/ledger"
)

// FormatTradeOrg renders a trade as an Org-mode block with the structured
// facts in a PROPERTIES drawer.
func FormatTradeOrg(t ledger.Trade) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.TradingPair, t.Direction, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":ACCOUNT: %s\n", t.AccountID))
	b.WriteString(fmt.Sprintf(":PAIR: %s\n", t.TradingPair))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":QUANTITY: %.8f\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":AMOUNT: %s\n", money(t.Amount)))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":ENTRY_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":EXIT_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":EXIT_REASON: %s\n", t.ExitReason))
	b.WriteString(fmt.Sprintf(":PROFIT_LOSS: %s\n", money(t.ProfitLoss)))
	b.WriteString(fmt.Sprintf(":MULTIPLIER: %g\n", t.LossMultiplier))
	b.WriteString(":END:\n")

	return b.String()
}

// Org streams trades to w as Org-mode entries separated by blank lines.
type Org struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

func NewOrg(w io.Writer) *Org { return &Org{w: w} }

func (j *Org) RecordTrade(_ context.Context, t ledger.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := FormatTradeOrg(t)
	if j.n > 0 {
		entry = "\n" + entry
	}
	if _, err := io.WriteString(j.w, entry); err != nil {
		return err
	}
	j.n++
	return nil
}

func (j *Org) Close() error { return nil }

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}

func money(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

var simulationOrgFuncs = template.FuncMap{
	"money": money,
	"pct":   func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) + "%" },
	"winRate": func(r backtest.Report) string {
		return decimal.NewFromFloat(r.WinRate()).StringFixed(2) + "%"
	},
	"days": func(r backtest.Report) int { return r.DaysSimulated() },
}

var simulationOrg = template.Must(template.New("simulation").Funcs(simulationOrgFuncs).Parse(SimulationOrgTemplate))

// FormatSimulationOrg renders a simulation report as an Org-mode entry.
func FormatSimulationOrg(r backtest.Report) (string, error) {
	var buf bytes.Buffer
	if err := simulationOrg.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const SimulationOrgTemplate = `* SIMULATION: {{.Strategy}} {{.TradingPair}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:ACCOUNT:     {{.AccountID}}
:PAIR:        {{.TradingPair}}
:DAYS:        {{days .}}/{{.Days}}
:TRADES_DAY:  {{.TradesPerDay}}
:START_BAL:   {{money .InitialCapital}}
:END_BAL:     {{money .FinalCapital}}
:NET_PL:      {{money .TotalProfitLoss}}
:RETURN_PCT:  {{pct .TotalProfitLossPct}}
:TRADES:      {{.TotalTrades}}
:WINS:        {{.Profitable}}
:LOSSES:      {{.Losing}}
:WIN_RATE:    {{winRate .}}
:HALTED:      {{if .Halted}}yes{{else}}no{{end}}
:CREATED:     [{{.Started.Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Halted}}

Halted: {{.HaltedReason}}
{{- end}}

** Daily Results
| Day | Start | End | P/L | P/L % | Wins | Losses |
|-----+-------+-----+-----+-------+------+--------|
{{- range .Daily}}
| {{.Day}} | {{money .StartingCapital}} | {{money .EndingCapital}} | {{money .ProfitLoss}} | {{pct .ProfitLossPct}} | {{.Profitable}} | {{.Losing}} |
{{- end}}
`
