package journal

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	exit := time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC)
	tr := sampleTrade("01HXYZABCDEFGH12345678", exit, -22.5)

	result := FormatTradeOrg(tr)

	assert.True(t, strings.HasPrefix(result, "** Trade: BTC-USD short (12345678)\n"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HXYZABCDEFGH12345678")
	assert.Contains(t, result, ":ENTRY_PRICE: 100.00000")
	assert.Contains(t, result, ":EXIT_PRICE: 104.50000")
	assert.Contains(t, result, ":EXIT_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":EXIT_REASON: stop_loss")
	assert.Contains(t, result, ":PROFIT_LOSS: -22.50")
	assert.Contains(t, result, ":AMOUNT: 500.00")
	assert.Contains(t, result, ":MULTIPLIER: 2")
	assert.True(t, strings.HasSuffix(result, ":END:\n"))
}

func TestOrgJournal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	j := NewOrg(&buf)

	exit := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(context.Background(), sampleTrade("A", exit, 1)))
	require.NoError(t, j.RecordTrade(context.Background(), sampleTrade("B", exit, 2)))
	require.NoError(t, j.Close())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, ":END:\n\n** Trade:")
	assert.True(t, strings.HasPrefix(out, "** Trade: BTC-USD short (A)\n"))
}

func TestFormatSimulationOrg(t *testing.T) {
	t.Parallel()

	out, err := FormatSimulationOrg(sampleReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "* SIMULATION: ten_trades BTC-USD\n"))
	assert.Contains(t, out, ":RUN_ID:      01HRUN")
	assert.Contains(t, out, ":DAYS:        2/3")
	assert.Contains(t, out, ":START_BAL:   10000.00")
	assert.Contains(t, out, ":END_BAL:     10090.00")
	assert.Contains(t, out, ":RETURN_PCT:  0.90%")
	assert.Contains(t, out, ":WIN_RATE:    75.00%")
	assert.Contains(t, out, ":HALTED:      yes")
	assert.Contains(t, out, "Halted: weekly loss")
	assert.Contains(t, out, "| 1 | 10000.00 | 10045.00 | 45.00 | 0.45% | 2 | 0 |")
	assert.Contains(t, out, "| 2 | 10045.00 | 10090.00 | 45.00 | 0.45% | 1 | 1 |")
}
