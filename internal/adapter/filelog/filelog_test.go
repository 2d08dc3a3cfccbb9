package filelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adancov/trading-venue/internal/domain"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func testOrder() *domain.Order {
	inst := domain.NewInstrument("AAPL", 150, 1000, 2, 0.1)
	return domain.NewOrder("ORD-1", "CLIENT-1", inst, domain.BuyLimit, 40, 155)
}

func TestNewWritesHeaders(t *testing.T) {
	_, dir := newTestLedger(t)

	for name, header := range map[string]string{
		"orders.txt":        "ORDER LOG - Trading Venue",
		"executions.txt":    "EXECUTION LOG - Trading Venue",
		"cancellations.txt": "CANCELLATION LOG - Trading Venue",
		"audit_log.txt":     "AUDIT LOG - Trading Venue",
	} {
		assert.Contains(t, readFile(t, dir, name), header)
	}
}

func TestRecordOrder(t *testing.T) {
	l, dir := newTestLedger(t)
	o := testOrder()

	require.NoError(t, l.RecordOrder(context.Background(), o, "ACCEPTED"))

	content := readFile(t, dir, "orders.txt")
	assert.Contains(t, content, "ORD-1")
	assert.Contains(t, content, "ACCEPTED")
}

func TestRecordExecution(t *testing.T) {
	l, dir := newTestLedger(t)
	e := domain.NewExecution(testOrder(), 52, decimal.NewFromFloat(0.005))

	require.NoError(t, l.RecordExecution(context.Background(), e))

	content := readFile(t, dir, "executions.txt")
	assert.Contains(t, content, "ORD-1")
}

func TestRecordCancellation(t *testing.T) {
	l, dir := newTestLedger(t)

	require.NoError(t, l.RecordCancellation(context.Background(), testOrder(), "expired after 10s"))

	content := readFile(t, dir, "cancellations.txt")
	assert.Contains(t, content, "ORD-1")
	assert.Contains(t, content, "expired after 10s")
}

func TestRecordAudit(t *testing.T) {
	l, dir := newTestLedger(t)
	snap := &domain.AuditSnapshot{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Prices:    map[string]float64{"AAPL": 152.4},
		Liquidity: map[string]domain.LiquidityLevel{
			"AAPL": {Available: 960, Max: 1000},
		},
		Commission:      map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(10.4)},
		PnL:             map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(2080)},
		TotalCommission: decimal.NewFromFloat(10.4),
		TotalPnL:        decimal.NewFromFloat(2080),
		NetProfit:       decimal.NewFromFloat(2090.4),
		Pending: []domain.PendingOrder{
			{ID: "ORD-2", ClientID: "CLIENT-2", Instrument: "AAPL",
				Side: domain.SellLimit, Volume: 10, LimitPrice: 170},
		},
		IntegrityOK: true,
	}

	require.NoError(t, l.RecordAudit(context.Background(), snap))

	content := readFile(t, dir, "audit_log.txt")
	assert.Contains(t, content, "AAPL: 152.40")
	assert.Contains(t, content, "960.00 / 1000.00")
	assert.Contains(t, content, "TOTAL COMMISSION: 10.40")
	assert.Contains(t, content, "NET PROFIT: 2090.40")
	assert.Contains(t, content, "PENDING ORDERS: 1")
	assert.Contains(t, content, "ORD-2")
	assert.NotContains(t, content, "INTEGRITY: VIOLATED")
}

func TestRecordAuditFlagsViolation(t *testing.T) {
	l, dir := newTestLedger(t)
	snap := &domain.AuditSnapshot{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		TotalCommission: decimal.Zero,
		TotalPnL:        decimal.Zero,
		NetProfit:       decimal.Zero,
		IntegrityOK:     false,
	}

	require.NoError(t, l.RecordAudit(context.Background(), snap))
	assert.Contains(t, readFile(t, dir, "audit_log.txt"), "INTEGRITY: VIOLATED")
}

func TestWriteAfterClose(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.Close())

	assert.Error(t, l.RecordOrder(context.Background(), testOrder(), "ACCEPTED"))
}
