// Package filelog writes the venue's append-only text ledgers: one file
// each for admission decisions, executions, cancellations, and audit
// snapshots.
package filelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

const (
	ordersFile        = "orders.txt"
	executionsFile    = "executions.txt"
	cancellationsFile = "cancellations.txt"
	auditFile         = "audit_log.txt"
)

var _ port.Ledger = (*Ledger)(nil)

// Ledger appends to four text files under a directory. Files are
// truncated and given a header at startup; the core never reads them.
type Ledger struct {
	mu    sync.Mutex
	files map[string]*os.File
}

func New(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filelog: create dir: %w", err)
	}
	headers := map[string]string{
		ordersFile:        "ORDER LOG - Trading Venue",
		executionsFile:    "EXECUTION LOG - Trading Venue",
		cancellationsFile: "CANCELLATION LOG - Trading Venue",
		auditFile:         "AUDIT LOG - Trading Venue",
	}
	l := &Ledger{files: make(map[string]*os.File, len(headers))}
	for name, header := range headers {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("filelog: create %s: %w", name, err)
		}
		fmt.Fprintln(f, header)
		fmt.Fprintln(f, strings.Repeat("=", 80))
		l.files[name] = f
	}
	return l, nil
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *Ledger) write(name, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[name]
	if !ok {
		return fmt.Errorf("filelog: unknown ledger %s", name)
	}
	_, err := fmt.Fprintln(f, line)
	return err
}

func (l *Ledger) stamped(name, msg string) error {
	return l.write(name, time.Now().Format(time.DateTime)+" | "+msg)
}

func (l *Ledger) RecordOrder(_ context.Context, o *domain.Order, decision string) error {
	return l.stamped(ordersFile, o.String()+" - "+decision)
}

func (l *Ledger) RecordExecution(_ context.Context, e *domain.Execution) error {
	return l.stamped(executionsFile, e.String())
}

func (l *Ledger) RecordCancellation(_ context.Context, o *domain.Order, reason string) error {
	return l.stamped(cancellationsFile,
		fmt.Sprintf("%s | %s | %s", o.ID, o.Instrument.ID, reason))
}

func (l *Ledger) RecordAudit(_ context.Context, snap *domain.AuditSnapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== AUDIT %s ===\n", snap.Timestamp.Format(time.DateTime))

	b.WriteString("CURRENT PRICES:\n")
	for id, price := range snap.Prices {
		fmt.Fprintf(&b, "  %s: %.2f\n", id, price)
	}

	b.WriteString("\nAVAILABLE LIQUIDITY:\n")
	for id, level := range snap.Liquidity {
		fmt.Fprintf(&b, "  %s: %.2f / %.2f\n", id, level.Available, level.Max)
	}

	b.WriteString("\nCOMMISSION PER INSTRUMENT:\n")
	for id, v := range snap.Commission {
		fmt.Fprintf(&b, "  %s: %s\n", id, v.StringFixed(2))
	}
	fmt.Fprintf(&b, "TOTAL COMMISSION: %s\n", snap.TotalCommission.StringFixed(2))

	b.WriteString("\nP&L PER INSTRUMENT:\n")
	for id, v := range snap.PnL {
		fmt.Fprintf(&b, "  %s: %s\n", id, v.StringFixed(2))
	}
	fmt.Fprintf(&b, "TOTAL P&L: %s\n", snap.TotalPnL.StringFixed(2))
	fmt.Fprintf(&b, "NET PROFIT: %s\n", snap.NetProfit.StringFixed(2))

	if !snap.IntegrityOK {
		b.WriteString("\nINTEGRITY: VIOLATED\n")
	}

	fmt.Fprintf(&b, "\nPENDING ORDERS: %d\n", len(snap.Pending))
	for _, p := range snap.Pending {
		fmt.Fprintf(&b, "  %s | %s | %s | %s | vol=%.2f | limit=%.2f\n",
			p.ID, p.ClientID, p.Instrument, p.Side, p.Volume, p.LimitPrice)
	}

	return l.write(auditFile, b.String())
}
