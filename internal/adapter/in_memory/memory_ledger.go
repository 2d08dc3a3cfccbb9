package in_memory

import (
	"context"
	"sync"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

var _ port.Ledger = (*MemoryLedger)(nil)

// OrderRecord is one admission decision kept by the memory ledger.
type OrderRecord struct {
	Order    *domain.Order
	Decision string
}

// CancellationRecord is one expiry kept by the memory ledger.
type CancellationRecord struct {
	Order  *domain.Order
	Reason string
}

// MemoryLedger keeps every record in slices. Used in tests and as the
// default sink when no storage is configured.
type MemoryLedger struct {
	mu            sync.Mutex
	orders        []OrderRecord
	executions    []*domain.Execution
	cancellations []CancellationRecord
	audits        []*domain.AuditSnapshot
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) RecordOrder(_ context.Context, o *domain.Order, decision string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = append(l.orders, OrderRecord{Order: o, Decision: decision})
	return nil
}

func (l *MemoryLedger) RecordExecution(_ context.Context, e *domain.Execution) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.executions = append(l.executions, e)
	return nil
}

func (l *MemoryLedger) RecordCancellation(_ context.Context, o *domain.Order, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancellations = append(l.cancellations, CancellationRecord{Order: o, Reason: reason})
	return nil
}

func (l *MemoryLedger) RecordAudit(_ context.Context, snap *domain.AuditSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.audits = append(l.audits, snap)
	return nil
}

func (l *MemoryLedger) Orders() []OrderRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]OrderRecord, len(l.orders))
	copy(out, l.orders)
	return out
}

func (l *MemoryLedger) Executions() []*domain.Execution {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*domain.Execution, len(l.executions))
	copy(out, l.executions)
	return out
}

func (l *MemoryLedger) Cancellations() []CancellationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]CancellationRecord, len(l.cancellations))
	copy(out, l.cancellations)
	return out
}

func (l *MemoryLedger) Audits() []*domain.AuditSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*domain.AuditSnapshot, len(l.audits))
	copy(out, l.audits)
	return out
}
