package port

import (
	"context"

	"github.com/adancov/trading-venue/internal/domain"
)

// Ledger is the write-only audit trail the engine and audit service
// append to. Implementations must tolerate concurrent writers; the core
// never reads anything back.
type Ledger interface {
	RecordOrder(ctx context.Context, o *domain.Order, decision string) error
	RecordExecution(ctx context.Context, e *domain.Execution) error
	RecordCancellation(ctx context.Context, o *domain.Order, reason string) error
	RecordAudit(ctx context.Context, snap *domain.AuditSnapshot) error
}
