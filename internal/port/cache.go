package port

import (
	"context"

	"github.com/adancov/trading-venue/internal/domain"
)

// SnapshotCache holds the most recent audit snapshot for read-side
// consumers. A nil snapshot with nil error means no snapshot yet.
type SnapshotCache interface {
	SetLatest(ctx context.Context, snap *domain.AuditSnapshot) error
	GetLatest(ctx context.Context) (*domain.AuditSnapshot, error)
}
