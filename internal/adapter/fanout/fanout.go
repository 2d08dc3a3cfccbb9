// Package fanout duplicates ledger writes across several sinks.
package fanout

import (
	"context"
	"errors"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

var _ port.Ledger = (*Ledger)(nil)

// Ledger writes each record to every wrapped sink. A failing sink does
// not stop the others; errors are joined.
type Ledger struct {
	sinks []port.Ledger
}

func New(sinks ...port.Ledger) *Ledger {
	return &Ledger{sinks: sinks}
}

func (l *Ledger) RecordOrder(ctx context.Context, o *domain.Order, decision string) error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.RecordOrder(ctx, o, decision); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) RecordExecution(ctx context.Context, e *domain.Execution) error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.RecordExecution(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) RecordCancellation(ctx context.Context, o *domain.Order, reason string) error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.RecordCancellation(ctx, o, reason); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) RecordAudit(ctx context.Context, snap *domain.AuditSnapshot) error {
	var errs []error
	for _, s := range l.sinks {
		if err := s.RecordAudit(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
