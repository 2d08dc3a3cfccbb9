// Package pg mirrors the venue's ledgers into Postgres. All tables are
// insert-only; the engine never reads them back.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

var _ port.Ledger = (*PgLedger)(nil)

type PgLedger struct {
	pool *pgxpool.Pool
}

// New connects a pool to the given DSN. Call Close when done.
func New(ctx context.Context, dsn string) (*PgLedger, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgLedger{pool: pool}, nil
}

func (p *PgLedger) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgLedger) RecordOrder(ctx context.Context, o *domain.Order, decision string) error {
	if o == nil {
		return errors.New("pg: nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(id, client_id, instrument, side, volume, limit_price, decision, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`, o.ID, o.ClientID, o.Instrument.ID, string(o.Side), o.Volume, o.LimitPrice, decision, o.CreatedAt)
	return err
}

func (p *PgLedger) RecordExecution(ctx context.Context, e *domain.Execution) error {
	if e == nil {
		return errors.New("pg: nil execution")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO executions(id, order_id, client_id, instrument, side, volume, price, commission, pnl, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`, e.ID, e.OrderID, e.ClientID, e.InstrumentID, string(e.Side), e.Volume, e.Price,
		e.Commission, e.PnL, e.ExecutedAt)
	return err
}

func (p *PgLedger) RecordCancellation(ctx context.Context, o *domain.Order, reason string) error {
	if o == nil {
		return errors.New("pg: nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO cancellations(order_id, instrument, reason, cancelled_at)
VALUES($1,$2,$3,now())
`, o.ID, o.Instrument.ID, reason)
	return err
}

func (p *PgLedger) RecordAudit(ctx context.Context, snap *domain.AuditSnapshot) error {
	if snap == nil {
		return errors.New("pg: nil snapshot")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pg: marshal snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO audit_snapshots(id, taken_at, integrity_ok, executed, cancelled, net_profit, snapshot)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`, snap.ID, snap.Timestamp, snap.IntegrityOK, snap.Executed, snap.Cancelled, snap.NetProfit, body)
	return err
}
