package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/metrics"
	"github.com/adancov/trading-venue/internal/port"
	"github.com/adancov/trading-venue/internal/sim"
)

// SnapshotPublisher pushes each audit snapshot to live subscribers.
type SnapshotPublisher interface {
	Publish(snap *domain.AuditSnapshot)
}

// AuditService drives the venue on a fixed interval: advance prices,
// sweep the pending queue, verify the liquidity invariant, and emit a
// snapshot. A failed or panicked cycle is logged and the next one still
// fires on schedule.
type AuditService struct {
	log       *zap.Logger
	engine    *Engine
	sim       *sim.PriceSimulator
	ledger    port.Ledger
	cache     port.SnapshotCache
	metrics   *metrics.Metrics
	publisher SnapshotPublisher
	interval  time.Duration
	expiry    time.Duration
	workers   int

	latest atomic.Pointer[domain.AuditSnapshot]
	stop   chan struct{}
	done   chan struct{}
}

func NewAuditService(
	log *zap.Logger,
	engine *Engine,
	priceSim *sim.PriceSimulator,
	ledger port.Ledger,
	cache port.SnapshotCache,
	m *metrics.Metrics,
	publisher SnapshotPublisher,
	interval, expiry time.Duration,
	workers int,
) *AuditService {
	if workers < 1 {
		workers = 1
	}
	return &AuditService{
		log:       log,
		engine:    engine,
		sim:       priceSim,
		ledger:    ledger,
		cache:     cache,
		metrics:   m,
		publisher: publisher,
		interval:  interval,
		expiry:    expiry,
		workers:   workers,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the cycle loop. The first cycle fires one interval
// after start.
func (a *AuditService) Start() {
	go a.run()
	a.log.Info("audit service started", zap.Duration("interval", a.interval))
}

// Stop ends the loop and waits for an in-flight cycle to finish, up to
// the context deadline.
func (a *AuditService) Stop(ctx context.Context) error {
	close(a.stop)
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit: cycle still running at shutdown: %w", ctx.Err())
	}
}

func (a *AuditService) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.RunCycle(context.Background())
		}
	}
}

// RunCycle executes one audit pass. Exported so tests and embedders can
// drive cycles without the ticker.
func (a *AuditService) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("audit cycle panicked", zap.Any("panic", r))
		}
	}()

	start := time.Now()

	a.sim.StepAll(a.engine.Instruments())
	for id, inst := range a.engine.Instruments() {
		a.metrics.CurrentPrice.WithLabelValues(id).Set(inst.Price())
	}

	executed, cancelled := a.sweep(ctx)

	integrityOK := true
	if err := a.engine.Liquidity().CheckIntegrity(a.engine.Instruments()); err != nil {
		integrityOK = false
		a.metrics.IntegrityFailures.Inc()
		a.log.Error("liquidity integrity violated", zap.Error(err))
	}

	snap := a.buildSnapshot(executed, cancelled, integrityOK)
	a.latest.Store(snap)

	if err := a.ledger.RecordAudit(ctx, snap); err != nil {
		a.log.Warn("audit ledger write failed", zap.Error(err))
	}
	if a.cache != nil {
		if err := a.cache.SetLatest(ctx, snap); err != nil {
			a.log.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	if a.publisher != nil {
		a.publisher.Publish(snap)
	}

	for id := range a.engine.Instruments() {
		a.metrics.AvailableLiq.WithLabelValues(id).Set(a.engine.Liquidity().Available(id))
	}
	a.metrics.AuditCycles.Inc()
	a.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	a.log.Info("audit cycle complete",
		zap.Int("executed", executed),
		zap.Int("cancelled", cancelled),
		zap.Int("pending", len(snap.Pending)),
		zap.String("net_profit", snap.NetProfit.StringFixed(2)))
}

// sweep resolves every pending order that is expired or fillable,
// fanning the queue out over the configured worker count. Expiry wins
// when both conditions hold in the same pass; the order's resolve handle
// keeps racing workers from double-applying side effects.
func (a *AuditService) sweep(ctx context.Context) (executed, cancelled int) {
	queue := a.engine.PendingOrders()
	if len(queue) == 0 {
		return 0, 0
	}
	workers := a.workers
	if workers > len(queue) {
		workers = len(queue)
	}

	now := time.Now()
	var execCount, cancelCount atomic.Int64

	jobs := make(chan *domain.Order)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for o := range jobs {
				if o.Status() != domain.Pending {
					// Already resolved by a racing resolver; nothing to do.
					a.engine.RemoveFromPending(o)
					continue
				}
				if o.Expired(now, a.expiry) {
					a.engine.Cancel(ctx, o, fmt.Sprintf("expired after %s", a.expiry))
					a.engine.RemoveFromPending(o)
					cancelCount.Add(1)
					continue
				}
				if o.CanExecute(o.Instrument.Price()) {
					a.engine.Execute(ctx, o)
					a.engine.RemoveFromPending(o)
					execCount.Add(1)
				}
			}
		}()
	}
	for _, o := range queue {
		jobs <- o
	}
	close(jobs)
	wg.Wait()

	return int(execCount.Load()), int(cancelCount.Load())
}

func (a *AuditService) buildSnapshot(executed, cancelled int, integrityOK bool) *domain.AuditSnapshot {
	instruments := a.engine.Instruments()

	prices := make(map[string]float64, len(instruments))
	liquidity := make(map[string]domain.LiquidityLevel, len(instruments))
	for id, inst := range instruments {
		prices[id] = inst.Price()
		liquidity[id] = domain.LiquidityLevel{
			Available: a.engine.Liquidity().Available(id),
			Max:       inst.MaxLiquidity,
		}
	}

	commission := a.engine.CommissionPerInstrument()
	pnl := a.engine.PnLPerInstrument()
	totalCommission := decimal.Zero
	for _, v := range commission {
		totalCommission = totalCommission.Add(v)
	}
	totalPnL := decimal.Zero
	for _, v := range pnl {
		totalPnL = totalPnL.Add(v)
	}

	var pending []domain.PendingOrder
	for _, o := range a.engine.PendingOrders() {
		if o.Status() != domain.Pending {
			continue
		}
		pending = append(pending, domain.PendingOrder{
			ID:         o.ID,
			ClientID:   o.ClientID,
			Instrument: o.Instrument.ID,
			Side:       o.Side,
			Volume:     o.Volume,
			LimitPrice: o.LimitPrice,
			CreatedAt:  o.CreatedAt,
		})
	}

	return &domain.AuditSnapshot{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		Prices:          prices,
		Liquidity:       liquidity,
		Commission:      commission,
		PnL:             pnl,
		TotalCommission: totalCommission,
		TotalPnL:        totalPnL,
		NetProfit:       totalCommission.Add(totalPnL),
		Executed:        executed,
		Cancelled:       cancelled,
		Pending:         pending,
		IntegrityOK:     integrityOK,
	}
}

// Latest returns the most recent snapshot, or nil before the first
// cycle.
func (a *AuditService) Latest() *domain.AuditSnapshot {
	return a.latest.Load()
}
