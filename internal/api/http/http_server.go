// Package http serves the venue's REST/websocket surface with gin.
package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/api/dto"
	"github.com/adancov/trading-venue/internal/core"
	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/metrics"
	"github.com/adancov/trading-venue/internal/middleware"
	"github.com/adancov/trading-venue/internal/port"
)

type HTTPServer struct {
	log     *zap.Logger
	engine  *core.Engine
	audit   *core.AuditService
	cache   port.SnapshotCache
	metrics *metrics.Metrics
	hub     *Hub

	srv *http.Server
}

func NewHTTPServer(
	log *zap.Logger,
	engine *core.Engine,
	audit *core.AuditService,
	cache port.SnapshotCache,
	m *metrics.Metrics,
	hub *Hub,
) *HTTPServer {
	return &HTTPServer{
		log:     log,
		engine:  engine,
		audit:   audit,
		cache:   cache,
		metrics: m,
		hub:     hub,
	}
}

// Router builds the gin engine; exposed for httptest-driven tests.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	r.POST("/orders", rl.Middleware(), s.submitOrder)
	r.GET("/orders/:id", s.getOrder)
	r.GET("/instruments", s.listInstruments)
	r.GET("/instruments/:id/liquidity", s.getLiquidity)
	r.GET("/profit", s.getProfit)
	r.GET("/audit/latest", s.latestSnapshot)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.hub != nil {
		r.GET("/ws", s.hub.Serve)
	}
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

// Start serves in a background goroutine until Shutdown.
func (s *HTTPServer) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server failed", zap.Error(err))
		}
	}()
	s.log.Info("http server listening", zap.String("addr", addr))
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inst, ok := s.engine.Instrument(req.Instrument)
	if !ok {
		c.JSON(http.StatusOK, dto.SubmitOrderResponse{
			Status: domain.Rejected.String(),
			Reason: "unknown instrument: " + req.Instrument,
		})
		return
	}
	side, err := domain.ParseSide(req.Type)
	if err != nil {
		c.JSON(http.StatusOK, dto.SubmitOrderResponse{
			Status: domain.Rejected.String(),
			Reason: err.Error(),
		})
		return
	}

	o := domain.NewOrder(s.engine.NextOrderID(), req.ClientID, inst, side, req.Volume, req.LimitPrice)
	status := s.engine.Submit(c.Request.Context(), o)

	reason := ""
	if status == domain.Rejected {
		reason = "insufficient liquidity"
	}
	if status == domain.Pending && req.Wait {
		// Block on the completion handle until the sweep resolves the
		// order or the client gives up.
		status, _ = o.Wait(c.Request.Context())
	}

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		OrderID: o.ID,
		Status:  status.String(),
		Reason:  reason,
	})
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	o, ok := s.engine.Order(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, dto.Order{
		ID:         o.ID,
		ClientID:   o.ClientID,
		Instrument: o.Instrument.ID,
		Side:       string(o.Side),
		Volume:     o.Volume,
		LimitPrice: o.LimitPrice,
		Status:     o.Status().String(),
		CreatedAt:  o.CreatedAt,
	})
}

func (s *HTTPServer) listInstruments(c *gin.Context) {
	instruments := s.engine.Instruments()
	out := make([]dto.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, dto.Instrument{
			ID:           inst.ID,
			Price:        inst.Price(),
			MaxLiquidity: inst.MaxLiquidity,
			Volatility:   inst.Volatility,
			Drift:        inst.Drift,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) getLiquidity(c *gin.Context) {
	id := c.Param("id")
	inst, ok := s.engine.Instrument(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument: " + id})
		return
	}
	c.JSON(http.StatusOK, dto.Liquidity{
		Instrument: id,
		Available:  s.engine.Liquidity().Available(id),
		Max:        inst.MaxLiquidity,
	})
}

func (s *HTTPServer) getProfit(c *gin.Context) {
	commission := s.engine.CommissionPerInstrument()
	pnl := s.engine.PnLPerInstrument()
	resp := dto.Profit{Commission: commission, PnL: pnl}
	for _, v := range commission {
		resp.TotalCommission = resp.TotalCommission.Add(v)
	}
	for _, v := range pnl {
		resp.TotalPnL = resp.TotalPnL.Add(v)
	}
	resp.NetProfit = resp.TotalCommission.Add(resp.TotalPnL)
	c.JSON(http.StatusOK, resp)
}

// latestSnapshot prefers the cache, falling back to the audit service's
// in-process copy.
func (s *HTTPServer) latestSnapshot(c *gin.Context) {
	if s.cache != nil {
		if snap, err := s.cache.GetLatest(c.Request.Context()); err == nil && snap != nil {
			c.JSON(http.StatusOK, snap)
			return
		}
	}
	if snap := s.audit.Latest(); snap != nil {
		c.JSON(http.StatusOK, snap)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no audit cycle completed yet"})
}
