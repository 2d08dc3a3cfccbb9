package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/adapter/cache"
	"github.com/adancov/trading-venue/internal/adapter/fanout"
	"github.com/adancov/trading-venue/internal/adapter/filelog"
	"github.com/adancov/trading-venue/internal/adapter/in_memory"
	"github.com/adancov/trading-venue/internal/adapter/pg"
	apihttp "github.com/adancov/trading-venue/internal/api/http"
	"github.com/adancov/trading-venue/internal/api/tcp"
	"github.com/adancov/trading-venue/internal/client"
	"github.com/adancov/trading-venue/internal/config"
	"github.com/adancov/trading-venue/internal/core"
	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/logging"
	"github.com/adancov/trading-venue/internal/metrics"
	"github.com/adancov/trading-venue/internal/port"
	"github.com/adancov/trading-venue/internal/sim"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instruments := make(map[string]*domain.Instrument, len(cfg.Instruments))
	for _, ic := range cfg.Instruments {
		instruments[ic.ID] = domain.NewInstrument(
			ic.ID, ic.InitialPrice, ic.MaxLiquidity, ic.Volatility, ic.Drift)
		logger.Info("instrument configured",
			zap.String("id", ic.ID),
			zap.Float64("price", ic.InitialPrice),
			zap.Float64("max_liquidity", ic.MaxLiquidity))
	}

	fileLedger, err := filelog.New(cfg.Storage.LogDir)
	if err != nil {
		logger.Fatal("open ledger files", zap.Error(err))
	}
	defer fileLedger.Close()

	sinks := []port.Ledger{fileLedger}
	if cfg.Storage.PostgresDSN != "" {
		pgLedger, err := pg.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pgLedger.Close()
		sinks = append(sinks, pgLedger)
		logger.Info("postgres ledger enabled")
	}
	var ledger port.Ledger = sinks[0]
	if len(sinks) > 1 {
		ledger = fanout.New(sinks...)
	}

	var snapCache port.SnapshotCache
	if cfg.Cache.RedisAddr != "" {
		redisCache := cache.NewRedisCache(
			cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL.Std())
		defer redisCache.Close()
		snapCache = redisCache
		logger.Info("redis snapshot cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		snapCache = in_memory.NewCache()
	}

	m := metrics.New("venue")
	engine := core.NewEngine(logger, instruments, ledger, m,
		decimal.NewFromFloat(cfg.Trading.CommissionRate))

	hub := apihttp.NewHub(logger)
	go hub.Run()

	audit := core.NewAuditService(
		logger,
		engine,
		sim.New(cfg.Trading.AuditInterval.Std().Seconds()),
		ledger,
		snapCache,
		m,
		hub,
		cfg.Trading.AuditInterval.Std(),
		cfg.Trading.OrderExpiry.Std(),
		cfg.Trading.Workers,
	)
	audit.Start()

	tcpServer := tcp.NewServer(logger, engine, cfg.Server.TCPAddr)
	if err := tcpServer.Start(); err != nil {
		logger.Fatal("start tcp server", zap.Error(err))
	}

	httpServer := apihttp.NewHTTPServer(logger, engine, audit, snapCache, m, hub)
	httpServer.Start(cfg.Server.HTTPAddr)

	if cfg.Bots.Embedded && cfg.Bots.Count > 0 {
		hints := make([]client.InstrumentHint, 0, len(cfg.Instruments))
		for _, ic := range cfg.Instruments {
			hints = append(hints, client.InstrumentHint{ID: ic.ID, Price: ic.InitialPrice})
		}
		for i := 1; i <= cfg.Bots.Count; i++ {
			b := client.NewBot(logger, fmt.Sprintf("BOT-%d", i),
				cfg.Server.TCPAddr, hints, cfg.Bots.Interval.Std())
			go func() {
				if err := b.Run(ctx); err != nil {
					logger.Warn("embedded bot stopped", zap.Error(err))
				}
			}()
		}
		logger.Info("embedded bots running", zap.Int("count", cfg.Bots.Count))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tcpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("tcp shutdown", zap.Error(err))
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := audit.Stop(shutdownCtx); err != nil {
		logger.Warn("audit shutdown", zap.Error(err))
	}
	hub.Stop()
	logger.Info("stopped")
}
