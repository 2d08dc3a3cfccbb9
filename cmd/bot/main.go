package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/client"
	"github.com/adancov/trading-venue/internal/config"
	"github.com/adancov/trading-venue/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	addr := flag.String("addr", "", "venue TCP address (overrides config)")
	count := flag.Int("count", 0, "number of bots (overrides config)")
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

	target := cfg.Server.TCPAddr
	if *addr != "" {
		target = *addr
	}
	bots := cfg.Bots.Count
	if *count > 0 {
		bots = *count
	}

	hints := make([]client.InstrumentHint, 0, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		hints = append(hints, client.InstrumentHint{ID: inst.ID, Price: inst.InitialPrice})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 1; i <= bots; i++ {
		b := client.NewBot(logger, fmt.Sprintf("BOT-%d", i), target, hints, cfg.Bots.Interval.Std())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Run(ctx); err != nil {
				logger.Warn("bot stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("bots running", zap.Int("count", bots), zap.String("target", target))
	wg.Wait()
}
