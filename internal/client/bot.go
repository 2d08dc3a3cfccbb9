// Package client implements the load-generating trading bot. Bots talk
// to the venue over the TCP line protocol like any remote client.
package client

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/domain"
)

// InstrumentHint is what a bot knows about a symbol: its id and a rough
// price level to scatter limit prices around.
type InstrumentHint struct {
	ID    string
	Price float64
}

// Bot submits one random order per tick over a long-lived connection.
type Bot struct {
	log         *zap.Logger
	clientID    string
	addr        string
	instruments []InstrumentHint
	interval    time.Duration
	rng         *rand.Rand
}

func NewBot(log *zap.Logger, clientID, addr string, instruments []InstrumentHint, interval time.Duration) *Bot {
	return &Bot{
		log:         log.With(zap.String("bot", clientID)),
		clientID:    clientID,
		addr:        addr,
		instruments: instruments,
		interval:    interval,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run connects and trades until the context ends.
func (b *Bot) Run(ctx context.Context) error {
	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("bot %s: connect %s: %w", b.clientID, b.addr, err)
	}
	defer conn.Close()
	b.log.Info("connected", zap.String("addr", b.addr))

	reader := bufio.NewReader(conn)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			line := b.randomOrder()
			if _, err := fmt.Fprintln(conn, line); err != nil {
				return fmt.Errorf("bot %s: send: %w", b.clientID, err)
			}
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			resp, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("bot %s: read response: %w", b.clientID, err)
			}
			b.log.Debug("response", zap.String("line", strings.TrimSpace(resp)))
		}
	}
}

// randomOrder formats a SUBMIT line with a random instrument, side,
// volume, and a limit price within 10% of the instrument's hint price.
func (b *Bot) randomOrder() string {
	inst := b.instruments[b.rng.Intn(len(b.instruments))]
	side := domain.BuyLimit
	if b.rng.Intn(2) == 1 {
		side = domain.SellLimit
	}
	volume := 10 + b.rng.Float64()*90
	limit := inst.Price * (0.9 + b.rng.Float64()*0.2)
	return fmt.Sprintf("SUBMIT|%s|%s|%s|%.2f|%.2f", b.clientID, inst.ID, side, volume, limit)
}
