package tcp

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/adapter/in_memory"
	"github.com/adancov/trading-venue/internal/core"
	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/metrics"
)

func startTestServer(t *testing.T) (*Server, *core.Engine) {
	t.Helper()
	inst := domain.NewInstrument("AAPL", 150, 100, 2, 0.1)
	instruments := map[string]*domain.Instrument{"AAPL": inst}
	e := core.NewEngine(zap.NewNop(), instruments, in_memory.NewMemoryLedger(),
		metrics.New("venue_tcp_test"), decimal.NewFromFloat(0.005))

	srv := NewServer(zap.NewNop(), e, "127.0.0.1:0")
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, e
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func roundTrip(t *testing.T, conn net.Conn, r *bufio.Reader, req string) string {
	t.Helper()
	_, err := conn.Write([]byte(req + "\n"))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := r.ReadString('\n')
	require.NoError(t, err)
	return resp[:len(resp)-1]
}

func TestPing(t *testing.T) {
	srv, _ := startTestServer(t)
	conn, r := dial(t, srv.Addr())

	assert.Equal(t, "PONG", roundTrip(t, conn, r, "PING"))
}

func TestSubmitLifecycleOverWire(t *testing.T) {
	srv, e := startTestServer(t)
	conn, r := dial(t, srv.Addr())

	resp := roundTrip(t, conn, r, "SUBMIT|C1|AAPL|BUY_LIMIT|40.00|155.00")
	assert.Equal(t, "ACCEPTED|ORD-1", resp)
	assert.Equal(t, 60.0, e.Liquidity().Available("AAPL"))

	// Over budget: synchronous rejection.
	resp = roundTrip(t, conn, r, "SUBMIT|C2|AAPL|SELL_LIMIT|70.00|140.00")
	assert.Equal(t, "REJECTED|insufficient liquidity", resp)
}

func TestSubmitValidation(t *testing.T) {
	srv, _ := startTestServer(t)
	conn, r := dial(t, srv.Addr())

	t.Run("UnknownInstrument", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "SUBMIT|C1|ZZZZ|BUY_LIMIT|10|100")
		assert.Equal(t, "REJECTED|unknown instrument: ZZZZ", resp)
	})

	t.Run("BadOrderType", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "SUBMIT|C1|AAPL|STOP_LOSS|10|100")
		assert.Equal(t, "REJECTED|invalid order type: STOP_LOSS", resp)
	})

	t.Run("BadVolume", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "SUBMIT|C1|AAPL|BUY_LIMIT|lots|100")
		assert.Equal(t, "ERROR|invalid volume: lots", resp)
	})

	t.Run("BadLimitPrice", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "SUBMIT|C1|AAPL|BUY_LIMIT|10|-3")
		assert.Equal(t, "ERROR|invalid limit price: -3", resp)
	})

	t.Run("WrongFieldCount", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "SUBMIT|C1|AAPL")
		assert.Contains(t, resp, "ERROR|")
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		resp := roundTrip(t, conn, r, "WITHDRAW|C1|100")
		assert.Equal(t, "ERROR|unknown command: WITHDRAW", resp)
	})
}

func TestConnectionsAreIndependent(t *testing.T) {
	srv, _ := startTestServer(t)

	c1, r1 := dial(t, srv.Addr())
	c2, r2 := dial(t, srv.Addr())

	assert.Equal(t, "PONG", roundTrip(t, c1, r1, "PING"))
	assert.Equal(t, "ACCEPTED|ORD-1", roundTrip(t, c2, r2, "SUBMIT|C9|AAPL|BUY_LIMIT|5|150"))
	assert.Equal(t, "PONG", roundTrip(t, c1, r1, "PING"))
}
