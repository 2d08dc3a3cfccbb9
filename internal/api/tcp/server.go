// Package tcp exposes the engine over a newline-delimited line
// protocol. Each request line is handled independently; the server
// never pushes unsolicited messages.
package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/core"
	"github.com/adancov/trading-venue/internal/domain"
)

// Server accepts long-lived client connections, one goroutine each.
type Server struct {
	log    *zap.Logger
	engine *core.Engine
	addr   string

	ln net.Listener
	wg sync.WaitGroup

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func NewServer(log *zap.Logger, engine *core.Engine, addr string) *Server {
	return &Server{
		log:    log,
		engine: engine,
		addr:   addr,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and launches the accept loop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcp: listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.wg.Add(1)
	go s.acceptLoop()
	s.log.Info("order server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, useful when started on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop closes the listener and all live connections, then waits for
// handler goroutines up to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.ln != nil {
		s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("tcp: connections still draining: %w", ctx.Err())
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	ctx := context.Background()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		resp := s.handleLine(ctx, scanner.Text())
		if _, err := fmt.Fprintln(conn, resp); err != nil {
			return
		}
	}
}

// handleLine processes one request line and returns the response line.
func (s *Server) handleLine(ctx context.Context, line string) string {
	parts := strings.Split(strings.TrimSpace(line), "|")
	switch parts[0] {
	case "PING":
		return "PONG"
	case "SUBMIT":
		return s.handleSubmit(ctx, parts)
	default:
		return "ERROR|unknown command: " + parts[0]
	}
}

// handleSubmit parses SUBMIT|clientId|instrumentId|orderType|volume|limitPrice.
func (s *Server) handleSubmit(ctx context.Context, parts []string) string {
	if len(parts) != 6 {
		return "ERROR|expected SUBMIT|clientId|instrumentId|orderType|volume|limitPrice"
	}

	clientID := parts[1]
	inst, ok := s.engine.Instrument(parts[2])
	if !ok {
		return "REJECTED|unknown instrument: " + parts[2]
	}
	side, err := domain.ParseSide(parts[3])
	if err != nil {
		return "REJECTED|invalid order type: " + parts[3]
	}
	volume, err := strconv.ParseFloat(parts[4], 64)
	if err != nil || volume <= 0 {
		return "ERROR|invalid volume: " + parts[4]
	}
	limitPrice, err := strconv.ParseFloat(parts[5], 64)
	if err != nil || limitPrice <= 0 {
		return "ERROR|invalid limit price: " + parts[5]
	}

	o := domain.NewOrder(s.engine.NextOrderID(), clientID, inst, side, volume, limitPrice)
	if s.engine.Submit(ctx, o) == domain.Pending {
		return "ACCEPTED|" + o.ID
	}
	return "REJECTED|insufficient liquidity"
}
