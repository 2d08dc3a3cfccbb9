package in_memory

import (
	"context"
	"sync"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

var _ port.SnapshotCache = (*Cache)(nil)

// Cache holds the latest audit snapshot in memory.
type Cache struct {
	mu     sync.Mutex
	latest *domain.AuditSnapshot
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) SetLatest(_ context.Context, snap *domain.AuditSnapshot) error {
	c.mu.Lock()
	c.latest = snap
	c.mu.Unlock()
	return nil
}

func (c *Cache) GetLatest(_ context.Context) (*domain.AuditSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, nil
}
