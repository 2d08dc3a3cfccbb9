package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adancov/trading-venue/internal/domain"
)

func TestCacheEmptyIsNotAnError(t *testing.T) {
	c := NewCache()

	snap, err := c.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestCacheReturnsLatest(t *testing.T) {
	c := NewCache()
	first := &domain.AuditSnapshot{ID: uuid.NewString(), Timestamp: time.Now()}
	second := &domain.AuditSnapshot{ID: uuid.NewString(), Timestamp: time.Now()}

	require.NoError(t, c.SetLatest(context.Background(), first))
	require.NoError(t, c.SetLatest(context.Background(), second))

	snap, err := c.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, snap.ID)
}
