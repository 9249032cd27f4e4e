package attribution

import (
	"context"
	"errors"
	"testing"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolve(t *testing.T) {
	store := memstore.New()
	spring := store.AddCampaign("Spring Appeal", "spring-2025")

	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver(store, zap.New(core).Sugar())
	ctx := context.Background()

	got := r.Resolve(ctx, "  Spring-2025 ")
	require.NotNil(t, got)
	assert.Equal(t, spring.ID, *got)

	assert.Nil(t, r.Resolve(ctx, ""))
	assert.Nil(t, r.Resolve(ctx, "   "))
	assert.Equal(t, 0, logs.Len())

	assert.Nil(t, r.Resolve(ctx, "unknown-ref"))
	assert.Equal(t, 1, logs.FilterMessage("attribution_unknown_ref").Len())
}

type brokenStore struct{ *memstore.Store }

func (brokenStore) FindCampaignByReftag(context.Context, string) (*models.Campaign, error) {
	return nil, errors.New("connection refused")
}

func TestResolveStoreFailureIsNoAttribution(t *testing.T) {
	r := NewResolver(brokenStore{memstore.New()}, zap.NewNop().Sugar())
	assert.Nil(t, r.Resolve(context.Background(), "spring-2025"))
}
