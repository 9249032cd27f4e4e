package contact

import (
	"context"
	"testing"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/testutil/memstore"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(t *testing.T) (*Resolver, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	r := NewResolver(store, zap.NewNop().Sugar())
	return r, store
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.org", NormalizeEmail("  Ada@Example.ORG "))
}

func TestFindOrUpsertCreates(t *testing.T) {
	r, store := newResolver(t)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	c, err := r.FindOrUpsert(context.Background(), " Ada@Example.org", Fields{
		Name: " Ada ", Phone: "555", Language: "en", CampaignID: lo.ToPtr(uint(7)),
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", c.NormalizedEmail)
	assert.Equal(t, "Ada", c.DisplayName)
	assert.Equal(t, uint(7), *c.CampaignID)
	assert.Equal(t, now, *c.LastEngagedAt)
	assert.Len(t, store.Contacts(), 1)
}

func TestFindOrUpsertNeverClobbers(t *testing.T) {
	r, store := newResolver(t)
	ctx := context.Background()

	_, err := r.FindOrUpsert(ctx, "ada@example.org", Fields{
		Name: "Ada", Phone: "555", Address: "1 Main", Language: "en", CampaignID: lo.ToPtr(uint(1)),
	})
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	r.now = func() time.Time { return later }
	c, err := r.FindOrUpsert(ctx, "ADA@example.org", Fields{
		Name: "  ", Phone: "", Address: "2 Elm", CampaignID: lo.ToPtr(uint(2)),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", c.DisplayName)
	assert.Equal(t, "555", c.Phone)
	assert.Equal(t, "2 Elm", c.Address)
	assert.Equal(t, "en", c.Language)
	assert.Equal(t, uint(1), *c.CampaignID, "first touch wins")
	assert.Equal(t, later, *c.LastEngagedAt)

	contacts := store.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "2 Elm", contacts[0].Address)
}

func TestFindOrUpsertFillsMissingCampaign(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	_, err := r.FindOrUpsert(ctx, "ada@example.org", Fields{})
	require.NoError(t, err)
	c, err := r.FindOrUpsert(ctx, "ada@example.org", Fields{CampaignID: lo.ToPtr(uint(3))})
	require.NoError(t, err)
	assert.Equal(t, uint(3), *c.CampaignID)
}

func TestFindOrUpsertRequiresEmail(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.FindOrUpsert(context.Background(), "   ", Fields{})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "email", ve.Field)
}

func TestFindByEmailMissing(t *testing.T) {
	r, _ := newResolver(t)
	c, err := r.FindByEmail(context.Background(), "nobody@example.org")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = r.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, c)
}

// racingStore reports no contact on the first lookup, as if another request
// inserted the row between lookup and insert.
type racingStore struct {
	*memstore.Store
	misses int
}

func (s *racingStore) FindContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	if s.misses > 0 {
		s.misses--
		return nil, repository.ErrNotFound
	}
	return s.Store.FindContactByEmail(ctx, email)
}

func TestFindOrUpsertRecoversFromDuplicate(t *testing.T) {
	store := &racingStore{Store: memstore.New()}
	require.NoError(t, store.CreateContact(context.Background(), &models.Contact{NormalizedEmail: "ada@example.org", DisplayName: "Ada"}))
	store.misses = 1

	r := NewResolver(store, zap.NewNop().Sugar())
	c, err := r.FindOrUpsert(context.Background(), "ada@example.org", Fields{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.DisplayName)
	assert.Equal(t, "555", c.Phone)
	assert.Len(t, store.Contacts(), 1)
}
