package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/logctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Fields are the optional profile values supplied with a submission.
type Fields struct {
	Name       string
	Phone      string
	Address    string
	Language   string
	CampaignID *uint
}

// Resolver is the single find-or-upsert path for contacts. Present data is
// never replaced by blank input and the first campaign attribution sticks.
type Resolver struct {
	repo repository.ContactRepository
	log  *zap.SugaredLogger
	now  func() time.Time
}

func NewResolver(repo repository.Repository, log *zap.SugaredLogger) *Resolver {
	return &Resolver{repo: repo, log: log, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(NewResolver),
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrUpsert creates the contact for email or merges fields into it.
func (r *Resolver) FindOrUpsert(ctx context.Context, email string, f Fields) (*models.Contact, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, apperror.Validation("email", "required")
	}

	existing, err := r.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		c, err := r.create(ctx, normalized, f)
		if !errors.Is(err, repository.ErrDuplicate) {
			return c, err
		}
		// lost a race with a concurrent first submission; merge into the winner
		logctx.FromCtx(ctx, r.log).Infow("contact_create_race", "email", normalized)
		if existing, err = r.FindByEmail(ctx, normalized); err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("contact vanished after duplicate insert")
		}
	}

	merge(existing, f)
	now := r.now()
	existing.LastEngagedAt = &now
	if err := r.repo.SaveContact(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return existing, nil
}

func (r *Resolver) create(ctx context.Context, normalized string, f Fields) (*models.Contact, error) {
	now := r.now()
	c := &models.Contact{
		NormalizedEmail: normalized,
		DisplayName:     strings.TrimSpace(f.Name),
		Phone:           strings.TrimSpace(f.Phone),
		Address:         strings.TrimSpace(f.Address),
		Language:        strings.TrimSpace(f.Language),
		CampaignID:      f.CampaignID,
		LastEngagedAt:   &now,
	}
	if err := r.repo.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	logctx.FromCtx(ctx, r.log).Infow("contact_created", "contact_id", c.ID)
	return c, nil
}

func merge(c *models.Contact, f Fields) {
	overwrite := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	overwrite(&c.DisplayName, f.Name)
	overwrite(&c.Phone, f.Phone)
	overwrite(&c.Address, f.Address)
	overwrite(&c.Language, f.Language)
	if c.CampaignID == nil && f.CampaignID != nil {
		id := *f.CampaignID
		c.CampaignID = &id
	}
}

// FindByEmail returns nil without error when no contact exists.
func (r *Resolver) FindByEmail(ctx context.Context, email string) (*models.Contact, error) {
	c, err := r.repo.FindContactByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

// FindByID returns nil without error when no contact exists.
func (r *Resolver) FindByID(ctx context.Context, id uint) (*models.Contact, error) {
	c, err := r.repo.FindContactByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

// Touch records engagement without changing profile data.
func (r *Resolver) Touch(ctx context.Context, c *models.Contact) error {
	now := r.now()
	c.LastEngagedAt = &now
	if err := r.repo.SaveContact(ctx, c); err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	return nil
}
