package membership

import (
	"strings"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/money"
)

// Plan is a membership plan whose price and window have been validated.
type Plan struct {
	ID                uint
	Slug              string
	Name              string
	Price             money.Cents
	RenewalWindowDays int
}

// NewPlan validates m, applying a price override keyed by slug when present.
func NewPlan(m *models.MembershipPlan, overrides map[string]money.Cents) (*Plan, error) {
	p := &Plan{
		ID:                m.ID,
		Slug:              m.Slug,
		Name:              strings.TrimSpace(m.Name),
		Price:             money.Cents(m.PriceCents),
		RenewalWindowDays: m.RenewalWindowDays,
	}
	if override, ok := overrides[strings.ToLower(m.Slug)]; ok {
		p.Price = override
	}
	if p.Price <= 0 {
		return nil, apperror.Validationf("plan", "plan %q has no valid price", m.Slug)
	}
	if p.RenewalWindowDays < 0 {
		return nil, apperror.Validationf("plan", "plan %q has a negative renewal window", m.Slug)
	}
	if p.Name == "" {
		p.Name = m.Slug
	}
	return p, nil
}
