package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/app/service/settings"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/dateparts"
	"github.com/fatflowers/patron/pkg/logctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	repo     repository.Repository
	settings *settings.Service
	calc     *Calculator
	log      *zap.SugaredLogger
}

func NewService(repo repository.Repository, st *settings.Service, cal *dateparts.Calendar, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, settings: st, calc: NewCalculator(cal), log: log}
}

func NewCalendar(cfg *config.Config) (*dateparts.Calendar, error) {
	return dateparts.New(cfg.Calendar.Timezone)
}

var Module = fx.Options(
	fx.Provide(NewCalendar, NewService),
)

func (s *Service) Calculator() *Calculator { return s.calc }

// With returns a service bound to repo, typically a transaction.
func (s *Service) With(repo repository.Repository) *Service {
	c := *s
	c.repo = repo
	return &c
}

func (s *Service) plan(ctx context.Context, m *models.MembershipPlan) (*Plan, error) {
	overrides, err := s.settings.MembershipPrices(ctx)
	if err != nil {
		return nil, err
	}
	return NewPlan(m, overrides)
}

// PlanBySlug returns a validation error when the plan is unknown or invalid.
func (s *Service) PlanBySlug(ctx context.Context, slug string) (*Plan, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperror.Validation("plan", "required")
	}
	m, err := s.repo.FindPlanBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validationf("plan", "unknown plan %q", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return s.plan(ctx, m)
}

// PlanByID returns a validation error when the plan is unknown or invalid.
func (s *Service) PlanByID(ctx context.Context, id uint) (*Plan, error) {
	m, err := s.repo.FindPlanByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validationf("plan", "unknown plan id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return s.plan(ctx, m)
}

// LatestTerm returns the contact's most recent term, or nil if none.
func (s *Service) LatestTerm(ctx context.Context, contactID uint) (*Term, error) {
	m, err := s.repo.LatestMembership(ctx, contactID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest membership: %w", err)
	}
	t := s.calc.TermOf(m)
	return &t, nil
}

type NewMembership struct {
	ContactID  uint
	PlanID     uint
	CampaignID *uint
	OrderID    *uint
	Dates      TermDates
}

func (s *Service) Create(ctx context.Context, in NewMembership) (*models.Membership, error) {
	m := &models.Membership{
		ContactID:  in.ContactID,
		PlanID:     in.PlanID,
		StartDay:   in.Dates.StartAt,
		EndDay:     in.Dates.EndAt,
		CampaignID: in.CampaignID,
		OrderID:    in.OrderID,
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("membership_created",
		"membership_id", m.ID, "contact_id", m.ContactID, "plan_id", m.PlanID,
		"start", in.Dates.Start.String(), "end", in.Dates.End.String())
	return m, nil
}

// LockKey names the per-contact lock held while deciding and creating a term.
func LockKey(contactID uint) string {
	return fmt.Sprintf("membership:%d", contactID)
}
