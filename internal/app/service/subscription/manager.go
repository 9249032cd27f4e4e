// Package subscription manages email topic subscriptions. Responses never
// reveal whether an address was already known.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/app/service/attribution"
	"github.com/fatflowers/patron/internal/app/service/contact"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const deletePageSize = 100

type SubscribeRequest struct {
	Email  string   `json:"email" validate:"required,email,max=320"`
	Topics []string `json:"topics" validate:"min=1,max=50,dive,required,max=128"`
	Ref    string   `json:"ref" validate:"max=128"`
	Lang   string   `json:"lang" validate:"max=16"`
}

// SubscribeResponse echoes the normalized topics whether or not the contact
// was already subscribed.
type SubscribeResponse struct {
	Topics []string `json:"topics"`
}

type Manager struct {
	repo        repository.Repository
	contacts    *contact.Resolver
	attribution *attribution.Resolver
	cfg         *config.Config
	log         *zap.SugaredLogger
}

func NewManager(repo repository.Repository, contacts *contact.Resolver, attr *attribution.Resolver, cfg *config.Config, log *zap.SugaredLogger) *Manager {
	return &Manager{repo: repo, contacts: contacts, attribution: attr, cfg: cfg, log: log}
}

// Subscribe adds the contact to every topic. Unknown topics reject the whole
// request; existing subscriptions are left as they are.
func (m *Manager) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Ref = strings.TrimSpace(req.Ref)
	req.Lang = strings.ToLower(strings.TrimSpace(req.Lang))
	req.Topics = lo.Uniq(lo.Map(req.Topics, func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	}))
	if err := apperror.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Lang != "" && !m.cfg.SupportsLang(req.Lang) {
		return nil, apperror.Validationf("lang", "unsupported language %q", req.Lang)
	}

	topics, err := m.repo.FindTopicsBySlugs(ctx, req.Topics)
	if err != nil {
		return nil, fmt.Errorf("failed to find topics: %w", err)
	}
	if len(topics) != len(req.Topics) {
		known := lo.Map(topics, func(t *models.Topic, _ int) string { return t.Slug })
		missing, _ := lo.Difference(req.Topics, known)
		logctx.FromCtx(ctx, m.log).Infow("subscribe_unknown_topics", "missing", missing)
		return nil, apperror.Validation("topics", "unknown topic")
	}

	campaignID := m.attribution.Resolve(ctx, req.Ref)
	c, err := m.contacts.FindOrUpsert(ctx, req.Email, contact.Fields{Language: req.Lang, CampaignID: campaignID})
	if err != nil {
		return nil, err
	}

	created := 0
	for _, t := range topics {
		ok, err := m.ensure(ctx, c.ID, t.ID, campaignID)
		if err != nil {
			return nil, err
		}
		if ok {
			created++
		}
	}
	logctx.FromCtx(ctx, m.log).Infow("subscribed", "contact_id", c.ID, "topics", len(topics), "created", created)
	return &SubscribeResponse{Topics: req.Topics}, nil
}

// ensure creates the (contact, topic) subscription unless it exists and
// reports whether it did.
func (m *Manager) ensure(ctx context.Context, contactID, topicID uint, campaignID *uint) (bool, error) {
	key := models.SubscriptionKey(contactID, topicID)
	_, err := m.repo.FindSubscriptionByKey(ctx, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to find subscription: %w", err)
	}
	err = m.repo.CreateSubscription(ctx, &models.Subscription{
		Key:        key,
		ContactID:  contactID,
		TopicID:    topicID,
		CampaignID: campaignID,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}
	return true, nil
}

// UnsubscribeAll removes every subscription of the address. An unknown
// address succeeds without creating anything.
func (m *Manager) UnsubscribeAll(ctx context.Context, email string) error {
	if contact.NormalizeEmail(email) == "" {
		return apperror.Validation("email", "required")
	}
	c, err := m.contacts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if err := m.contacts.Touch(ctx, c); err != nil {
		return err
	}

	// Always re-read the first page; offsets shift as rows are deleted.
	deleted := 0
	for {
		page, err := m.repo.ListSubscriptionsByContact(ctx, c.ID, deletePageSize)
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		if len(page) == 0 {
			break
		}
		ids := lo.Map(page, func(s *models.Subscription, _ int) uint { return s.ID })
		if err := m.repo.DeleteSubscriptions(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete subscriptions: %w", err)
		}
		deleted += len(ids)
	}
	logctx.FromCtx(ctx, m.log).Infow("unsubscribed_all", "contact_id", c.ID, "deleted", deleted)
	return nil
}
