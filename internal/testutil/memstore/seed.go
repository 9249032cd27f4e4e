package memstore

import (
	"github.com/fatflowers/patron/internal/models"
)

// Seeding and inspection helpers. All return copies.

func (s *Store) AddCampaign(name, reftag string) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Campaign{ID: uint(len(s.campaigns) + 1), Name: name, Reftag: reftag}
	s.campaigns = append(s.campaigns, c)
	return &c
}

func (s *Store) AddPlan(slug, name string, priceCents int64, windowDays int) *models.MembershipPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.MembershipPlan{ID: uint(len(s.plans) + 1), Slug: slug, Name: name, PriceCents: priceCents, RenewalWindowDays: windowDays}
	s.plans = append(s.plans, p)
	return &p
}

func (s *Store) AddTopic(slug, name string) *models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Topic{ID: uint(len(s.topics) + 1), Slug: slug, Name: name}
	s.topics = append(s.topics, t)
	return &t
}

func (s *Store) AddTemplate(t models.EmailTemplate) *models.EmailTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uint(len(s.templates) + 1)
	s.templates = append(s.templates, t)
	return &t
}

func (s *Store) PutSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

func (s *Store) Contacts() []models.Contact         { return snapshot(s, &s.contacts) }
func (s *Store) Orders() []models.Order             { return snapshot(s, &s.orders) }
func (s *Store) OrderItems() []models.OrderItem     { return snapshot(s, &s.items) }
func (s *Store) Transactions() []models.Transaction { return snapshot(s, &s.transactions) }
func (s *Store) Memberships() []models.Membership   { return snapshot(s, &s.memberships) }
func (s *Store) EmailSends() []models.EmailSend     { return snapshot(s, &s.emailSends) }
func (s *Store) Subscriptions() []models.Subscription {
	return snapshot(s, &s.subscriptions)
}

func (s *Store) EventLogs() []models.ProcessorEventLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ProcessorEventLog, 0, len(s.eventLogs))
	for _, l := range s.eventLogs {
		out = append(out, l)
	}
	return out
}

func snapshot[T any](s *Store, rows *[]T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(*rows))
	copy(out, *rows)
	return out
}
