// Package memstore is an in-memory repository.Repository for service tests.
// Transactions run one at a time and undo their own writes when fn fails.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/types"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	contacts      []models.Contact
	campaigns     []models.Campaign
	plans         []models.MembershipPlan
	orders        []models.Order
	items         []models.OrderItem
	transactions  []models.Transaction
	memberships   []models.Membership
	templates     []models.EmailTemplate
	emailSends    []models.EmailSend
	topics        []models.Topic
	subscriptions []models.Subscription
	settings      map[string]string
	eventLogs     map[string]models.ProcessorEventLog

	// Hooks let a test fail a specific call.
	FailCreateOrder      error
	FailCreateMembership error
}

var _ repository.Repository = (*Store)(nil)

func New() *Store {
	return &Store{settings: map[string]string{}, eventLogs: map[string]models.ProcessorEventLog{}}
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrNotFound, what)
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
}

func find[T any](rows []T, match func(*T) bool) (*T, int) {
	for i := range rows {
		if match(&rows[i]) {
			c := rows[i]
			return &c, i
		}
	}
	return nil, -1
}

func (s *Store) FindContactByEmail(_ context.Context, email string) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := find(s.contacts, func(c *models.Contact) bool { return c.NormalizedEmail == email })
	if c == nil {
		return nil, notFound("contact")
	}
	return c, nil
}

func (s *Store) FindContactByID(_ context.Context, id uint) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := find(s.contacts, func(c *models.Contact) bool { return c.ID == id })
	if c == nil {
		return nil, notFound("contact")
	}
	return c, nil
}

func (s *Store) CreateContact(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, _ := find(s.contacts, func(x *models.Contact) bool { return x.NormalizedEmail == c.NormalizedEmail }); existing != nil {
		return duplicate("contact.normalized_email")
	}
	c.ID = uint(len(s.contacts) + 1)
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	s.contacts = append(s.contacts, *c)
	return nil
}

func (s *Store) SaveContact(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.contacts, func(x *models.Contact) bool { return x.ID == c.ID })
	if i < 0 {
		return notFound("contact")
	}
	c.UpdatedAt = time.Now()
	s.contacts[i] = *c
	return nil
}

func (s *Store) FindCampaignByReftag(_ context.Context, reftag string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := find(s.campaigns, func(c *models.Campaign) bool { return c.Reftag == reftag })
	if c == nil {
		return nil, notFound("campaign")
	}
	return c, nil
}

func (s *Store) FindPlanByID(_ context.Context, id uint) (*models.MembershipPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := find(s.plans, func(p *models.MembershipPlan) bool { return p.ID == id })
	if p == nil {
		return nil, notFound("plan")
	}
	return p, nil
}

func (s *Store) FindPlanBySlug(_ context.Context, slug string) (*models.MembershipPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := find(s.plans, func(p *models.MembershipPlan) bool { return p.Slug == slug })
	if p == nil {
		return nil, notFound("plan")
	}
	return p, nil
}

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateOrder != nil {
		return s.FailCreateOrder
	}
	o.ID = uint(len(s.orders) + 1)
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	s.orders = append(s.orders, *o)
	return nil
}

func (s *Store) SaveOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.orders, func(x *models.Order) bool { return x.ID == o.ID })
	if i < 0 {
		return notFound("order")
	}
	receipt := s.orders[i].ReceiptEmailSendID
	o.UpdatedAt = time.Now()
	s.orders[i] = *o
	s.orders[i].ReceiptEmailSendID = receipt
	return nil
}

func (s *Store) FindOrderByID(_ context.Context, id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, _ := find(s.orders, func(o *models.Order) bool { return o.ID == id })
	if o == nil {
		return nil, notFound("order")
	}
	return o, nil
}

func (s *Store) FindOrderByPublicID(_ context.Context, publicID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, _ := find(s.orders, func(o *models.Order) bool { return o.PublicID == publicID })
	if o == nil {
		return nil, notFound("order")
	}
	return o, nil
}

func (s *Store) SetReceiptEmailSend(_ context.Context, orderID, emailSendID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.orders, func(o *models.Order) bool { return o.ID == orderID })
	if i < 0 || s.orders[i].ReceiptEmailSendID != nil {
		return false, nil
	}
	id := emailSendID
	s.orders[i].ReceiptEmailSendID = &id
	return true, nil
}

func (s *Store) UpdateOrderStatusIf(_ context.Context, orderID uint, from, to types.OrderStatus, paymentIntentID *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.orders, func(o *models.Order) bool { return o.ID == orderID })
	if i < 0 || s.orders[i].Status != from {
		return false, nil
	}
	s.orders[i].Status = to
	if paymentIntentID != nil {
		pi := *paymentIntentID
		s.orders[i].StripePaymentIntentID = &pi
	}
	s.orders[i].UpdatedAt = time.Now()
	return true, nil
}

// ScanOrders ignores filters and sorts by id descending.
func (s *Store) ScanOrders(_ context.Context, q *repository.OrderScan) ([]*models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]*models.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		rows = append(rows, &o)
	}
	total := int64(len(rows))
	if q.From >= len(rows) {
		return nil, total, nil
	}
	rows = rows[q.From:]
	if q.Size > 0 && q.Size < len(rows) {
		rows = rows[:q.Size]
	}
	return rows, total, nil
}

func (s *Store) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = uint(len(s.items) + 1)
	item.CreatedAt = time.Now()
	s.items = append(s.items, *item)
	return nil
}

func (s *Store) ListOrderItems(_ context.Context, orderID uint) ([]*models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OrderItem
	for _, it := range s.items {
		if it.OrderID == orderID {
			c := it
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uint(len(s.transactions) + 1)
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	s.transactions = append(s.transactions, *t)
	return nil
}

func (s *Store) LatestMembership(_ context.Context, contactID uint) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Membership
	for _, m := range s.memberships {
		if m.ContactID != contactID {
			continue
		}
		if latest == nil || m.EndDay.After(latest.EndDay) || (m.EndDay.Equal(latest.EndDay) && m.ID > latest.ID) {
			c := m
			latest = &c
		}
	}
	if latest == nil {
		return nil, notFound("membership")
	}
	return latest, nil
}

func (s *Store) CreateMembership(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateMembership != nil {
		return s.FailCreateMembership
	}
	m.ID = uint(len(s.memberships) + 1)
	m.CreatedAt, m.UpdatedAt = time.Now(), time.Now()
	s.memberships = append(s.memberships, *m)
	return nil
}

func (s *Store) FindTemplateBySlug(_ context.Context, slug string) (*models.EmailTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := find(s.templates, func(t *models.EmailTemplate) bool { return t.Slug == slug })
	if t == nil {
		return nil, notFound("email template")
	}
	return t, nil
}

func (s *Store) FindEmailSendByID(_ context.Context, id uint) (*models.EmailSend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := find(s.emailSends, func(e *models.EmailSend) bool { return e.ID == id })
	if e == nil {
		return nil, notFound("email send")
	}
	return e, nil
}

func (s *Store) CreateEmailSend(_ context.Context, e *models.EmailSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uint(len(s.emailSends) + 1)
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	s.emailSends = append(s.emailSends, *e)
	return nil
}

func (s *Store) SaveEmailSend(_ context.Context, e *models.EmailSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.emailSends, func(x *models.EmailSend) bool { return x.ID == e.ID })
	if i < 0 {
		return notFound("email send")
	}
	e.UpdatedAt = time.Now()
	s.emailSends[i] = *e
	return nil
}

func (s *Store) FindTopicsBySlugs(_ context.Context, slugs []string) ([]*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Topic
	for _, t := range s.topics {
		if slices.Contains(slugs, t.Slug) {
			c := t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) FindSubscriptionByKey(_ context.Context, key string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, _ := find(s.subscriptions, func(x *models.Subscription) bool { return x.Key == key })
	if sub == nil {
		return nil, notFound("subscription")
	}
	return sub, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, _ := find(s.subscriptions, func(x *models.Subscription) bool { return x.Key == sub.Key }); existing != nil {
		return duplicate("subscription.key")
	}
	var maxID uint
	for _, x := range s.subscriptions {
		maxID = max(maxID, x.ID)
	}
	sub.ID = maxID + 1
	sub.CreatedAt, sub.UpdatedAt = time.Now(), time.Now()
	s.subscriptions = append(s.subscriptions, *sub)
	return nil
}

func (s *Store) ListSubscriptionsByContact(_ context.Context, contactID uint, limit int) ([]*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Subscription
	for _, x := range s.subscriptions {
		if x.ContactID == contactID {
			c := x
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteSubscriptions(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = slices.DeleteFunc(s.subscriptions, func(x models.Subscription) bool {
		return slices.Contains(ids, x.ID)
	})
	return nil
}

func (s *Store) FindSetting(_ context.Context, key string) (*models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, notFound("setting")
	}
	return &models.Setting{Key: key, Value: v}, nil
}

func (s *Store) SaveEventLog(_ context.Context, l *models.ProcessorEventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLogs[l.ID] = *l
	return nil
}

func (s *Store) HasEventWithStatus(_ context.Context, provider types.PaymentProvider, eventID string, status types.ProcessorEventStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.eventLogs {
		if l.Provider == provider && l.EventID == eventID && l.Status == status {
			return true, nil
		}
	}
	return false, nil
}
