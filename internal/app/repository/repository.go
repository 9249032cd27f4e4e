// Package repository is the record store used by the services. Every call is
// trusted server-side access; there is no per-caller filtering.
package repository

import (
	"context"
	"errors"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/types"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type ContactRepository interface {
	FindContactByEmail(ctx context.Context, normalizedEmail string) (*models.Contact, error)
	FindContactByID(ctx context.Context, id uint) (*models.Contact, error)
	CreateContact(ctx context.Context, c *models.Contact) error
	SaveContact(ctx context.Context, c *models.Contact) error
}

type CampaignRepository interface {
	FindCampaignByReftag(ctx context.Context, reftag string) (*models.Campaign, error)
}

type PlanRepository interface {
	FindPlanByID(ctx context.Context, id uint) (*models.MembershipPlan, error)
	FindPlanBySlug(ctx context.Context, slug string) (*models.MembershipPlan, error)
}

// OrderScan is an admin listing query over orders.
type OrderScan struct {
	Filters   []*types.CommonFilter
	From      int
	Size      int
	SortBy    string
	SortOrder string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	SaveOrder(ctx context.Context, o *models.Order) error
	FindOrderByID(ctx context.Context, id uint) (*models.Order, error)
	FindOrderByPublicID(ctx context.Context, publicID string) (*models.Order, error)
	// SetReceiptEmailSend writes the receipt id only if none is set yet and
	// reports whether this call won.
	SetReceiptEmailSend(ctx context.Context, orderID, emailSendID uint) (bool, error)
	// UpdateOrderStatusIf moves the order to to only while it is still in
	// from, and reports whether a row changed.
	UpdateOrderStatusIf(ctx context.Context, orderID uint, from, to types.OrderStatus, paymentIntentID *string) (bool, error)
	ScanOrders(ctx context.Context, q *OrderScan) ([]*models.Order, int64, error)

	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	ListOrderItems(ctx context.Context, orderID uint) ([]*models.OrderItem, error)

	CreateTransaction(ctx context.Context, t *models.Transaction) error
}

type MembershipRepository interface {
	// LatestMembership returns the contact's term with the latest end day.
	LatestMembership(ctx context.Context, contactID uint) (*models.Membership, error)
	CreateMembership(ctx context.Context, m *models.Membership) error
}

type EmailRepository interface {
	FindTemplateBySlug(ctx context.Context, slug string) (*models.EmailTemplate, error)
	FindEmailSendByID(ctx context.Context, id uint) (*models.EmailSend, error)
	CreateEmailSend(ctx context.Context, s *models.EmailSend) error
	SaveEmailSend(ctx context.Context, s *models.EmailSend) error
}

type SubscriptionRepository interface {
	FindTopicsBySlugs(ctx context.Context, slugs []string) ([]*models.Topic, error)
	FindSubscriptionByKey(ctx context.Context, key string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, s *models.Subscription) error
	// ListSubscriptionsByContact returns the first page, ordered by id.
	ListSubscriptionsByContact(ctx context.Context, contactID uint, limit int) ([]*models.Subscription, error)
	DeleteSubscriptions(ctx context.Context, ids []uint) error
}

type SettingRepository interface {
	FindSetting(ctx context.Context, key string) (*models.Setting, error)
}

type EventLogRepository interface {
	SaveEventLog(ctx context.Context, l *models.ProcessorEventLog) error
	HasEventWithStatus(ctx context.Context, provider types.PaymentProvider, eventID string, status types.ProcessorEventStatus) (bool, error)
}

// Repository is the full record store. Transaction runs fn against a store
// bound to one database transaction.
type Repository interface {
	ContactRepository
	CampaignRepository
	PlanRepository
	OrderRepository
	MembershipRepository
	EmailRepository
	SubscriptionRepository
	SettingRepository
	EventLogRepository

	Transaction(ctx context.Context, fn func(tx Repository) error) error
}
