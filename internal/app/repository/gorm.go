package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/types"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Repository on Postgres. The *gorm.DB must be opened
// with TranslateError so unique violations surface as ErrDuplicate.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Repository { return &GormStore{db: db} }

var Module = fx.Options(
	fx.Provide(NewGormStore),
)

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *GormStore) FindContactByEmail(ctx context.Context, normalizedEmail string) (*models.Contact, error) {
	return first[models.Contact](ctx, s.db, "normalized_email = ?", normalizedEmail)
}

func (s *GormStore) FindContactByID(ctx context.Context, id uint) (*models.Contact, error) {
	return first[models.Contact](ctx, s.db, "id = ?", id)
}

func (s *GormStore) CreateContact(ctx context.Context, c *models.Contact) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) SaveContact(ctx context.Context, c *models.Contact) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

func (s *GormStore) FindCampaignByReftag(ctx context.Context, reftag string) (*models.Campaign, error) {
	return first[models.Campaign](ctx, s.db, "reftag = ?", reftag)
}

func (s *GormStore) FindPlanByID(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	return first[models.MembershipPlan](ctx, s.db, "id = ?", id)
}

func (s *GormStore) FindPlanBySlug(ctx context.Context, slug string) (*models.MembershipPlan, error) {
	return first[models.MembershipPlan](ctx, s.db, "slug = ?", slug)
}

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

// SaveOrder never touches receipt_email_send_id; SetReceiptEmailSend owns it.
func (s *GormStore) SaveOrder(ctx context.Context, o *models.Order) error {
	return translate(s.db.WithContext(ctx).Omit("receipt_email_send_id").Save(o).Error)
}

func (s *GormStore) FindOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	return first[models.Order](ctx, s.db, "id = ?", id)
}

func (s *GormStore) FindOrderByPublicID(ctx context.Context, publicID string) (*models.Order, error) {
	return first[models.Order](ctx, s.db, "public_id = ?", publicID)
}

func (s *GormStore) SetReceiptEmailSend(ctx context.Context, orderID, emailSendID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND receipt_email_send_id IS NULL", orderID).
		Update("receipt_email_send_id", emailSendID)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) UpdateOrderStatusIf(ctx context.Context, orderID uint, from, to types.OrderStatus, paymentIntentID *string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(orderStatusUpdates(to, paymentIntentID))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func orderStatusUpdates(to types.OrderStatus, paymentIntentID *string) map[string]any {
	updates := map[string]any{"status": to}
	if paymentIntentID != nil {
		updates["stripe_payment_intent_id"] = *paymentIntentID
	}
	return updates
}

func (s *GormStore) ScanOrders(ctx context.Context, q *OrderScan) ([]*models.Order, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if len(q.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(q.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := tx.Limit(q.Size)
	if q.From > 0 {
		query = query.Offset(q.From)
	}
	if q.SortBy != "" {
		query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: q.SortBy}, Desc: q.SortOrder != "asc"}}})
	}

	var rows []*models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return rows, total, nil
}

func (s *GormStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *GormStore) ListOrderItems(ctx context.Context, orderID uint) ([]*models.OrderItem, error) {
	var items []*models.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) LatestMembership(ctx context.Context, contactID uint) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("end_day DESC").Order("id DESC").
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) FindTemplateBySlug(ctx context.Context, slug string) (*models.EmailTemplate, error) {
	return first[models.EmailTemplate](ctx, s.db, "slug = ?", slug)
}

func (s *GormStore) FindEmailSendByID(ctx context.Context, id uint) (*models.EmailSend, error) {
	return first[models.EmailSend](ctx, s.db, "id = ?", id)
}

func (s *GormStore) CreateEmailSend(ctx context.Context, e *models.EmailSend) error {
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) SaveEmailSend(ctx context.Context, e *models.EmailSend) error {
	return translate(s.db.WithContext(ctx).Save(e).Error)
}

func (s *GormStore) FindTopicsBySlugs(ctx context.Context, slugs []string) ([]*models.Topic, error) {
	var topics []*models.Topic
	if err := s.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&topics).Error; err != nil {
		return nil, translate(err)
	}
	return topics, nil
}

func (s *GormStore) FindSubscriptionByKey(ctx context.Context, key string) (*models.Subscription, error) {
	return first[models.Subscription](ctx, s.db, "key = ?", key)
}

func (s *GormStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return translate(s.db.WithContext(ctx).Create(sub).Error)
}

func (s *GormStore) ListSubscriptionsByContact(ctx context.Context, contactID uint, limit int) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).Where("contact_id = ?", contactID).Order("id").Limit(limit).Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (s *GormStore) DeleteSubscriptions(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Subscription{}).Error)
}

func (s *GormStore) FindSetting(ctx context.Context, key string) (*models.Setting, error) {
	return first[models.Setting](ctx, s.db, "key = ?", key)
}

func (s *GormStore) SaveEventLog(ctx context.Context, l *models.ProcessorEventLog) error {
	return translate(s.db.WithContext(ctx).Save(l).Error)
}

func (s *GormStore) HasEventWithStatus(ctx context.Context, provider types.PaymentProvider, eventID string, status types.ProcessorEventStatus) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ProcessorEventLog{}).
		Where("provider = ? AND event_id = ? AND status = ?", provider, eventID, status).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}
