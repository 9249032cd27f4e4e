package memstore

import (
	"context"
	"maps"
	"slices"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/types"
)

func (s *Store) Transaction(_ context.Context, fn func(tx repository.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	tx := &txStore{Store: s, undo: map[string]func(){}}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

var _ repository.Repository = (*txStore)(nil)

// txStore copies a table the first time the transaction writes to it, so a
// rollback leaves writes made outside the transaction alone.
type txStore struct {
	*Store
	undo map[string]func()
}

func keep[T any](rows *[]T) func() {
	saved := slices.Clone(*rows)
	return func() { *rows = saved }
}

func (t *txStore) touch(table string) {
	if _, ok := t.undo[table]; ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var restore func()
	switch table {
	case "contacts":
		restore = keep(&t.contacts)
	case "orders":
		restore = keep(&t.orders)
	case "items":
		restore = keep(&t.items)
	case "transactions":
		restore = keep(&t.transactions)
	case "memberships":
		restore = keep(&t.memberships)
	case "email_sends":
		restore = keep(&t.emailSends)
	case "subscriptions":
		restore = keep(&t.subscriptions)
	case "event_logs":
		saved := maps.Clone(t.eventLogs)
		restore = func() { t.eventLogs = saved }
	}
	t.undo[table] = restore
}

func (t *txStore) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, restore := range t.undo {
		restore()
	}
}

// Transaction joins the open transaction.
func (t *txStore) Transaction(_ context.Context, fn func(tx repository.Repository) error) error {
	return fn(t)
}

func (t *txStore) CreateContact(ctx context.Context, c *models.Contact) error {
	t.touch("contacts")
	return t.Store.CreateContact(ctx, c)
}

func (t *txStore) SaveContact(ctx context.Context, c *models.Contact) error {
	t.touch("contacts")
	return t.Store.SaveContact(ctx, c)
}

func (t *txStore) CreateOrder(ctx context.Context, o *models.Order) error {
	t.touch("orders")
	return t.Store.CreateOrder(ctx, o)
}

func (t *txStore) SaveOrder(ctx context.Context, o *models.Order) error {
	t.touch("orders")
	return t.Store.SaveOrder(ctx, o)
}

func (t *txStore) SetReceiptEmailSend(ctx context.Context, orderID, emailSendID uint) (bool, error) {
	t.touch("orders")
	return t.Store.SetReceiptEmailSend(ctx, orderID, emailSendID)
}

func (t *txStore) UpdateOrderStatusIf(ctx context.Context, orderID uint, from, to types.OrderStatus, paymentIntentID *string) (bool, error) {
	t.touch("orders")
	return t.Store.UpdateOrderStatusIf(ctx, orderID, from, to, paymentIntentID)
}

func (t *txStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	t.touch("items")
	return t.Store.CreateOrderItem(ctx, item)
}

func (t *txStore) CreateTransaction(ctx context.Context, tr *models.Transaction) error {
	t.touch("transactions")
	return t.Store.CreateTransaction(ctx, tr)
}

func (t *txStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	t.touch("memberships")
	return t.Store.CreateMembership(ctx, m)
}

func (t *txStore) CreateEmailSend(ctx context.Context, e *models.EmailSend) error {
	t.touch("email_sends")
	return t.Store.CreateEmailSend(ctx, e)
}

func (t *txStore) SaveEmailSend(ctx context.Context, e *models.EmailSend) error {
	t.touch("email_sends")
	return t.Store.SaveEmailSend(ctx, e)
}

func (t *txStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	t.touch("subscriptions")
	return t.Store.CreateSubscription(ctx, sub)
}

func (t *txStore) DeleteSubscriptions(ctx context.Context, ids []uint) error {
	t.touch("subscriptions")
	return t.Store.DeleteSubscriptions(ctx, ids)
}

func (t *txStore) SaveEventLog(ctx context.Context, l *models.ProcessorEventLog) error {
	t.touch("event_logs")
	return t.Store.SaveEventLog(ctx, l)
}
