package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/money"
	"github.com/fatflowers/patron/pkg/tool"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrIllegalTransition = errors.New("illegal order status transition")
	// ErrStaleStatus means the stored order no longer has the status the
	// caller read.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// transitions lists the forward moves allowed from each status.
var transitions = map[types.OrderStatus][]types.OrderStatus{
	types.OrderStatusCreated: {types.OrderStatusPaid, types.OrderStatusError, types.OrderStatusExpired},
	types.OrderStatusPaid:    {types.OrderStatusExpired},
}

// CanTransition reports whether an order may move from one status to
// another. Rewriting the current status is always allowed.
func CanTransition(from, to types.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Ledger owns orders, their items and transactions.
type Ledger struct {
	repo repository.Repository
	log  *zap.SugaredLogger
}

func New(repo repository.Repository, log *zap.SugaredLogger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

var Module = fx.Options(
	fx.Provide(New),
)

// With returns a ledger bound to repo, typically a transaction.
func (l *Ledger) With(repo repository.Repository) *Ledger {
	return &Ledger{repo: repo, log: l.log}
}

type NewOrder struct {
	ContactID  *uint
	CampaignID *uint
	PlanID     *uint
	Lang       string
	Total      money.Cents
	Status     types.OrderStatus
}

// CreateOrder persists an order under a fresh public id. Total must already
// equal the sum of the items the caller is about to add.
func (l *Ledger) CreateOrder(ctx context.Context, in NewOrder) (*models.Order, error) {
	if in.Status == "" {
		in.Status = types.OrderStatusCreated
	}
	o := &models.Order{
		PublicID:   tool.GeneratePublicID(),
		Status:     in.Status,
		ContactID:  in.ContactID,
		CampaignID: in.CampaignID,
		PlanID:     in.PlanID,
		Lang:       in.Lang,
		TotalCents: in.Total,
	}
	if err := l.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	logctx.FromCtx(ctx, l.log).Infow("order_created", "order_id", o.ID, "public_order_id", o.PublicID, "status", o.Status, "total_cents", o.TotalCents)
	return o, nil
}

// AddItem appends a line with total = unit * qty.
func (l *Ledger) AddItem(ctx context.Context, orderID uint, itemType types.ItemType, label string, unit money.Cents, qty int) (*models.OrderItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("order item qty must be at least 1, got %d", qty)
	}
	item := &models.OrderItem{
		OrderID:         orderID,
		ItemType:        itemType,
		Label:           label,
		UnitAmountCents: unit,
		Qty:             qty,
		TotalCents:      unit.Mul(qty),
	}
	if err := l.repo.CreateOrderItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}
	return item, nil
}

func (l *Ledger) CreateTransaction(ctx context.Context, o *models.Order, paymentType types.PaymentType, stripeRefID *string) (*models.Transaction, error) {
	t := &models.Transaction{
		OrderID:     o.ID,
		AmountCents: o.TotalCents,
		PaymentType: paymentType,
		ContactID:   o.ContactID,
		StripeRefID: stripeRefID,
	}
	if err := l.repo.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (l *Ledger) SetCheckoutSession(ctx context.Context, o *models.Order, sessionID string) error {
	o.StripeCheckoutSessionID = &sessionID
	if err := l.repo.SaveOrder(ctx, o); err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}
	return nil
}

// TransitionExtra carries processor references recorded with a transition.
type TransitionExtra struct {
	PaymentIntentID string
}

// TransitionStatus moves o to status, rejecting backward moves with
// ErrIllegalTransition.
func (l *Ledger) TransitionStatus(ctx context.Context, o *models.Order, status types.OrderStatus, extra *TransitionExtra) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s (order %d)", ErrIllegalTransition, o.Status, status, o.ID)
	}
	from := o.Status
	o.Status = status
	if extra != nil && extra.PaymentIntentID != "" {
		pi := extra.PaymentIntentID
		o.StripePaymentIntentID = &pi
	}
	if err := l.repo.SaveOrder(ctx, o); err != nil {
		o.Status = from
		return fmt.Errorf("failed to update order status: %w", err)
	}
	logctx.FromCtx(ctx, l.log).Infow("order_status_changed", "order_id", o.ID, "from", from, "to", status)
	return nil
}

// CompareAndTransition is TransitionStatus guarded by the stored status: it
// fails with ErrStaleStatus when another writer moved the order since o was
// read.
func (l *Ledger) CompareAndTransition(ctx context.Context, o *models.Order, status types.OrderStatus, extra *TransitionExtra) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s (order %d)", ErrIllegalTransition, o.Status, status, o.ID)
	}
	var pi *string
	if extra != nil && extra.PaymentIntentID != "" {
		v := extra.PaymentIntentID
		pi = &v
	}
	changed, err := l.repo.UpdateOrderStatusIf(ctx, o.ID, o.Status, status, pi)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !changed {
		return fmt.Errorf("%w: order %d is no longer %s", ErrStaleStatus, o.ID, o.Status)
	}
	from := o.Status
	o.Status = status
	if pi != nil {
		o.StripePaymentIntentID = pi
	}
	logctx.FromCtx(ctx, l.log).Infow("order_status_changed", "order_id", o.ID, "from", from, "to", status)
	return nil
}

// FindByPublicID validates the UUID shape first. Malformed and unknown ids
// are both validation errors so callers cannot probe for existence.
func (l *Ledger) FindByPublicID(ctx context.Context, publicID string) (*models.Order, error) {
	id, err := uuid.Parse(strings.TrimSpace(publicID))
	if err != nil {
		return nil, apperror.Validation("publicOrderId", "not a uuid")
	}
	o, err := l.repo.FindOrderByPublicID(ctx, id.String())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("publicOrderId", "unknown order")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return o, nil
}

// FindByID returns nil without error when the order does not exist.
func (l *Ledger) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	o, err := l.repo.FindOrderByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return o, nil
}

func (l *Ledger) Items(ctx context.Context, orderID uint) ([]*models.OrderItem, error) {
	items, err := l.repo.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}
