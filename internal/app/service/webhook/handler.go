// Package webhook reconciles processor completion callbacks with orders.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/app/service/contact"
	"github.com/fatflowers/patron/internal/app/service/email"
	"github.com/fatflowers/patron/internal/app/service/eventlog"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/membership"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/platform/lock"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/metrics"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUnresolvable marks an event whose order, contact or plan is unknown.
// Such events are acknowledged and left for manual reconciliation.
var ErrUnresolvable = errors.New("webhook event cannot be resolved")

type Outcome string

const (
	OutcomeHandled    Outcome = "handled"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeFailed     Outcome = "failed"
)

// EventParser verifies and decodes a raw webhook delivery.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*stripe.Event, error)
}

type Deps struct {
	fx.In

	Repo        repository.Repository
	Parser      EventParser
	Contacts    *contact.Resolver
	Ledger      *ledger.Ledger
	Memberships *membership.Service
	Emails      *email.Dispatcher
	Events      *eventlog.Service
	Locker      lock.Locker
	Metrics     *metrics.Business `optional:"true"`
	Log         *zap.SugaredLogger
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Handler {
	return &Handler{Deps: d, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(
		New,
		func(c *stripe.Client) EventParser { return c },
	),
)

// result is stored on the event log row.
type result struct {
	OrderID       uint                  `json:"order_id,omitempty"`
	MembershipID  uint                  `json:"membership_id,omitempty"`
	EmailSendID   uint                  `json:"email_send_id,omitempty"`
	ReceiptStatus types.EmailSendStatus `json:"receipt_status,omitempty"`
	Reason        string                `json:"reason,omitempty"`
}

// HandleStripe processes one delivery. Signature failures are returned as
// errors wrapping stripe.ErrInvalidSignature. Unresolvable events are not
// errors; they are logged and acknowledged.
func (h *Handler) HandleStripe(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	start := time.Now()
	ev, err := h.Parser.ParseEvent(payload, signature)
	if err != nil {
		return OutcomeFailed, err
	}
	log := logctx.FromCtx(ctx, h.Log).With("event_id", ev.ID, "event_type", ev.Type)

	outcome, err := h.handle(ctx, ev, payload)
	h.Metrics.WebhookEvent(string(outcome))
	h.Metrics.ObserveProcess("webhook", string(outcome), start)
	if err != nil {
		log.Errorw("webhook_failed", "error", err)
		return outcome, err
	}
	log.Infow("webhook_processed", "outcome", outcome)
	return outcome, nil
}

func (h *Handler) handle(ctx context.Context, ev *stripe.Event, payload []byte) (Outcome, error) {
	row := h.Events.Begin(ctx, types.PaymentProviderStripe, ev.ID, ev.Type, payload)

	if ev.Type != stripe.EventCheckoutSessionCompleted {
		h.Events.Finish(ctx, row, types.ProcessorEventStatusIgnored, nil)
		return OutcomeIgnored, nil
	}
	done, err := h.Events.HasHandled(ctx, types.PaymentProviderStripe, ev.ID)
	if err != nil {
		h.Events.Finish(ctx, row, types.ProcessorEventStatusHandleFailed, result{Reason: err.Error()})
		return OutcomeFailed, err
	}
	if done {
		h.Events.Finish(ctx, row, types.ProcessorEventStatusIgnored, result{Reason: "duplicate event"})
		return OutcomeDuplicate, nil
	}

	res, outcome, err := h.complete(ctx, ev)
	switch {
	case errors.Is(err, ErrUnresolvable):
		logctx.FromCtx(ctx, h.Log).Warnw("webhook_unresolved", "event_id", ev.ID, "reason", err.Error())
		h.Events.Finish(ctx, row, types.ProcessorEventStatusHandleFailed, result{Reason: err.Error()})
		return OutcomeUnresolved, nil
	case err != nil:
		h.Events.Finish(ctx, row, types.ProcessorEventStatusHandleFailed, result{Reason: err.Error()})
		return OutcomeFailed, err
	case outcome == OutcomeDuplicate:
		h.Events.Finish(ctx, row, types.ProcessorEventStatusIgnored, res)
		return outcome, nil
	}
	h.Events.Finish(ctx, row, types.ProcessorEventStatusHandled, res)
	return OutcomeHandled, nil
}

func unresolvable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnresolvable, fmt.Sprintf(format, args...))
}

func (h *Handler) complete(ctx context.Context, ev *stripe.Event) (result, Outcome, error) {
	o, err := h.resolveOrder(ctx, ev.Metadata)
	if err != nil {
		return result{}, "", err
	}
	res := result{OrderID: o.ID}
	if o.Status == types.OrderStatusPaid {
		res.Reason = "order already paid"
		return res, OutcomeDuplicate, nil
	}
	if o.ContactID == nil {
		return res, "", unresolvable("order %d has no contact", o.ID)
	}
	c, err := h.Contacts.FindByID(ctx, *o.ContactID)
	if err != nil {
		return res, "", err
	}
	if c == nil {
		return res, "", unresolvable("contact %d of order %d not found", *o.ContactID, o.ID)
	}

	items, err := h.Ledger.Items(ctx, o.ID)
	if err != nil {
		return res, "", err
	}
	isMembership := o.PlanID != nil || lo.SomeBy(items, func(it *models.OrderItem) bool {
		return it.ItemType == types.ItemTypeMembership
	})

	refID := lo.CoalesceOrEmpty(ev.PaymentIntentID, ev.SessionID)
	if isMembership {
		err = h.completeMembership(ctx, ev, o, c, refID, &res)
	} else {
		err = h.completeDonation(ctx, ev, o, c, refID, &res)
	}
	if errors.Is(err, ledger.ErrStaleStatus) {
		// A concurrent delivery paid the order first.
		return result{OrderID: o.ID, Reason: "order already paid"}, OutcomeDuplicate, nil
	}
	return res, OutcomeHandled, err
}

// resolveOrder prefers the internal order id and falls back to the public id.
func (h *Handler) resolveOrder(ctx context.Context, md map[string]string) (*models.Order, error) {
	if raw := strings.TrimSpace(md["orderId"]); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			o, err := h.Ledger.FindByID(ctx, uint(id))
			if err != nil {
				return nil, err
			}
			if o != nil {
				return o, nil
			}
		}
	}
	if pub := strings.TrimSpace(md["publicOrderId"]); pub != "" {
		o, err := h.Ledger.FindByPublicID(ctx, pub)
		if apperror.IsValidation(err) {
			return nil, unresolvable("unknown public order id %q", pub)
		}
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, unresolvable("metadata names no order")
}

// resolvePlan tries metadata planId, then planSlug, then the order's plan.
func (h *Handler) resolvePlan(ctx context.Context, md map[string]string, o *models.Order) (*models.MembershipPlan, error) {
	if raw := strings.TrimSpace(md["planId"]); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			p, err := h.Repo.FindPlanByID(ctx, uint(id))
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to find plan: %w", err)
			}
		}
	}
	if slug := strings.ToLower(strings.TrimSpace(md["planSlug"])); slug != "" {
		p, err := h.Repo.FindPlanBySlug(ctx, slug)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to find plan: %w", err)
		}
	}
	if o.PlanID != nil {
		p, err := h.Repo.FindPlanByID(ctx, *o.PlanID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to find plan: %w", err)
		}
	}
	return nil, unresolvable("no plan for order %d", o.ID)
}

func (h *Handler) completeMembership(ctx context.Context, ev *stripe.Event, o *models.Order, c *models.Contact, refID string, res *result) error {
	raw, err := h.resolvePlan(ctx, ev.Metadata, o)
	if err != nil {
		return err
	}
	// The receipt needs a valid price; the term does not.
	plan, perr := h.Memberships.PlanByID(ctx, raw.ID)
	if perr != nil && !apperror.IsValidation(perr) {
		return perr
	}
	window := max(raw.RenewalWindowDays, 0)

	unlock, err := h.Locker.Lock(ctx, membership.LockKey(c.ID))
	if err != nil {
		return fmt.Errorf("failed to lock contact %d: %w", c.ID, err)
	}
	defer unlock()

	prior, err := h.Memberships.LatestTerm(ctx, c.ID)
	if err != nil {
		return err
	}
	dates := h.Memberships.Calculator().CalculateTermDates(h.now(), prior, window)

	err = h.Repo.Transaction(ctx, func(tx repository.Repository) error {
		if err := h.markPaid(ctx, tx, o, ev.PaymentIntentID, refID); err != nil {
			return err
		}
		m, err := h.Memberships.With(tx).Create(ctx, membership.NewMembership{
			ContactID:  c.ID,
			PlanID:     raw.ID,
			CampaignID: o.CampaignID,
			OrderID:    lo.ToPtr(o.ID),
			Dates:      dates,
		})
		if err != nil {
			return err
		}
		res.MembershipID = m.ID
		return nil
	})
	if err != nil {
		return err
	}

	if plan == nil {
		logctx.FromCtx(ctx, h.Log).Warnw("membership_receipt_skipped", "order_id", o.ID, "plan_id", raw.ID, "reason", perr.Error())
		return nil
	}
	params := email.MembershipReceipt(c.DisplayName, o, plan.Name, plan.Price, dates.Start.String(), dates.End.String())
	return h.receipt(ctx, o, ev.CustomerEmail, email.SlugMembershipReceipt, params, res)
}

func (h *Handler) completeDonation(ctx context.Context, ev *stripe.Event, o *models.Order, c *models.Contact, refID string, res *result) error {
	err := h.Repo.Transaction(ctx, func(tx repository.Repository) error {
		return h.markPaid(ctx, tx, o, ev.PaymentIntentID, refID)
	})
	if err != nil {
		return err
	}
	return h.receipt(ctx, o, ev.CustomerEmail, email.SlugDonationReceipt, email.DonationReceipt(c.DisplayName, o), res)
}

// markPaid claims the order for this delivery. It fails with
// ledger.ErrStaleStatus when the order is no longer created.
func (h *Handler) markPaid(ctx context.Context, tx repository.Repository, o *models.Order, paymentIntentID, refID string) error {
	l := h.Ledger.With(tx)
	if err := l.CompareAndTransition(ctx, o, types.OrderStatusPaid, &ledger.TransitionExtra{PaymentIntentID: paymentIntentID}); err != nil {
		return err
	}
	var ref *string
	if refID != "" {
		ref = &refID
	}
	_, err := l.CreateTransaction(ctx, o, types.PaymentTypeStripe, ref)
	return err
}

// receipt runs after the payment is committed, so its failure is logged
// and does not fail the event.
func (h *Handler) receipt(ctx context.Context, o *models.Order, to, slug string, params email.Params, res *result) error {
	r, err := h.Emails.SendReceipt(ctx, o, to, slug, params)
	if err != nil {
		logctx.FromCtx(ctx, h.Log).Errorw("receipt_dispatch_failed", "order_id", o.ID, "error", err)
		return nil
	}
	res.EmailSendID = r.EmailSendID
	res.ReceiptStatus = r.Status
	return nil
}
