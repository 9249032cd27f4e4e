// Package checkout turns public and admin submissions into orders, either
// handing off to the payment processor or recording a manual payment.
package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/app/service/attribution"
	"github.com/fatflowers/patron/internal/app/service/contact"
	"github.com/fatflowers/patron/internal/app/service/email"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/membership"
	"github.com/fatflowers/patron/internal/app/service/settings"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/platform/lock"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/metrics"
	"github.com/fatflowers/patron/pkg/money"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	modalDonation   = "donation"
	modalMembership = "membership"
	paymentStripe   = "stripe"
)

// Processor creates hosted checkout sessions.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req stripe.CheckoutRequest) (*stripe.Session, error)
}

type Deps struct {
	fx.In

	Config      *config.Config
	Repo        repository.Repository
	Contacts    *contact.Resolver
	Attribution *attribution.Resolver
	Ledger      *ledger.Ledger
	Memberships *membership.Service
	Settings    *settings.Service
	Emails      *email.Dispatcher
	Processor   Processor
	Locker      lock.Locker
	Metrics     *metrics.Business `optional:"true"`
	Log         *zap.SugaredLogger
}

type Service struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Service {
	return &Service{Deps: d, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(
		New,
		func(c *stripe.Client) Processor { return c },
	),
)

// Redirect is returned to the browser to continue at the processor.
type Redirect struct {
	URL           string `json:"url"`
	PublicOrderID string `json:"publicOrderId"`
}

// ManualResult describes an order recorded without the processor.
type ManualResult struct {
	PublicOrderID string                `json:"publicOrderId"`
	Status        types.OrderStatus     `json:"status"`
	ReceiptStatus types.EmailSendStatus `json:"receiptStatus,omitempty"`
}

func (s *Service) resolveLang(lang string) (string, error) {
	if lang == "" {
		return s.Config.Commerce.DefaultLang, nil
	}
	if !s.Config.SupportsLang(lang) {
		return "", apperror.Validationf("lang", "unsupported language %q", lang)
	}
	return lang, nil
}

func (s *Service) donationAmount(ctx context.Context, a money.Amount) (money.Cents, error) {
	cents, err := a.Cents("amount")
	if err != nil {
		return 0, err
	}
	maxUSD, err := s.Settings.MaxDonationUSD(ctx)
	if err != nil {
		return 0, err
	}
	if err := money.EnforceMaxDonationUSD("amount", cents, maxUSD); err != nil {
		return 0, err
	}
	return cents, nil
}

// resolveContact attributes the submission and finds or upserts its contact.
func (s *Service) resolveContact(ctx context.Context, in ContactInput, lang string) (*models.Contact, *uint, error) {
	campaignID := s.Attribution.Resolve(ctx, in.Ref)
	c, err := s.Contacts.FindOrUpsert(ctx, in.Email, contact.Fields{
		Name:       in.Name,
		Phone:      in.Phone,
		Address:    in.Address,
		Language:   lang,
		CampaignID: campaignID,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, campaignID, nil
}

// SubmitDonation creates a donation order and a checkout session for it.
func (s *Service) SubmitDonation(ctx context.Context, in DonationInput) (*Redirect, error) {
	in.trim()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	lang, err := s.resolveLang(in.Lang)
	if err != nil {
		return nil, err
	}
	if _, err := parseEntryURL(in.EntryURL); err != nil {
		return nil, err
	}
	cents, err := s.donationAmount(ctx, in.Amount)
	if err != nil {
		return nil, err
	}
	c, campaignID, err := s.resolveContact(ctx, in.ContactInput, lang)
	if err != nil {
		return nil, err
	}

	o, err := s.Ledger.CreateOrder(ctx, ledger.NewOrder{
		ContactID:  lo.ToPtr(c.ID),
		CampaignID: campaignID,
		Lang:       lang,
		Total:      cents,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.AddItem(ctx, o.ID, types.ItemTypeDonation, "Donation", cents, 1); err != nil {
		return nil, err
	}
	s.Metrics.OrderCreated(string(types.ItemTypeDonation), paymentStripe)

	name := lo.CoalesceOrEmpty(in.CheckoutName, "Donation")
	return s.startCheckout(ctx, o, in.EntryURL, modalDonation, stripe.CheckoutRequest{
		AmountCents: int64(cents),
		Email:       c.NormalizedEmail,
		Locale:      lang,
		Name:        name,
		Donation:    true,
		Metadata: map[string]string{
			"publicOrderId": o.PublicID,
			"orderId":       strconv.FormatUint(uint64(o.ID), 10),
		},
	})
}

// SubmitMembership creates a membership order and a checkout session for it.
// A member whose term is active may only pay again once the renewal window
// has opened.
func (s *Service) SubmitMembership(ctx context.Context, in MembershipInput) (*Redirect, error) {
	in.trim()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	lang, err := s.resolveLang(in.Lang)
	if err != nil {
		return nil, err
	}
	if _, err := parseEntryURL(in.EntryURL); err != nil {
		return nil, err
	}
	plan, err := s.Memberships.PlanBySlug(ctx, in.Plan)
	if err != nil {
		return nil, err
	}
	c, campaignID, err := s.resolveContact(ctx, in.ContactInput, lang)
	if err != nil {
		return nil, err
	}

	prior, err := s.Memberships.LatestTerm(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	calc := s.Memberships.Calculator()
	if prior != nil && calc.IsActive(*prior, now) && !calc.IsRenewalWindowOpen(*prior, plan.RenewalWindowDays, now) {
		logctx.FromCtx(ctx, s.Log).Infow("membership_renewal_too_early", "contact_id", c.ID, "plan", plan.Slug, "term_end", prior.End.String())
		return nil, apperror.Validation("plan", "renewal not allowed yet")
	}

	o, err := s.Ledger.CreateOrder(ctx, ledger.NewOrder{
		ContactID:  lo.ToPtr(c.ID),
		CampaignID: campaignID,
		PlanID:     lo.ToPtr(plan.ID),
		Lang:       lang,
		Total:      plan.Price,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.AddItem(ctx, o.ID, types.ItemTypeMembership, plan.Name, plan.Price, 1); err != nil {
		return nil, err
	}
	s.Metrics.OrderCreated(string(types.ItemTypeMembership), paymentStripe)

	name := lo.CoalesceOrEmpty(in.CheckoutName, plan.Name+" membership")
	return s.startCheckout(ctx, o, in.EntryURL, modalMembership, stripe.CheckoutRequest{
		AmountCents: int64(plan.Price),
		Email:       c.NormalizedEmail,
		Locale:      lang,
		Name:        name,
		Metadata: map[string]string{
			"publicOrderId": o.PublicID,
			"orderId":       strconv.FormatUint(uint64(o.ID), 10),
			"planId":        strconv.FormatUint(uint64(plan.ID), 10),
			"planSlug":      plan.Slug,
		},
	})
}

// startCheckout requests the session and records it on o. Any processor
// failure moves o to error.
func (s *Service) startCheckout(ctx context.Context, o *models.Order, entryURL, modal string, req stripe.CheckoutRequest) (*Redirect, error) {
	success, cancel, err := BuildRedirectURLs(entryURL, o.PublicID, modal)
	if err != nil {
		return nil, err
	}
	req.SuccessURL, req.CancelURL = success, cancel

	sess, err := s.Processor.CreateCheckoutSession(ctx, req)
	if err == nil && (sess == nil || sess.URL == "" || sess.ID == "") {
		err = fmt.Errorf("checkout session response is missing id or url")
	}
	if err != nil {
		if terr := s.Ledger.TransitionStatus(ctx, o, types.OrderStatusError, nil); terr != nil {
			logctx.FromCtx(ctx, s.Log).Errorw("failed to mark order as error", "order_id", o.ID, "error", terr)
		}
		return nil, fmt.Errorf("failed to start checkout for order %d: %w", o.ID, err)
	}
	if err := s.Ledger.SetCheckoutSession(ctx, o, sess.ID); err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.Log).Infow("checkout_started", "order_id", o.ID, "public_order_id", o.PublicID, "session_id", sess.ID)
	return &Redirect{URL: sess.URL, PublicOrderID: o.PublicID}, nil
}

// SubmitDonationManual records a donation paid by cash or check.
func (s *Service) SubmitDonationManual(ctx context.Context, in ManualDonationInput) (*ManualResult, error) {
	in.trim()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	lang, err := s.resolveLang(in.Lang)
	if err != nil {
		return nil, err
	}
	cents, err := s.donationAmount(ctx, in.Amount)
	if err != nil {
		return nil, err
	}
	c, campaignID, err := s.resolveContact(ctx, in.ContactInput, lang)
	if err != nil {
		return nil, err
	}

	var o *models.Order
	err = s.Repo.Transaction(ctx, func(tx repository.Repository) error {
		l := s.Ledger.With(tx)
		var err error
		o, err = l.CreateOrder(ctx, ledger.NewOrder{
			ContactID:  lo.ToPtr(c.ID),
			CampaignID: campaignID,
			Lang:       lang,
			Total:      cents,
			Status:     types.OrderStatusPaid,
		})
		if err != nil {
			return err
		}
		if _, err := l.AddItem(ctx, o.ID, types.ItemTypeDonation, "Donation", cents, 1); err != nil {
			return err
		}
		_, err = l.CreateTransaction(ctx, o, in.PaymentMethod, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.OrderCreated(string(types.ItemTypeDonation), string(in.PaymentMethod))

	res := &ManualResult{PublicOrderID: o.PublicID, Status: o.Status}
	res.ReceiptStatus = s.sendReceipt(ctx, o, c.NormalizedEmail, email.SlugDonationReceipt, email.DonationReceipt(c.DisplayName, o))
	return res, nil
}

// SubmitMembershipManual records a membership paid by cash or check and
// creates its term immediately. Unlike the checkout path it refuses any
// contact whose prior term is active or inside its renewal window.
func (s *Service) SubmitMembershipManual(ctx context.Context, in ManualMembershipInput) (*ManualResult, error) {
	in.trim()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	lang, err := s.resolveLang(in.Lang)
	if err != nil {
		return nil, err
	}
	plan, err := s.Memberships.PlanBySlug(ctx, in.Plan)
	if err != nil {
		return nil, err
	}
	c, campaignID, err := s.resolveContact(ctx, in.ContactInput, lang)
	if err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, membership.LockKey(c.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock contact %d: %w", c.ID, err)
	}
	defer unlock()

	prior, err := s.Memberships.LatestTerm(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	calc := s.Memberships.Calculator()
	if prior != nil && (calc.IsActive(*prior, now) || calc.IsRenewalWindowOpen(*prior, plan.RenewalWindowDays, now)) {
		logctx.FromCtx(ctx, s.Log).Infow("manual_membership_blocked", "contact_id", c.ID, "plan", plan.Slug, "term_end", prior.End.String())
		return nil, apperror.Validation("plan", "renewal not allowed yet")
	}
	dates := calc.CalculateTermDates(now, prior, plan.RenewalWindowDays)

	var o *models.Order
	err = s.Repo.Transaction(ctx, func(tx repository.Repository) error {
		l := s.Ledger.With(tx)
		var err error
		o, err = l.CreateOrder(ctx, ledger.NewOrder{
			ContactID:  lo.ToPtr(c.ID),
			CampaignID: campaignID,
			PlanID:     lo.ToPtr(plan.ID),
			Lang:       lang,
			Total:      plan.Price,
			Status:     types.OrderStatusPaid,
		})
		if err != nil {
			return err
		}
		if _, err := l.AddItem(ctx, o.ID, types.ItemTypeMembership, plan.Name, plan.Price, 1); err != nil {
			return err
		}
		if _, err := l.CreateTransaction(ctx, o, in.PaymentMethod, nil); err != nil {
			return err
		}
		_, err = s.Memberships.With(tx).Create(ctx, membership.NewMembership{
			ContactID:  c.ID,
			PlanID:     plan.ID,
			CampaignID: campaignID,
			OrderID:    lo.ToPtr(o.ID),
			Dates:      dates,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.OrderCreated(string(types.ItemTypeMembership), string(in.PaymentMethod))

	res := &ManualResult{PublicOrderID: o.PublicID, Status: o.Status}
	params := email.MembershipReceipt(c.DisplayName, o, plan.Name, plan.Price, dates.Start.String(), dates.End.String())
	res.ReceiptStatus = s.sendReceipt(ctx, o, c.NormalizedEmail, email.SlugMembershipReceipt, params)
	return res, nil
}

// sendReceipt dispatches after the order is committed. A failure here is
// logged only; the payment is already recorded.
func (s *Service) sendReceipt(ctx context.Context, o *models.Order, to, slug string, params email.Params) types.EmailSendStatus {
	r, err := s.Emails.SendReceipt(ctx, o, to, slug, params)
	if err != nil {
		logctx.FromCtx(ctx, s.Log).Errorw("receipt_dispatch_failed", "order_id", o.ID, "error", err)
		return ""
	}
	return r.Status
}
