package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fatflowers/patron/internal/app/service/attribution"
	"github.com/fatflowers/patron/internal/app/service/contact"
	"github.com/fatflowers/patron/internal/app/service/email"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/membership"
	"github.com/fatflowers/patron/internal/app/service/settings"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/platform/lock"
	"github.com/fatflowers/patron/internal/platform/mailer"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/internal/testutil/memstore"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/dateparts"
	"github.com/fatflowers/patron/pkg/money"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2025-06-15 noon in Los Angeles.
var fixedNow = time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC)

type fakeProcessor struct {
	reqs   []stripe.CheckoutRequest
	create func(req stripe.CheckoutRequest) (*stripe.Session, error)
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, req stripe.CheckoutRequest) (*stripe.Session, error) {
	f.reqs = append(f.reqs, req)
	if f.create != nil {
		return f.create(req)
	}
	return &stripe.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

type fakeTransport struct{ sent []mailer.Message }

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) (*mailer.Result, error) {
	f.sent = append(f.sent, msg)
	return &mailer.Result{MessageID: "m-1"}, nil
}

type harness struct {
	store     *memstore.Store
	processor *fakeProcessor
	transport *fakeTransport
	cal       *dateparts.Calendar
	svc       *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Commerce: config.CommerceConfig{SupportedLangs: []string{"en", "es"}, DefaultLang: "en"},
		Email:    config.EmailConfig{From: "giving@example.org"},
	}
	cal := dateparts.MustNew("")
	st := settings.New(store, cfg, log)
	proc := &fakeProcessor{}
	tr := &fakeTransport{}

	svc := New(Deps{
		Config:      cfg,
		Repo:        store,
		Contacts:    contact.NewResolver(store, log),
		Attribution: attribution.NewResolver(store, log),
		Ledger:      ledger.New(store, log),
		Memberships: membership.NewService(store, st, cal, log),
		Settings:    st,
		Emails:      email.NewDispatcher(store, tr, cfg, nil, log),
		Processor:   proc,
		Locker:      lock.Noop{},
		Log:         log,
	})
	svc.now = func() time.Time { return fixedNow }
	return &harness{store: store, processor: proc, transport: tr, cal: cal, svc: svc}
}

// memberWithTerm creates a contact whose only term runs from startDays to
// endDays relative to today.
func (h *harness) memberWithTerm(t *testing.T, emailAddr string, planID uint, startDays, endDays int) *models.Contact {
	t.Helper()
	ctx := context.Background()
	c := &models.Contact{NormalizedEmail: emailAddr}
	require.NoError(t, h.store.CreateContact(ctx, c))
	today := h.cal.Today(fixedNow)
	require.NoError(t, h.store.CreateMembership(ctx, &models.Membership{
		ContactID: c.ID,
		PlanID:    planID,
		StartDay:  h.cal.ToMidnight(today.AddDays(startDays)),
		EndDay:    h.cal.ToMidnight(today.AddDays(endDays)),
	}))
	return c
}

// memberWithTermEnding creates a contact whose one-year term ends
// daysFromToday days after today.
func (h *harness) memberWithTermEnding(t *testing.T, emailAddr string, planID uint, daysFromToday int) *models.Contact {
	t.Helper()
	end := h.cal.Today(fixedNow).AddDays(daysFromToday)
	start := end.AddYears(-1).AddDays(1)
	return h.memberWithTerm(t, emailAddr, planID, dateparts.DaysBetween(h.cal.Today(fixedNow), start), daysFromToday)
}

func donation(amount string) DonationInput {
	return DonationInput{
		ContactInput: ContactInput{Email: "Ada@Example.org ", Name: "Ada"},
		EntryURL:     "https://example.org/give?utm_source=mail",
		Amount:       money.Amount(amount),
	}
}

func TestSubmitDonationWithKnownRef(t *testing.T) {
	h := newHarness(t)
	campaign := h.store.AddCampaign("Spring Gala", "spring-gala")
	in := donation("25.00")
	in.Ref = "Spring-Gala"

	r, err := h.svc.SubmitDonation(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", r.URL)

	orders := h.store.Orders()
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, r.PublicOrderID, o.PublicID)
	assert.Equal(t, types.OrderStatusCreated, o.Status)
	assert.Equal(t, money.Cents(2500), o.TotalCents)
	assert.Equal(t, campaign.ID, lo.FromPtr(o.CampaignID))
	assert.Equal(t, "cs_test_1", lo.FromPtr(o.StripeCheckoutSessionID))
	assert.Equal(t, "en", o.Lang)

	items := h.store.OrderItems()
	require.Len(t, items, 1)
	assert.Equal(t, types.ItemTypeDonation, items[0].ItemType)
	assert.Equal(t, money.Cents(2500), items[0].TotalCents)

	require.Len(t, h.processor.reqs, 1)
	req := h.processor.reqs[0]
	assert.Equal(t, int64(2500), req.AmountCents)
	assert.Equal(t, "ada@example.org", req.Email)
	assert.True(t, req.Donation)
	assert.Equal(t, o.PublicID, req.Metadata["publicOrderId"])
	assert.NotEmpty(t, req.Metadata["orderId"])

	success, err := url.Parse(req.SuccessURL)
	require.NoError(t, err)
	assert.Equal(t, o.PublicID, success.Query().Get("publicOrderId"))
	assert.Equal(t, "1", success.Query().Get("stripeRedirect"))
	assert.Equal(t, "donation", success.Query().Get("modal"))
	assert.Equal(t, "https://example.org/give?utm_source=mail", req.CancelURL)

	contacts := h.store.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, campaign.ID, lo.FromPtr(contacts[0].CampaignID))
}

func TestSubmitDonationWithUnknownRef(t *testing.T) {
	h := newHarness(t)
	h.store.AddCampaign("Spring Gala", "spring-gala")
	in := donation("25")
	in.Ref = "unknown-ref"

	_, err := h.svc.SubmitDonation(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, h.store.Orders()[0].CampaignID)
}

func TestSubmitDonationValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *DonationInput)
		field  string
	}{
		{"missing email", func(in *DonationInput) { in.Email = " " }, "email"},
		{"bad email", func(in *DonationInput) { in.Email = "not-an-email" }, "email"},
		{"missing entry url", func(in *DonationInput) { in.EntryURL = "" }, "entryUrl"},
		{"relative entry url", func(in *DonationInput) { in.EntryURL = "/give" }, "entryUrl"},
		{"unsupported lang", func(in *DonationInput) { in.Lang = "fr" }, "lang"},
		{"zero amount", func(in *DonationInput) { in.Amount = "0" }, "amount"},
		{"three decimals", func(in *DonationInput) { in.Amount = "25.001" }, "amount"},
		{"over max", func(in *DonationInput) { in.Amount = "10000.01" }, "amount"},
		{"long name", func(in *DonationInput) { in.Name = strings.Repeat("a", 201) }, "name"},
		{"long checkout name", func(in *DonationInput) { in.CheckoutName = strings.Repeat("a", 201) }, "checkoutName"},
		{"long phone", func(in *DonationInput) { in.Phone = strings.Repeat("1", 51) }, "phone"},
		{"long address", func(in *DonationInput) { in.Address = strings.Repeat("a", 501) }, "address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			in := donation("25.00")
			tt.mutate(&in)
			_, err := h.svc.SubmitDonation(context.Background(), in)
			ve, ok := apperror.AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, h.store.Orders())
			assert.Empty(t, h.processor.reqs)
		})
	}
}

func TestSubmitDonationSettingsMax(t *testing.T) {
	h := newHarness(t)
	h.store.PutSetting(settings.KeyMaxDonationUSD, "50")

	_, err := h.svc.SubmitDonation(context.Background(), donation("50.01"))
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.SubmitDonation(context.Background(), donation("50"))
	require.NoError(t, err)
}

func TestSubmitDonationProcessorFailure(t *testing.T) {
	for name, create := range map[string]func(stripe.CheckoutRequest) (*stripe.Session, error){
		"error":       func(stripe.CheckoutRequest) (*stripe.Session, error) { return nil, errors.New("stripe down") },
		"missing url": func(stripe.CheckoutRequest) (*stripe.Session, error) { return &stripe.Session{ID: "cs_1"}, nil },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.processor.create = create

			_, err := h.svc.SubmitDonation(context.Background(), donation("10"))
			require.Error(t, err)
			assert.False(t, apperror.IsValidation(err))
			assert.Equal(t, types.OrderStatusError, h.store.Orders()[0].Status)
		})
	}
}

func membershipInput(emailAddr, plan string) MembershipInput {
	return MembershipInput{
		ContactInput: ContactInput{Email: emailAddr, Lang: "es"},
		EntryURL:     "https://example.org/join",
		Plan:         plan,
	}
}

func TestSubmitMembershipRenewalWindow(t *testing.T) {
	h := newHarness(t)
	plan := h.store.AddPlan("individual", "Individual", 1000, 30)
	h.memberWithTermEnding(t, "soon@example.org", plan.ID, 10)
	// Started ten days ago, window opens in a month.
	h.memberWithTerm(t, "later@example.org", plan.ID, -10, 60)
	ctx := context.Background()

	r, err := h.svc.SubmitMembership(ctx, membershipInput("soon@example.org", "individual"))
	require.NoError(t, err)
	require.Len(t, h.processor.reqs, 1)
	req := h.processor.reqs[0]
	assert.Equal(t, int64(1000), req.AmountCents)
	assert.False(t, req.Donation)
	assert.Equal(t, "es", req.Locale)
	assert.Equal(t, "individual", req.Metadata["planSlug"])
	assert.Equal(t, r.PublicOrderID, req.Metadata["publicOrderId"])
	assert.Equal(t, "Individual membership", req.Name)
	assert.Contains(t, req.SuccessURL, "modal=membership")

	o := h.store.Orders()[0]
	assert.Equal(t, plan.ID, lo.FromPtr(o.PlanID))
	assert.Equal(t, types.ItemTypeMembership, h.store.OrderItems()[0].ItemType)

	_, err = h.svc.SubmitMembership(ctx, membershipInput("later@example.org", "individual"))
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "plan", ve.Field)
	assert.Len(t, h.store.Orders(), 1)
}

func TestSubmitMembershipUnknownPlan(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SubmitMembership(context.Background(), membershipInput("a@example.org", "platinum"))
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, h.store.Contacts())
}

func TestSubmitDonationManual(t *testing.T) {
	h := newHarness(t)
	in := ManualDonationInput{
		ContactInput:  ContactInput{Email: "cash@example.org", Name: "Grace"},
		Amount:        "40",
		PaymentMethod: types.PaymentTypeCheck,
	}

	res, err := h.svc.SubmitDonationManual(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPaid, res.Status)
	assert.Equal(t, types.EmailSendStatusSent, res.ReceiptStatus)
	assert.Empty(t, h.processor.reqs)

	txs := h.store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, types.PaymentTypeCheck, txs[0].PaymentType)
	assert.Equal(t, money.Cents(4000), txs[0].AmountCents)

	require.Len(t, h.transport.sent, 1)
	assert.Equal(t, "cash@example.org", h.transport.sent[0].To)
	assert.NotNil(t, h.store.Orders()[0].ReceiptEmailSendID)

	in.PaymentMethod = "card"
	_, err = h.svc.SubmitDonationManual(context.Background(), in)
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "paymentMethod", ve.Field)
}

func TestSubmitMembershipManual(t *testing.T) {
	h := newHarness(t)
	h.store.AddPlan("family", "Family", 5000, 30)

	res, err := h.svc.SubmitMembershipManual(context.Background(), ManualMembershipInput{
		ContactInput:  ContactInput{Email: "new@example.org"},
		Plan:          "family",
		PaymentMethod: types.PaymentTypeCash,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPaid, res.Status)

	ms := h.store.Memberships()
	require.Len(t, ms, 1)
	today := h.cal.Today(fixedNow)
	assert.Equal(t, today, h.cal.Decompose(ms[0].StartDay))
	assert.Equal(t, today.AddYears(1).AddDays(-1), h.cal.Decompose(ms[0].EndDay))
	assert.Equal(t, h.store.Orders()[0].ID, lo.FromPtr(ms[0].OrderID))

	assert.Len(t, h.store.Transactions(), 1)
	require.Len(t, h.transport.sent, 1)
	assert.Contains(t, h.transport.sent[0].Text, today.String())
}

// The checkout path lets a member renew inside the window; the manual path
// refuses whenever the prior term is active or its window is open, which
// includes expired terms.
func TestRenewalGuardDiffersByPath(t *testing.T) {
	tests := []struct {
		name           string
		startDays      int
		endDays        int
		checkoutAllows bool
		manualAllows   bool
	}{
		{"active inside window", -355, 10, true, false},
		{"active outside window", -10, 60, false, false},
		{"expired", -370, -5, true, false},
		{"lapsed long ago", -800, -436, true, false},
		{"not started yet", 35, 400, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			plan := h.store.AddPlan("individual", "Individual", 1000, 30)
			c := h.memberWithTerm(t, "m@example.org", plan.ID, tt.startDays, tt.endDays)
			ctx := context.Background()

			_, err := h.svc.SubmitMembership(ctx, membershipInput(c.NormalizedEmail, "individual"))
			assert.Equal(t, tt.checkoutAllows, err == nil, "checkout: %v", err)

			_, err = h.svc.SubmitMembershipManual(ctx, ManualMembershipInput{
				ContactInput:  ContactInput{Email: c.NormalizedEmail},
				Plan:          "individual",
				PaymentMethod: types.PaymentTypeCash,
			})
			assert.Equal(t, tt.manualAllows, err == nil, "manual: %v", err)
			if !tt.manualAllows {
				assert.True(t, apperror.IsValidation(err))
			}
		})
	}
}

// A former member whose term has lapsed cannot be entered by hand; the
// manual path only serves contacts with no term or a future one.
func TestManualMembershipRefusesLapsedMember(t *testing.T) {
	h := newHarness(t)
	plan := h.store.AddPlan("individual", "Individual", 1000, 30)
	c := h.memberWithTermEnding(t, "former@example.org", plan.ID, -200)

	_, err := h.svc.SubmitMembershipManual(context.Background(), ManualMembershipInput{
		ContactInput:  ContactInput{Email: c.NormalizedEmail},
		Plan:          "individual",
		PaymentMethod: types.PaymentTypeCheck,
	})
	ve, ok := apperror.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "plan", ve.Field)
	assert.Empty(t, h.store.Orders())
	assert.Empty(t, h.store.Transactions())
	assert.Len(t, h.store.Memberships(), 1)
}

func TestManualMembershipRollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	h.store.AddPlan("family", "Family", 5000, 30)
	h.store.FailCreateMembership = errors.New("disk full")

	_, err := h.svc.SubmitMembershipManual(context.Background(), ManualMembershipInput{
		ContactInput:  ContactInput{Email: "new@example.org"},
		Plan:          "family",
		PaymentMethod: types.PaymentTypeCash,
	})
	require.Error(t, err)
	assert.False(t, apperror.IsValidation(err))
	assert.Empty(t, h.store.Orders())
	assert.Empty(t, h.store.OrderItems())
	assert.Empty(t, h.store.Transactions())
	assert.Empty(t, h.store.Memberships())
	assert.Empty(t, h.transport.sent)
}
