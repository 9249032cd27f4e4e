package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/internal/app/service/checkout"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/statistics"
	"github.com/fatflowers/patron/internal/app/service/subscription"
	"github.com/fatflowers/patron/internal/app/service/webhook"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/types"
)

type fakeCheckout struct {
	donation   checkout.DonationInput
	membership checkout.MembershipInput
	err        error
}

func (f *fakeCheckout) SubmitDonation(_ context.Context, in checkout.DonationInput) (*checkout.Redirect, error) {
	f.donation = in
	if f.err != nil {
		return nil, f.err
	}
	return &checkout.Redirect{URL: "https://checkout.stripe.com/c/pay/cs_1", PublicOrderID: "0b6d7c9e-3f7a-4a55-9b1e-0a5d9a1f2c11"}, nil
}

func (f *fakeCheckout) SubmitMembership(_ context.Context, in checkout.MembershipInput) (*checkout.Redirect, error) {
	f.membership = in
	if f.err != nil {
		return nil, f.err
	}
	return &checkout.Redirect{URL: "https://checkout.stripe.com/c/pay/cs_2", PublicOrderID: "x"}, nil
}

func (f *fakeCheckout) SubmitDonationManual(_ context.Context, _ checkout.ManualDonationInput) (*checkout.ManualResult, error) {
	return &checkout.ManualResult{PublicOrderID: "m", Status: types.OrderStatusPaid, ReceiptStatus: types.EmailSendStatusSent}, f.err
}

func (f *fakeCheckout) SubmitMembershipManual(_ context.Context, _ checkout.ManualMembershipInput) (*checkout.ManualResult, error) {
	return &checkout.ManualResult{PublicOrderID: "m", Status: types.OrderStatusPaid}, f.err
}

type fakeOrders map[string]*models.Order

func (f fakeOrders) FindByPublicID(_ context.Context, id string) (*models.Order, error) {
	if o, ok := f[id]; ok {
		return o, nil
	}
	return nil, apperror.Validation("publicOrderId", "unknown order")
}

type fakeSubs struct {
	unsubscribed string
	err          error
}

func (f *fakeSubs) Subscribe(_ context.Context, req subscription.SubscribeRequest) (*subscription.SubscribeResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &subscription.SubscribeResponse{Topics: req.Topics}, nil
}

func (f *fakeSubs) UnsubscribeAll(_ context.Context, email string) error {
	f.unsubscribed = email
	return f.err
}

type fakeWebhook struct {
	payload   []byte
	signature string
	outcome   webhook.Outcome
	err       error
}

func (f *fakeWebhook) HandleStripe(_ context.Context, payload []byte, signature string) (webhook.Outcome, error) {
	f.payload, f.signature = payload, signature
	return f.outcome, f.err
}

type fakeAdmin struct{ err error }

func (f *fakeAdmin) ScanOrders(_ context.Context, req *ledger.ScanOrdersRequest) (*ledger.ScanOrdersResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.ScanOrdersResponse{Items: []*models.Order{{ID: 1, Status: types.OrderStatusPaid}}, Total: 1}, nil
}

func (f *fakeAdmin) GetStatistic(_ context.Context, _ *statistics.StatisticRequest) (*statistics.StatisticResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &statistics.StatisticResponse{DataItems: map[statistics.StatisticType][]statistics.StatisticResponseDataItem{
		statistics.StatisticTypeTotalRevenue: {{Label: "donation", Value: 2500}},
	}}, nil
}

func newTestRouter(register func(r gin.IRouter)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSubmitDonation(t *testing.T) {
	log := zap.NewNop().Sugar()

	t.Run("ok", func(t *testing.T) {
		co := &fakeCheckout{}
		r := newTestRouter(func(r gin.IRouter) { RegisterCommerceRoutes(r, co, fakeOrders{}, log) })
		w := do(r, http.MethodPost, "/donations", `{"email":"a@b.org","amount":"25.00","entryUrl":"https://example.org/give"}`)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", body["data"].(map[string]any)["url"])
		assert.Equal(t, "a@b.org", co.donation.Email)
		assert.Equal(t, "https://example.org/give", co.donation.EntryURL)
	})

	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed json", `{"email":`, nil, http.StatusBadRequest, "bad_request"},
		{"validation", `{"email":"x"}`, fmt.Errorf("submit: %w", apperror.Validation("email", "failed email")), http.StatusBadRequest, "bad_request"},
		{"unexpected", `{"email":"a@b.org"}`, errors.New("stripe down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(func(r gin.IRouter) { RegisterCommerceRoutes(r, &fakeCheckout{err: tt.err}, fakeOrders{}, log) })
			w := do(r, http.MethodPost, "/donations", tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.code, body["error"])
			assert.NotContains(t, w.Body.String(), "stripe down")
		})
	}
}

func TestSubmitMembership(t *testing.T) {
	co := &fakeCheckout{}
	r := newTestRouter(func(r gin.IRouter) { RegisterCommerceRoutes(r, co, fakeOrders{}, zap.NewNop().Sugar()) })
	w := do(r, http.MethodPost, "/memberships", `{"email":"a@b.org","plan":"individual","entryUrl":"https://example.org/join"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "individual", co.membership.Plan)
}

func TestGetOrderStatus(t *testing.T) {
	id := "0b6d7c9e-3f7a-4a55-9b1e-0a5d9a1f2c11"
	orders := fakeOrders{id: {PublicID: id, Status: types.OrderStatusPaid, TotalCents: 2550}}
	r := newTestRouter(func(r gin.IRouter) { RegisterCommerceRoutes(r, &fakeCheckout{}, orders, zap.NewNop().Sugar()) })

	w := do(r, http.MethodGet, "/orders/"+id+"/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"status":"paid","terminal":true,"totalUSD":25.5}}`, w.Body.String())

	for _, bad := range []string{"not-a-uuid", "1b6d7c9e-3f7a-4a55-9b1e-0a5d9a1f2c11"} {
		w = do(r, http.MethodGet, "/orders/"+bad+"/status", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.JSONEq(t, `{"ok":false,"error":"bad_request"}`, w.Body.String())
	}
}

func TestSubscriptionRoutes(t *testing.T) {
	subs := &fakeSubs{}
	r := newTestRouter(func(r gin.IRouter) { RegisterSubscriptionRoutes(r, subs, zap.NewNop().Sugar()) })

	w := do(r, http.MethodPost, "/subscriptions", `{"email":"a@b.org","topics":["news"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"topics":["news"]}}`, w.Body.String())

	w = do(r, http.MethodPost, "/subscriptions/unsubscribe_all", `{"email":"nobody@b.org"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nobody@b.org", subs.unsubscribed)

	subs.err = apperror.Validation("topics", "topic not found")
	w = do(r, http.MethodPost, "/subscriptions", `{"email":"a@b.org","topics":["nope"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhook(t *testing.T) {
	tests := []struct {
		name    string
		outcome webhook.Outcome
		err     error
		status  int
	}{
		{"handled", webhook.OutcomeHandled, nil, http.StatusOK},
		{"unresolved is acknowledged", webhook.OutcomeUnresolved, nil, http.StatusOK},
		{"bad signature", webhook.OutcomeFailed, fmt.Errorf("parse: %w", stripe.ErrInvalidSignature), http.StatusBadRequest},
		{"not configured", webhook.OutcomeFailed, stripe.ErrNotConfigured, http.StatusInternalServerError},
		{"store failure", webhook.OutcomeFailed, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeWebhook{outcome: tt.outcome, err: tt.err}
			r := newTestRouter(func(r gin.IRouter) { RegisterWebhookRoutes(r, h, zap.NewNop().Sugar()) })
			w := do(r, http.MethodPost, "/webhooks/stripe", `{"id":"evt_1"}`, "Stripe-Signature", "t=1,v1=abc")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, `{"id":"evt_1"}`, string(h.payload))
			assert.Equal(t, "t=1,v1=abc", h.signature)
			if tt.err == nil {
				assert.Equal(t, string(tt.outcome), decode(t, w)["data"].(map[string]any)["outcome"])
			}
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	admin := &fakeAdmin{}
	r := newTestRouter(func(r gin.IRouter) { RegisterAdminRoutes(r, &fakeCheckout{}, admin, admin, zap.NewNop().Sugar()) })

	w := do(r, http.MethodPost, "/orders/list", `{"size":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["data"].(map[string]any)["total"])

	w = do(r, http.MethodPost, "/statistics", `{"data_items":[{"id":"total_revenue"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"donation"`)

	w = do(r, http.MethodPost, "/donations/manual", `{"email":"a@b.org","amount":"10","paymentMethod":"cash"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"receiptStatus":"sent"`)

	w = do(r, http.MethodPost, "/memberships/manual", `{"email":"a@b.org","plan":"individual","paymentMethod":"check"}`)
	require.Equal(t, http.StatusOK, w.Code)

	admin.err = apperror.Validation("filters", "unsupported")
	w = do(r, http.MethodPost, "/orders/list", `{"filters":[{"field":"secret"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthz(t *testing.T) {
	r := newTestRouter(func(r gin.IRouter) { RegisterHealthRoutes(r, nil) })
	w := do(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"status":"ok"}}`, w.Body.String())

	r = newTestRouter(func(r gin.IRouter) { RegisterHealthRoutes(r, fakePinger{err: errors.New("down")}) })
	w = do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
