// Package stripe adapts Stripe Checkout to the service layer: session
// creation and verified parsing of webhook events.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured    = errors.New("stripe is not configured")
	ErrInvalidSignature = errors.New("invalid stripe webhook signature")
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

type CheckoutRequest struct {
	AmountCents int64
	Email       string
	SuccessURL  string
	CancelURL   string
	Locale      string
	// Name is the line item label shown on the hosted page.
	Name     string
	Donation bool
	Metadata map[string]string
}

type Session struct {
	ID  string
	URL string
}

// Event is a verified webhook event. Session fields are filled only for
// checkout session events.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	CustomerEmail   string
	Metadata        map[string]string
	Raw             json.RawMessage
}

// sessionCreator is satisfied by the checkout session client of stripe-go.
type sessionCreator interface {
	New(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

type Client struct {
	sessions      sessionCreator
	webhookSecret string
	cfg           config.StripeConfig
	log           *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Client {
	c := &Client{webhookSecret: cfg.Stripe.WebhookSecret, cfg: cfg.Stripe, log: log}
	if cfg.Stripe.SecretKey == "" {
		log.Warnw("stripe secret key is empty; checkout is disabled")
		return c
	}
	httpClient := &http.Client{Timeout: cfg.Stripe.Timeout}
	backend := func(t stripeapi.SupportedBackend) stripeapi.Backend {
		return stripeapi.GetBackendWithConfig(t, &stripeapi.BackendConfig{HTTPClient: httpClient})
	}
	api := client.New(cfg.Stripe.SecretKey, &stripeapi.Backends{
		API:     backend(stripeapi.APIBackend),
		Connect: backend(stripeapi.ConnectBackend),
		Uploads: backend(stripeapi.UploadsBackend),
	})
	c.sessions = api.CheckoutSessions
	return c
}

var Module = fx.Options(
	fx.Provide(New),
)

// CreateCheckoutSession creates a one-line payment-mode session.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if c.sessions == nil {
		return nil, ErrNotConfigured
	}
	submitType := "pay"
	if req.Donation {
		submitType = "donate"
	}
	amount := req.AmountCents
	params := &stripeapi.CheckoutSessionParams{
		CustomerEmail: stripeapi.String(req.Email),
		Metadata:      req.Metadata,
		SuccessURL:    stripeapi.String(req.SuccessURL),
		CancelURL:     stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency: stripeapi.String(string(stripeapi.CurrencyUSD)),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(req.Name),
					},
					UnitAmount: &amount,
				},
				Quantity: stripeapi.Int64(1),
			},
		},
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SubmitType: stripeapi.String(submitType),
	}
	if req.Locale != "" {
		params.Locale = stripeapi.String(req.Locale)
	}
	params.Context = ctx

	s, err := c.sessions.New(params)
	if err != nil {
		var se *stripeapi.Error
		if errors.As(err, &se) {
			logctx.FromCtx(ctx, c.log).Errorw("stripe_session_failed", "code", se.Code, "type", se.Type, "request_id", se.RequestID, "msg", se.Msg)
		}
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (c *Client) ParseEvent(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	out.Raw = ev.Data.Raw
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}

	var s stripeapi.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.Metadata = s.Metadata
	out.CustomerEmail = s.CustomerEmail
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}
