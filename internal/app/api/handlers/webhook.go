package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/internal/app/service/webhook"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/response"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBody        = 1 << 20
)

type StripeWebhook interface {
	HandleStripe(ctx context.Context, payload []byte, signature string) (webhook.Outcome, error)
}

type WebhookResponse struct {
	Outcome webhook.Outcome `json:"outcome"`
}

// @Summary      Stripe webhook
// @Description  Receives processor events. The raw body is verified against the Stripe-Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Processor signature"
// @Success      200  {object}  handlers.RespWebhook
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/webhooks/stripe [post]
func ApiStripeWebhook(h StripeWebhook, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			log.Warnw("webhook_stripe_read_failed", "error", err)
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest))
			return
		}

		outcome, err := h.HandleStripe(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
		if err != nil {
			if errors.Is(err, stripe.ErrInvalidSignature) {
				log.Warnw("webhook_stripe_rejected", "error", err)
				c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest))
				return
			}
			log.Errorw("webhook_stripe_handle_error", "outcome", outcome, "error", err)
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeInternal))
			return
		}
		ok(c, &WebhookResponse{Outcome: outcome})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h StripeWebhook, log *zap.SugaredLogger) {
	r.POST("/webhooks/stripe", ApiStripeWebhook(h, log))
}
