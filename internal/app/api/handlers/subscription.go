package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/internal/app/service/subscription"
)

type Subscriptions interface {
	Subscribe(ctx context.Context, req subscription.SubscribeRequest) (*subscription.SubscribeResponse, error)
	UnsubscribeAll(ctx context.Context, email string) error
}

type UnsubscribeAllRequest struct {
	Email string `json:"email"`
}

// @Summary      Subscribe
// @Description  Subscribes an email to every listed topic. Repeating the call is a no-op.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subscription.SubscribeRequest true "Subscribe"
// @Success      200  {object}  handlers.RespSubscribe
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/subscriptions [post]
func ApiSubscribe(subs Subscriptions, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.SubscribeRequest
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := subs.Subscribe(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Unsubscribe all
// @Description  Removes every subscription of an email. Unknown emails succeed too.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Param        request body handlers.UnsubscribeAllRequest true "Unsubscribe"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/subscriptions/unsubscribe_all [post]
func ApiUnsubscribeAll(subs Subscriptions, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UnsubscribeAllRequest
		if !bindJSON(c, log, &req) {
			return
		}
		if err := subs.UnsubscribeAll(c.Request.Context(), req.Email); err != nil {
			fail(c, log, err)
			return
		}
		ok(c, map[string]bool{"unsubscribed": true})
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, subs Subscriptions, log *zap.SugaredLogger) {
	r.POST("/subscriptions", ApiSubscribe(subs, log))
	r.POST("/subscriptions/unsubscribe_all", ApiUnsubscribeAll(subs, log))
}
