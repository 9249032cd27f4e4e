package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/internal/app/service/checkout"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/types"
)

// Checkout is the subset of the checkout orchestrator the API calls.
type Checkout interface {
	SubmitDonation(ctx context.Context, in checkout.DonationInput) (*checkout.Redirect, error)
	SubmitMembership(ctx context.Context, in checkout.MembershipInput) (*checkout.Redirect, error)
	SubmitDonationManual(ctx context.Context, in checkout.ManualDonationInput) (*checkout.ManualResult, error)
	SubmitMembershipManual(ctx context.Context, in checkout.ManualMembershipInput) (*checkout.ManualResult, error)
}

// OrderFinder looks orders up by their public id.
type OrderFinder interface {
	FindByPublicID(ctx context.Context, publicID string) (*models.Order, error)
}

type OrderStatusResponse struct {
	Status   types.OrderStatus `json:"status"`
	Terminal bool              `json:"terminal"`
	TotalUSD float64           `json:"totalUSD"`
}

// @Summary      Submit donation
// @Description  Records a pending donation and returns the processor checkout URL.
// @Tags         Commerce
// @Accept       json
// @Produce      json
// @Param        request body checkout.DonationInput true "Donation"
// @Success      200  {object}  handlers.RespRedirect
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/donations [post]
func ApiSubmitDonation(co Checkout, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.DonationInput
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := co.SubmitDonation(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Submit membership
// @Description  Records a pending membership purchase and returns the processor checkout URL.
// @Tags         Commerce
// @Accept       json
// @Produce      json
// @Param        request body checkout.MembershipInput true "Membership"
// @Success      200  {object}  handlers.RespRedirect
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/memberships [post]
func ApiSubmitMembership(co Checkout, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.MembershipInput
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := co.SubmitMembership(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Get order status
// @Description  Unknown and malformed ids are both 400.
// @Tags         Commerce
// @Produce      json
// @Param        publicOrderId path string true "Public order id"
// @Success      200  {object}  handlers.RespOrderStatus
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/orders/{publicOrderId}/status [get]
func ApiGetOrderStatus(orders OrderFinder, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := orders.FindByPublicID(c.Request.Context(), c.Param("publicOrderId"))
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, &OrderStatusResponse{Status: o.Status, Terminal: o.Status.Terminal(), TotalUSD: o.TotalCents.Dollars()})
	}
}

// @Summary      Record manual donation (Admin)
// @Description  Records a cash or check donation as paid and sends the receipt.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body checkout.ManualDonationInput true "Manual donation"
// @Success      200  {object}  handlers.RespManualResult
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/admin/donations/manual [post]
func ApiSubmitDonationManual(co Checkout, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.ManualDonationInput
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := co.SubmitDonationManual(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Record manual membership (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body checkout.ManualMembershipInput true "Manual membership"
// @Success      200  {object}  handlers.RespManualResult
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/admin/memberships/manual [post]
func ApiSubmitMembershipManual(co Checkout, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.ManualMembershipInput
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := co.SubmitMembershipManual(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

func RegisterCommerceRoutes(r gin.IRouter, co Checkout, orders OrderFinder, log *zap.SugaredLogger) {
	r.POST("/donations", ApiSubmitDonation(co, log))
	r.POST("/memberships", ApiSubmitMembership(co, log))
	r.GET("/orders/:publicOrderId/status", ApiGetOrderStatus(orders, log))
}
