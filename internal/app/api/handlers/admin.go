package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/statistics"
)

type OrderScanner interface {
	ScanOrders(ctx context.Context, req *ledger.ScanOrdersRequest) (*ledger.ScanOrdersResponse, error)
}

type Statistics interface {
	GetStatistic(ctx context.Context, req *statistics.StatisticRequest) (*statistics.StatisticResponse, error)
}

// @Summary      List Orders (Admin)
// @Description  Retrieves a paginated and filterable list of orders.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ledger.ScanOrdersRequest true "Filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListOrders
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/admin/orders/list [post]
func ApiListOrders(scanner OrderScanner, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ledger.ScanOrdersRequest
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := scanner.ScanOrders(c.Request.Context(), &req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// @Summary      Get Statistics (Admin)
// @Description  Daily paid orders, revenue by item type and membership counts.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistic
// @Failure      400  {object}  handlers.RespError
// @Router       /api/v1/admin/statistics [post]
func ApiGetStatistic(svc Statistics, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.StatisticRequest
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := svc.GetStatistic(c.Request.Context(), &req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

func RegisterAdminRoutes(r gin.IRouter, co Checkout, scanner OrderScanner, stats Statistics, log *zap.SugaredLogger) {
	r.POST("/donations/manual", ApiSubmitDonationManual(co, log))
	r.POST("/memberships/manual", ApiSubmitMembershipManual(co, log))
	r.POST("/orders/list", ApiListOrders(scanner, log))
	r.POST("/statistics", ApiGetStatistic(stats, log))
}
