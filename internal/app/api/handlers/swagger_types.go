package handlers

import (
	"github.com/fatflowers/patron/internal/app/service/checkout"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/statistics"
	"github.com/fatflowers/patron/internal/app/service/subscription"
)

// Envelope shapes for the generated API docs only.

// RespError is the failure envelope. Error is bad_request, unauthorized or internal_error.
type RespError struct {
	OK    bool   `json:"ok" example:"false"`
	Error string `json:"error" example:"bad_request"`
}

type RespOK struct {
	OK   bool `json:"ok" example:"true"`
	Data any  `json:"data"`
}

type RespHealth struct {
	OK   bool              `json:"ok" example:"true"`
	Data map[string]string `json:"data"`
}

type RespRedirect struct {
	OK   bool              `json:"ok" example:"true"`
	Data checkout.Redirect `json:"data"`
}

type RespManualResult struct {
	OK   bool                  `json:"ok" example:"true"`
	Data checkout.ManualResult `json:"data"`
}

type RespOrderStatus struct {
	OK   bool                `json:"ok" example:"true"`
	Data OrderStatusResponse `json:"data"`
}

type RespSubscribe struct {
	OK   bool                           `json:"ok" example:"true"`
	Data subscription.SubscribeResponse `json:"data"`
}

type RespWebhook struct {
	OK   bool            `json:"ok" example:"true"`
	Data WebhookResponse `json:"data"`
}

type RespListOrders struct {
	OK   bool                      `json:"ok" example:"true"`
	Data ledger.ScanOrdersResponse `json:"data"`
}

type RespStatistic struct {
	OK   bool                         `json:"ok" example:"true"`
	Data statistics.StatisticResponse `json:"data"`
}
