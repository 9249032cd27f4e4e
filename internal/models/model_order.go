package models

import (
	"time"

	"github.com/fatflowers/patron/pkg/money"
	"github.com/fatflowers/patron/pkg/types"
)

// Order is a single priced purchase. PublicID is the only identifier that is
// ever returned to a browser.
type Order struct {
	ID                      uint              `gorm:"column:id;primaryKey" json:"id"`
	PublicID                string            `gorm:"column:public_id;type:uuid;not null;uniqueIndex" json:"public_id"`
	Status                  types.OrderStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	ContactID               *uint             `gorm:"column:contact_id;index" json:"contact_id"`
	CampaignID              *uint             `gorm:"column:campaign_id;index" json:"campaign_id"`
	PlanID                  *uint             `gorm:"column:plan_id" json:"plan_id"`
	Lang                    string            `gorm:"column:lang;type:varchar(16);not null" json:"lang"`
	TotalCents              money.Cents       `gorm:"column:total_cents;type:bigint;not null" json:"total_cents"`
	StripeCheckoutSessionID *string           `gorm:"column:stripe_checkout_session_id;type:varchar(255)" json:"stripe_checkout_session_id"`
	StripePaymentIntentID   *string           `gorm:"column:stripe_payment_intent_id;type:varchar(255)" json:"stripe_payment_intent_id"`
	ReceiptEmailSendID      *uint             `gorm:"column:receipt_email_send_id;uniqueIndex" json:"receipt_email_send_id"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one priced line of an order.
type OrderItem struct {
	ID              uint           `gorm:"column:id;primaryKey" json:"id"`
	OrderID         uint           `gorm:"column:order_id;not null;index" json:"order_id"`
	ItemType        types.ItemType `gorm:"column:item_type;type:varchar(32);not null" json:"item_type"`
	Label           string         `gorm:"column:label;type:varchar(200);not null" json:"label"`
	UnitAmountCents money.Cents    `gorm:"column:unit_amount_cents;type:bigint;not null" json:"unit_amount_cents"`
	Qty             int            `gorm:"column:qty;not null" json:"qty"`
	TotalCents      money.Cents    `gorm:"column:total_cents;type:bigint;not null" json:"total_cents"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

// Transaction records money received for an order.
type Transaction struct {
	ID          uint              `gorm:"column:id;primaryKey" json:"id"`
	OrderID     uint              `gorm:"column:order_id;not null;index" json:"order_id"`
	AmountCents money.Cents       `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	PaymentType types.PaymentType `gorm:"column:payment_type;type:varchar(32);not null" json:"payment_type"`
	ContactID   *uint             `gorm:"column:contact_id;index" json:"contact_id"`
	StripeRefID *string           `gorm:"column:stripe_ref_id;type:varchar(255)" json:"stripe_ref_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string { return "transaction" }
