package types

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusExpired OrderStatus = "expired"
	OrderStatusError   OrderStatus = "error"
)

// Terminal reports whether a polling client can stop waiting on the order.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusExpired || s == OrderStatusError
}

type ItemType string

const (
	ItemTypeDonation   ItemType = "donation"
	ItemTypeMembership ItemType = "membership"
	ItemTypeRetail     ItemType = "retail"
)

type PaymentType string

const (
	PaymentTypeStripe PaymentType = "stripe"
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCheck  PaymentType = "check"
)

// Manual reports whether the payment was taken outside the processor.
func (p PaymentType) Manual() bool {
	return p == PaymentTypeCash || p == PaymentTypeCheck
}

type EmailSendStatus string

const (
	EmailSendStatusQueued EmailSendStatus = "queued"
	EmailSendStatusSent   EmailSendStatus = "sent"
	EmailSendStatusFailed EmailSendStatus = "failed"
)

type EmailSource string

const (
	EmailSourceTemplate EmailSource = "template"
	EmailSourceInline   EmailSource = "inline"
	EmailSourceUnknown  EmailSource = "unknown"
)

const (
	EmailErrorMissingRecipient    = "missing_recipient"
	EmailErrorMissingPlaceholders = "missing_placeholders"
	EmailErrorTemplateNotFound    = "template_not_found"
	EmailErrorProviderFailed      = "provider_failed"
)

type PaymentProvider string

const PaymentProviderStripe PaymentProvider = "stripe"

type ProcessorEventStatus string

const (
	ProcessorEventStatusReceived     ProcessorEventStatus = "received"
	ProcessorEventStatusHandled      ProcessorEventStatus = "handled"
	ProcessorEventStatusHandleFailed ProcessorEventStatus = "handle_failed"
	ProcessorEventStatusIgnored      ProcessorEventStatus = "ignored"
)
