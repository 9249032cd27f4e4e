package models

import (
	"time"

	"github.com/fatflowers/patron/pkg/types"
	"gorm.io/datatypes"
)

// EmailTemplate is an editable message with {{placeholder}} slots.
type EmailTemplate struct {
	ID           uint                         `gorm:"column:id;primaryKey" json:"id"`
	Slug         string                       `gorm:"column:slug;type:varchar(128);not null;uniqueIndex" json:"slug"`
	Subject      string                       `gorm:"column:subject;type:varchar(500);not null" json:"subject"`
	HTML         string                       `gorm:"column:html;type:text" json:"html"`
	Text         string                       `gorm:"column:text;type:text" json:"text"`
	Placeholders datatypes.JSONType[[]string] `gorm:"column:placeholders;type:jsonb;default:'[]'" json:"placeholders"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

func (EmailTemplate) TableName() string { return "email_template" }

// EmailSend is the audit row of one dispatch attempt.
type EmailSend struct {
	ID                uint                  `gorm:"column:id;primaryKey" json:"id"`
	TemplateID        *uint                 `gorm:"column:template_id" json:"template_id"`
	Source            types.EmailSource     `gorm:"column:source;type:varchar(32);not null" json:"source"`
	TemplateSlug      string                `gorm:"column:template_slug;type:varchar(128)" json:"template_slug"`
	ToEmail           string                `gorm:"column:to_email;type:varchar(320)" json:"to_email"`
	Status            types.EmailSendStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	ContactID         *uint                 `gorm:"column:contact_id;index" json:"contact_id"`
	OrderID           *uint                 `gorm:"column:order_id;index" json:"order_id"`
	Subject           string                `gorm:"column:subject;type:varchar(500)" json:"subject"`
	ProviderMessageID *string               `gorm:"column:provider_message_id;type:varchar(255)" json:"provider_message_id"`
	ErrorCode         *string               `gorm:"column:error_code;type:varchar(64)" json:"error_code"`
	SentAt            *time.Time            `gorm:"column:sent_at" json:"sent_at"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func (EmailSend) TableName() string { return "email_send" }
