package models

import (
	"time"

	"github.com/fatflowers/patron/pkg/types"
	"gorm.io/datatypes"
)

// ProcessorEventLog records every inbound processor webhook and how it ended.
type ProcessorEventLog struct {
	ID        string                     `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider  types.PaymentProvider      `gorm:"column:provider;type:varchar(64);not null;index:idx_event_provider_event,priority:1" json:"provider"`
	EventID   string                     `gorm:"column:event_id;type:varchar(255);not null;index:idx_event_provider_event,priority:2" json:"event_id"`
	EventType string                     `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	TraceID   string                     `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Data      datatypes.JSON             `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON            `gorm:"column:result;type:jsonb" json:"result"`
	Status    types.ProcessorEventStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

func (ProcessorEventLog) TableName() string { return "processor_event_log" }
