package models

import (
	"fmt"
	"time"
)

// Topic is a mailing list a contact can subscribe to.
type Topic struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Slug      string    `gorm:"column:slug;type:varchar(128);not null;uniqueIndex" json:"slug"`
	Name      string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

// Subscription links a contact to a topic. Key is unique per pair.
type Subscription struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Key        string    `gorm:"column:key;type:varchar(64);not null;uniqueIndex" json:"key"`
	ContactID  uint      `gorm:"column:contact_id;not null;index" json:"contact_id"`
	TopicID    uint      `gorm:"column:topic_id;not null" json:"topic_id"`
	CampaignID *uint     `gorm:"column:campaign_id" json:"campaign_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }

func SubscriptionKey(contactID, topicID uint) string {
	return fmt.Sprintf("%d:%d", contactID, topicID)
}
