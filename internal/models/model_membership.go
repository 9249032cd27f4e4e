package models

import "time"

// MembershipPlan is a purchasable one-year membership.
type MembershipPlan struct {
	ID                uint      `gorm:"column:id;primaryKey" json:"id"`
	Slug              string    `gorm:"column:slug;type:varchar(128);not null;uniqueIndex" json:"slug"`
	Name              string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	PriceCents        int64     `gorm:"column:price_cents;type:bigint;not null" json:"price_cents"`
	RenewalWindowDays int       `gorm:"column:renewal_window_days;not null;default:0" json:"renewal_window_days"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (MembershipPlan) TableName() string { return "membership_plan" }

// Membership is one term of coverage. StartDay and EndDay are civil
// midnights in the calendar timezone and the term includes both days.
type Membership struct {
	ID         uint      `gorm:"column:id;primaryKey;index:idx_membership_contact_end,priority:3,sort:desc" json:"id"`
	ContactID  uint      `gorm:"column:contact_id;not null;index:idx_membership_contact_end,priority:1" json:"contact_id"`
	PlanID     uint      `gorm:"column:plan_id;not null" json:"plan_id"`
	StartDay   time.Time `gorm:"column:start_day;not null" json:"start_day"`
	EndDay     time.Time `gorm:"column:end_day;not null;index:idx_membership_contact_end,priority:2,sort:desc" json:"end_day"`
	CampaignID *uint     `gorm:"column:campaign_id" json:"campaign_id"`
	OrderID    *uint     `gorm:"column:order_id;index" json:"order_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Membership) TableName() string { return "membership" }
