package models

import "time"

// Contact is a person known by normalized email.
type Contact struct {
	ID              uint       `gorm:"column:id;primaryKey" json:"id"`
	NormalizedEmail string     `gorm:"column:normalized_email;type:varchar(320);not null;uniqueIndex" json:"normalized_email"`
	DisplayName     string     `gorm:"column:display_name;type:varchar(200)" json:"display_name"`
	Phone           string     `gorm:"column:phone;type:varchar(50)" json:"phone"`
	Address         string     `gorm:"column:address;type:varchar(500)" json:"address"`
	Language        string     `gorm:"column:language;type:varchar(16)" json:"language"`
	CampaignID      *uint      `gorm:"column:campaign_id;index" json:"campaign_id"`
	LastEngagedAt   *time.Time `gorm:"column:last_engaged_at" json:"last_engaged_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Contact) TableName() string { return "contact" }

// Campaign is an attribution target addressed by reftag.
type Campaign struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Reftag    string    `gorm:"column:reftag;type:varchar(128);not null;uniqueIndex" json:"reftag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }
