package models

import "time"

type Setting struct {
	Key       string    `gorm:"column:key;type:varchar(128);primaryKey" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string { return "setting" }
