package models

import "time"

type CurrencyRateModel struct {
	Code          string     `gorm:"primaryKey;size:3"`
	Rate          float64    `gorm:"not null;default:0"`
	LastUpdateDay *time.Time `gorm:"type:date"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CurrencyRateModel) TableName() string {
	return "currency_rates"
}
