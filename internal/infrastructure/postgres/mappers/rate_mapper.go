package mappers

import (
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
)

func ToGORMRate(record *domain.RateRecord) *models.CurrencyRateModel {
	model := &models.CurrencyRateModel{
		Code:      record.Code,
		Rate:      record.Rate,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.LastUpdateDay != nil {
		day := domain.Day(*record.LastUpdateDay)
		model.LastUpdateDay = &day
	}
	return model
}

func ToDomainRate(model *models.CurrencyRateModel) *domain.RateRecord {
	record := &domain.RateRecord{
		Code:      model.Code,
		Rate:      model.Rate,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.LastUpdateDay != nil {
		// date columns come back in the session time zone
		y, m, d := model.LastUpdateDay.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		record.LastUpdateDay = &day
	}
	return record
}
