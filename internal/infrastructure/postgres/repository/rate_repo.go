package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultRateRepository struct {
	DB *gorm.DB
}

func NewDefaultRateRepository(db *gorm.DB) *DefaultRateRepository {
	return &DefaultRateRepository{
		DB: db,
	}
}

func (r *DefaultRateRepository) FindByCode(ctx context.Context, code string) (*domain.RateRecord, error) {
	var model models.CurrencyRateModel
	err := r.DB.WithContext(ctx).Where("code = ?", code).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRateNotFound
		}
		return nil, fmt.Errorf("%w: find %s: %v", domain.ErrStoreRead, code, err)
	}
	return mappers.ToDomainRate(&model), nil
}

// Upsert inserts the record or overwrites rate and last_update_day of the
// existing row with the same code in a single statement.
func (r *DefaultRateRepository) Upsert(ctx context.Context, record *domain.RateRecord) error {
	model := mappers.ToGORMRate(record)
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "last_update_day", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStoreWrite, record.Code, err)
	}
	return nil
}

// ListRates returns every stored rate ordered by code.
func (r *DefaultRateRepository) ListRates(ctx context.Context) ([]*domain.RateRecord, error) {
	var rateModels []*models.CurrencyRateModel
	if err := r.DB.WithContext(ctx).Order("code").Find(&rateModels).Error; err != nil {
		return nil, fmt.Errorf("%w: list: %v", domain.ErrStoreRead, err)
	}

	records := make([]*domain.RateRecord, len(rateModels))
	for i, model := range rateModels {
		records[i] = mappers.ToDomainRate(model)
	}
	return records, nil
}
