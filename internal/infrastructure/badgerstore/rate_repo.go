package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/dgraph-io/badger/v3"
)

const ratePrefix = "rate:"

type rateValue struct {
	Code          string     `json:"code"`
	Rate          float64    `json:"rate"`
	LastUpdateDay *time.Time `json:"last_update_day,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RateRepository keeps rate records in an embedded BadgerDB, one JSON value
// per code.
type RateRepository struct {
	db *badger.DB
}

func NewRateRepository(db *badger.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Open opens (or creates) a Badger database at path. An empty path opens an
// in-memory database.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return db, nil
}

func rateKey(code string) []byte {
	return []byte(ratePrefix + code)
}

func (r *RateRepository) FindByCode(ctx context.Context, code string) (*domain.RateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", domain.ErrStoreRead, code, err)
	}

	var v rateValue
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rateKey(code))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", domain.ErrStoreRead, code, err)
	}

	return &domain.RateRecord{
		Code:          v.Code,
		Rate:          v.Rate,
		LastUpdateDay: v.LastUpdateDay,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}, nil
}

// Upsert writes the record inside one read-write transaction so the created_at
// of an existing value survives concurrent writers of other codes.
func (r *RateRepository) Upsert(ctx context.Context, record *domain.RateRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStoreWrite, record.Code, err)
	}

	now := time.Now().UTC()
	v := rateValue{
		Code:      record.Code,
		Rate:      record.Rate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if record.LastUpdateDay != nil {
		day := domain.Day(*record.LastUpdateDay)
		v.LastUpdateDay = &day
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(rateKey(record.Code))
		switch {
		case err == nil:
			var prev rateValue
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &prev) }); err != nil {
				return err
			}
			v.CreatedAt = prev.CreatedAt
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return txn.Set(rateKey(record.Code), data)
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrStoreWrite, record.Code, err)
	}
	return nil
}

// ListRates returns every stored rate in key order.
func (r *RateRepository) ListRates(ctx context.Context) ([]*domain.RateRecord, error) {
	var records []*domain.RateRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(ratePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var v rateValue
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
				return err
			}
			records = append(records, &domain.RateRecord{
				Code:          v.Code,
				Rate:          v.Rate,
				LastUpdateDay: v.LastUpdateDay,
				CreatedAt:     v.CreatedAt,
				UpdatedAt:     v.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", domain.ErrStoreRead, err)
	}
	return records, nil
}
