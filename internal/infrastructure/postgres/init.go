package postgres

import (
	"log"

	"github.com/LavaJover/shvark-rates-service/internal/config"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MustInitDB(cfg *config.RatesConfig) *gorm.DB {
	dsn := cfg.RatesDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v\n", err)
	}
	// per-code fan-out shares this pool
	sqlDB.SetMaxOpenConns(cfg.RatesDB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.RatesDB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.RatesDB.ConnMaxLife)

	if cfg.RatesDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.RatesDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v\n", err)
		}
	} else if err := db.AutoMigrate(&models.CurrencyRateModel{}, &logger.SyncCycleEvent{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v\n", err)
	}

	return db
}
