package logger

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SyncCycleEvent is one row of the rates sync audit trail.
type SyncCycleEvent struct {
	ID          uint      `gorm:"primaryKey"`
	CycleID     string    `gorm:"index"`
	Day         time.Time `gorm:"type:date"`
	Evaluated   int
	Stale       int
	Missing     int
	Created     int
	Applied     int
	ReadErrors  int
	WriteErrors int
	FetchFailed bool
	DurationMs  int64
	Timestamp   time.Time
}

type SyncCycleLogger interface {
	LogSyncCycle(ctx context.Context, event SyncCycleEvent) error
}

type PGSyncCycleLogger struct {
	db *gorm.DB
}

func NewPGSyncCycleLogger(db *gorm.DB) *PGSyncCycleLogger {
	return &PGSyncCycleLogger{db: db}
}

func (l *PGSyncCycleLogger) LogSyncCycle(ctx context.Context, event SyncCycleEvent) error {
	return l.db.WithContext(ctx).Create(&event).Error
}
