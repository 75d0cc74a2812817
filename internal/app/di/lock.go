package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	backfillusecase "stockprice_backend/internal/feature/backfill/usecase"
	"stockprice_backend/internal/platform/lock"
)

// NewLocker creates the single-runner lock.
// If Redis is available, it returns a Redis lease lock.
// Otherwise, it falls back to a Postgres advisory lock.
func NewLocker(rdb *redis.Client, gdb *gorm.DB) (backfillusecase.Locker, error) {
	if rdb != nil {
		return lock.NewRedisLocker(rdb, "lock"), nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return lock.NewAdvisoryLocker(sqlDB), nil
}
