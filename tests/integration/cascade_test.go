package integration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// Deleting a Job must cascade to its JobDetails, TradingDays, Holdings and
// Actions. Foreign-key enforcement has to be turned on explicitly for
// SQLite, unlike Postgres where it's always on.
func TestCascade_DeletingJobRemovesDescendants(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Job{}, &models.JobDetail{}, &models.TradingDay{},
		&models.Holding{}, &models.Action{},
	))

	job := &models.Job{
		DateRange: models.DateList{day(2025, 1, 16)},
		Models:    models.StringList{"mock"},
		Status:    models.JobStatusCompleted,
	}
	require.NoError(t, db.Create(job).Error)

	detail := &models.JobDetail{
		JobID:  job.ID,
		Model:  "mock",
		Date:   day(2025, 1, 16),
		Status: models.JobDetailStatusCompleted,
	}
	require.NoError(t, db.Create(detail).Error)

	completedAt := time.Now().UTC()
	tradingDay := &models.TradingDay{
		JobID:                job.ID,
		Model:                "mock",
		Date:                 day(2025, 1, 16),
		StartingCash:         decimal.NewFromInt(10000),
		StartingPortfolioVal: decimal.NewFromInt(10000),
		EndingCash:           decimal.NewFromInt(9000),
		EndingPortfolioVal:   decimal.NewFromInt(10000),
		CompletedAt:          &completedAt,
	}
	require.NoError(t, db.Create(tradingDay).Error)

	holding := &models.Holding{TradingDayID: tradingDay.ID, Symbol: "AAPL", Quantity: 10}
	require.NoError(t, db.Create(holding).Error)

	action := &models.Action{
		TradingDayID:   tradingDay.ID,
		Symbol:         "AAPL",
		Type:           models.ActionTypeBuy,
		Quantity:       10,
		ExecutionPrice: decimal.NewFromInt(100),
	}
	require.NoError(t, db.Create(action).Error)

	require.NoError(t, db.Delete(&models.Job{}, "id = ?", job.ID).Error)

	var detailCount, dayCount, holdingCount, actionCount int64
	require.NoError(t, db.Model(&models.JobDetail{}).Where("job_id = ?", job.ID).Count(&detailCount).Error)
	require.NoError(t, db.Model(&models.TradingDay{}).Where("job_id = ?", job.ID).Count(&dayCount).Error)
	require.NoError(t, db.Model(&models.Holding{}).Where("trading_day_id = ?", tradingDay.ID).Count(&holdingCount).Error)
	require.NoError(t, db.Model(&models.Action{}).Where("trading_day_id = ?", tradingDay.ID).Count(&actionCount).Error)

	assert.Zero(t, detailCount)
	assert.Zero(t, dayCount)
	assert.Zero(t, holdingCount)
	assert.Zero(t, actionCount)
}
