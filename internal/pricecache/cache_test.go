package pricecache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

type fakeProvider struct {
	series     map[string][]PricePoint
	failWith   map[string]error
	fetchCalls []string
}

func (f *fakeProvider) IsAvailable() bool { return true }

func (f *fakeProvider) FetchDailySeries(ctx context.Context, symbol string) ([]PricePoint, error) {
	f.fetchCalls = append(f.fetchCalls, symbol)
	if err, ok := f.failWith[symbol]; ok {
		return nil, err
	}
	return f.series[symbol], nil
}

func setupCacheTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.PricePoint{}, &models.CoverageSpan{}))
	return db
}

func TestCache_EnsureCoverage_DownloadsMissingSymbols(t *testing.T) {
	db := setupCacheTestDB(t)
	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)

	d1 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	provider := &fakeProvider{
		series: map[string][]PricePoint{
			"AAPL": {{Date: d1, Close: decimal.NewFromInt(150)}, {Date: d2, Close: decimal.NewFromInt(151)}},
			"MSFT": {{Date: d1, Close: decimal.NewFromInt(300)}, {Date: d2, Close: decimal.NewFromInt(301)}},
		},
	}

	cache := NewCache(provider, points, coverage, []string{"AAPL", "MSFT"}, zerolog.Nop())

	result, err := cache.EnsureCoverage(context.Background(), []time.Time{d1, d2})

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, result.Downloaded)
	assert.Empty(t, result.Failed)
	assert.False(t, result.RateLimited)
	assert.ElementsMatch(t, []time.Time{d1, d2}, result.DatesComplete)
}

func TestCache_EnsureCoverage_SkipsAlreadyCached(t *testing.T) {
	db := setupCacheTestDB(t)
	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, points.Upsert(&models.PricePoint{Symbol: "AAPL", Date: date, Close: decimal.NewFromInt(150)}))

	provider := &fakeProvider{series: map[string][]PricePoint{}}
	cache := NewCache(provider, points, coverage, []string{"AAPL"}, zerolog.Nop())

	result, err := cache.EnsureCoverage(context.Background(), []time.Time{date})

	assert.NoError(t, err)
	assert.Empty(t, provider.fetchCalls)
	assert.Empty(t, result.Downloaded)
	assert.ElementsMatch(t, []time.Time{date}, result.DatesComplete)
}

func TestCache_EnsureCoverage_StopsOnRateLimit(t *testing.T) {
	db := setupCacheTestDB(t)
	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	provider := &fakeProvider{
		series: map[string][]PricePoint{
			"AAPL": {{Date: date, Close: decimal.NewFromInt(150)}},
		},
		failWith: map[string]error{
			"MSFT": &RateLimitedError{Symbol: "MSFT", Message: "call frequency exceeded"},
		},
	}

	cache := NewCache(provider, points, coverage, []string{"AAPL", "MSFT", "GOOGL"}, zerolog.Nop())

	result, err := cache.EnsureCoverage(context.Background(), []time.Time{date})

	assert.NoError(t, err)
	assert.True(t, result.RateLimited)
	assert.Contains(t, result.Failed, "MSFT")
}

func TestCache_EnsureCoverage_PartialCoverage(t *testing.T) {
	db := setupCacheTestDB(t)
	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	provider := &fakeProvider{
		series: map[string][]PricePoint{
			"AAPL": {{Date: date, Close: decimal.NewFromInt(150)}},
		},
	}

	cache := NewCache(provider, points, coverage, []string{"AAPL", "MSFT"}, zerolog.Nop())

	_, err := cache.EnsureCoverage(context.Background(), []time.Time{date})
	assert.NoError(t, err)

	span, err := coverage.FindByDate(date)
	assert.NoError(t, err)
	assert.Equal(t, models.CoverageStatusPartial, span.Status)
}
