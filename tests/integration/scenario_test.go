package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasmv/backtestsim/internal/jobmanager"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/pricecache"
)

// Scenario A — cold start, single day, zero trades.
func TestScenarioA_ColdStartNoTrades(t *testing.T) {
	d1 := day(2025, 1, 16)
	symbols := []string{"AAPL"}
	series := map[string][]pricecache.PricePoint{
		"AAPL": seriesFor("AAPL", map[time.Time]decimal.Decimal{d1: decimal.NewFromInt(100)}),
	}

	env := newTestEnv(t, symbols, series, nil, 0, decimal.NewFromInt(10000))
	jobID := env.trigger(t, []time.Time{d1}, []string{"mock"})

	job, err := env.jobs.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	td, err := env.tradingDays.FindByJobModelDate(jobID, "mock", d1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(td.StartingCash))
	assert.True(t, decimal.NewFromInt(10000).Equal(td.StartingPortfolioVal))
	assert.True(t, decimal.Zero.Equal(td.DailyProfit))
	assert.True(t, decimal.Zero.Equal(td.DailyReturnPct))
	assert.True(t, decimal.NewFromInt(10000).Equal(td.EndingCash))
	assert.True(t, decimal.NewFromInt(10000).Equal(td.EndingPortfolioVal))
	assert.Equal(t, 0, td.TotalActions)
	assert.Empty(t, td.Holdings)
}

// Scenario B — two-day continuity.
func TestScenarioB_TwoDayContinuity(t *testing.T) {
	d1 := day(2025, 1, 16)
	d2 := day(2025, 1, 17)
	symbols := []string{"AAPL"}
	series := map[string][]pricecache.PricePoint{
		"AAPL": seriesFor("AAPL", map[time.Time]decimal.Decimal{
			d1: decimal.NewFromInt(100),
			d2: decimal.NewFromInt(105),
		}),
	}
	instructions := map[string][]tradeInstruction{
		scriptKey("mock", d1): {{side: "buy", symbol: "AAPL", qty: 10}},
	}

	env := newTestEnv(t, symbols, series, instructions, 0, decimal.NewFromInt(10000))
	jobID := env.trigger(t, []time.Time{d1, d2}, []string{"mock"})

	job, err := env.jobs.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	day1, err := env.tradingDays.FindByJobModelDate(jobID, "mock", d1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(9000).Equal(day1.EndingCash))
	assert.True(t, decimal.NewFromInt(10000).Equal(day1.EndingPortfolioVal))
	assert.True(t, decimal.Zero.Equal(day1.DailyProfit))

	day2, err := env.tradingDays.FindByJobModelDate(jobID, "mock", d2)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(9000).Equal(day2.StartingCash))
	assert.True(t, decimal.NewFromInt(10050).Equal(day2.StartingPortfolioVal))
	assert.True(t, decimal.NewFromInt(50).Equal(day2.DailyProfit))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(day2.DailyReturnPct))

	require.Len(t, day1.Holdings, 1)
	assert.Equal(t, "AAPL", day1.Holdings[0].Symbol)
	assert.Equal(t, 10, day1.Holdings[0].Quantity)
}

// Scenario C — insufficient cash.
func TestScenarioC_InsufficientCash(t *testing.T) {
	d1 := day(2025, 1, 16)
	symbols := []string{"AAPL"}
	series := map[string][]pricecache.PricePoint{
		"AAPL": seriesFor("AAPL", map[time.Time]decimal.Decimal{d1: decimal.NewFromInt(100)}),
	}
	instructions := map[string][]tradeInstruction{
		scriptKey("mock", d1): {{side: "buy", symbol: "AAPL", qty: 200}},
	}

	env := newTestEnv(t, symbols, series, instructions, 0, decimal.NewFromInt(10000))
	jobID := env.trigger(t, []time.Time{d1}, []string{"mock"})

	td, err := env.tradingDays.FindByJobModelDate(jobID, "mock", d1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(td.EndingCash))
	assert.Equal(t, 0, td.TotalActions)

	detail, err := env.jobDetails.FindByJobModelDate(jobID, "mock", d1)
	require.NoError(t, err)
	assert.Equal(t, models.JobDetailStatusCompleted, detail.Status)
}

// Scenario D — rate-limit during preparation.
func TestScenarioD_RateLimitDuringPreparation(t *testing.T) {
	d1 := day(2025, 1, 20)

	var symbols []string
	series := map[string][]pricecache.PricePoint{}
	for i := 0; i < 100; i++ {
		symbol := symbolName(i)
		symbols = append(symbols, symbol)
		series[symbol] = seriesFor(symbol, map[time.Time]decimal.Decimal{d1: decimal.NewFromInt(100)})
	}

	// 60 of the 100 symbols already have coverage before the run; the
	// remaining 40 are downloaded on demand and the provider rate-limits
	// after 25 of those succeed.
	env := newTestEnv(t, symbols, series, nil, 25, decimal.NewFromInt(10000))
	for i := 0; i < 60; i++ {
		require.NoError(t, env.db.Create(&models.PricePoint{
			Symbol: symbols[i], Date: d1,
			Open: decimal.NewFromInt(100), High: decimal.NewFromInt(100),
			Low: decimal.NewFromInt(100), Close: decimal.NewFromInt(100), Volume: 1000,
		}).Error)
	}

	jobID := env.trigger(t, []time.Time{d1}, []string{"mock"})

	job, err := env.jobs.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.NotEmpty(t, job.Warnings)

	available, err := env.cache.AvailableTradingDates(d1, d1)
	require.NoError(t, err)
	assert.Empty(t, available, "2025-01-20 must not be available: coverage incomplete")

	detail, err := env.jobDetails.FindByJobModelDate(jobID, "mock", d1)
	require.NoError(t, err)
	assert.Equal(t, models.JobDetailStatusSkipped, detail.Status)
	assert.Equal(t, "Incomplete price data", detail.Error)
}

func symbolName(i int) string {
	return fmt.Sprintf("SYM%03d", i)
}

// Scenario E — idempotent re-run.
func TestScenarioE_IdempotentReRun(t *testing.T) {
	d1 := day(2025, 1, 16)
	d2 := day(2025, 1, 17)
	symbols := []string{"AAPL"}
	series := map[string][]pricecache.PricePoint{
		"AAPL": seriesFor("AAPL", map[time.Time]decimal.Decimal{
			d1: decimal.NewFromInt(100),
			d2: decimal.NewFromInt(105),
		}),
	}
	instructions := map[string][]tradeInstruction{
		scriptKey("mock", d1): {{side: "buy", symbol: "AAPL", qty: 10}},
	}

	env := newTestEnv(t, symbols, series, instructions, 0, decimal.NewFromInt(10000))
	jobID := env.trigger(t, []time.Time{d1, d2}, []string{"mock"})

	before, err := env.tradingDays.FindByJobIDAndModel(jobID, "mock")
	require.NoError(t, err)
	require.Len(t, before, 2)

	// Re-trigger the identical range: every pair is already completed, so
	// CreateJob must reject it as a conflict rather than create new work.
	_, err = env.manager.CreateJob(jobmanager.CreateRequest{
		Dates:         []time.Time{d1, d2},
		Models:        []string{"mock"},
		SkipCompleted: true,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	after, err := env.tradingDays.FindByJobIDAndModel(jobID, "mock")
	require.NoError(t, err)
	assert.Len(t, after, 2, "no new trading days should have been created")
}
