package dayexecutor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/agentruntime"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/pricecache"
	"github.com/lucasmv/backtestsim/internal/repository"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
)

type stubProvider struct{}

func (stubProvider) FetchDailySeries(_ context.Context, _ string) ([]pricecache.PricePoint, error) {
	return nil, nil
}
func (stubProvider) IsAvailable() bool { return true }

func setupExecutorTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Job{}, &models.JobDetail{}, &models.TradingDay{},
		&models.Holding{}, &models.Action{}, &models.PricePoint{}, &models.CoverageSpan{},
	))
	return db
}

func seedPrice(t *testing.T, db *gorm.DB, symbol string, date time.Time, price int64) {
	points := repository.NewPricePointRepository(db)
	require.NoError(t, points.Upsert(&models.PricePoint{
		Symbol: symbol,
		Date:   date,
		Open:   decimal.NewFromInt(price),
		High:   decimal.NewFromInt(price),
		Low:    decimal.NewFromInt(price),
		Close:  decimal.NewFromInt(price),
		Volume: 1000,
	}))
}

func newExecutor(t *testing.T, db *gorm.DB, runtime agentruntime.Runtime, symbols []string) (*Executor, *models.Job) {
	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)
	cache := pricecache.NewCache(stubProvider{}, points, coverage, symbols, zerolog.Nop())

	job := &models.Job{DateRange: models.DateList{}, Models: models.StringList{"mock"}}
	require.NoError(t, db.Create(job).Error)

	detail := &models.JobDetail{JobID: job.ID, Model: "mock", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(detail).Error)

	exec := New(Config{
		DB:          db,
		JobDetails:  repository.NewJobDetailRepository(db),
		TradingDays: repository.NewTradingDayRepository(db),
		PriceCache:  cache,
		Runtime:     runtime,
		Summarizer:  agentruntime.StatisticalSummarizer{},
		Scratch:     runtimectx.NewScratchWriter(t.TempDir()),
		Logger:      zerolog.Nop(),
		InitialCash: decimal.NewFromInt(10000),
		MaxSteps:    10,
		MaxRetries:  3,
	})

	return exec, job
}

type fakeRuntime struct {
	calls int
	fail  int
	err   error
}

func (f *fakeRuntime) Execute(_ context.Context, rc runtimectx.Context, trader agentruntime.Trader, _ int) (models.ReasoningList, agentruntime.CompletionMetadata, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, agentruntime.CompletionMetadata{}, f.err
	}
	snap, err := trader.Buy("AAPL", 1)
	if err != nil {
		return nil, agentruntime.CompletionMetadata{}, err
	}
	_ = snap
	return models.ReasoningList{{Role: "assistant", Content: "bought AAPL"}},
		agentruntime.CompletionMetadata{StepsUsed: 1, ToolCallCount: 1, TradeCount: 1}, nil
}

func TestExecutor_Run_FirstDaySuccess(t *testing.T) {
	db := setupExecutorTestDB(t)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, "AAPL", date, 100)

	runtime := &fakeRuntime{}
	exec, job := newExecutor(t, db, runtime, []string{"AAPL"})

	err := exec.Run(context.Background(), job.ID, "mock", date)
	require.NoError(t, err)

	detail, err := repository.NewJobDetailRepository(db).FindByJobModelDate(job.ID.String(), "mock", date)
	require.NoError(t, err)
	assert.Equal(t, models.JobDetailStatusCompleted, detail.Status)

	var day models.TradingDay
	require.NoError(t, db.Where("job_id = ? AND model = ?", job.ID, "mock").First(&day).Error)
	assert.True(t, day.EndingCash.Equal(decimal.NewFromInt(9900)))
	assert.Equal(t, 1, day.TotalActions)
}

func TestExecutor_Run_IdempotentWhenAlreadyCompleted(t *testing.T) {
	db := setupExecutorTestDB(t)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, "AAPL", date, 100)

	runtime := &fakeRuntime{}
	exec, job := newExecutor(t, db, runtime, []string{"AAPL"})

	require.NoError(t, exec.Run(context.Background(), job.ID, "mock", date))
	assert.Equal(t, 1, runtime.calls)

	require.NoError(t, exec.Run(context.Background(), job.ID, "mock", date))
	assert.Equal(t, 1, runtime.calls, "second run must not re-invoke the agent runtime")
}

func TestExecutor_Run_RetriesOnTransientFailure(t *testing.T) {
	db := setupExecutorTestDB(t)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, "AAPL", date, 100)

	runtime := &fakeRuntime{fail: 2, err: assertErr{"transient"}}
	exec, job := newExecutor(t, db, runtime, []string{"AAPL"})

	err := exec.Run(context.Background(), job.ID, "mock", date)
	require.NoError(t, err)
	assert.Equal(t, 3, runtime.calls)
}

func TestExecutor_Run_FailsJobDetailWhenRuntimeExhaustsRetries(t *testing.T) {
	db := setupExecutorTestDB(t)
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, "AAPL", date, 100)

	runtime := &fakeRuntime{fail: 10, err: assertErr{"down"}}
	exec, job := newExecutor(t, db, runtime, []string{"AAPL"})

	err := exec.Run(context.Background(), job.ID, "mock", date)
	require.Error(t, err)

	detail, ferr := repository.NewJobDetailRepository(db).FindByJobModelDate(job.ID.String(), "mock", date)
	require.NoError(t, ferr)
	assert.Equal(t, models.JobDetailStatusFailed, detail.Status)
	assert.NotEmpty(t, detail.Error)
}

func TestExecutor_Run_CarriesForwardPreviousDayHoldings(t *testing.T) {
	db := setupExecutorTestDB(t)
	day1 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	seedPrice(t, db, "AAPL", day1, 100)
	seedPrice(t, db, "AAPL", day2, 110)

	runtime := &fakeRuntime{}
	exec, job := newExecutor(t, db, runtime, []string{"AAPL"})

	require.NoError(t, exec.Run(context.Background(), job.ID, "mock", day1))

	detail := &models.JobDetail{JobID: job.ID, Model: "mock", Date: day2}
	require.NoError(t, db.Create(detail).Error)
	require.NoError(t, exec.Run(context.Background(), job.ID, "mock", day2))

	var day models.TradingDay
	require.NoError(t, db.Where("job_id = ? AND model = ? AND date = ?", job.ID, "mock", day2).First(&day).Error)
	assert.True(t, day.StartingPortfolioVal.GreaterThan(decimal.Zero))
	assert.Equal(t, 1, day.DaysSinceLastTrading)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
