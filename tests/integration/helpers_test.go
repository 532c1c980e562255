// Package integration runs scenario-level tests against the full
// jobmanager -> worker -> dayexecutor chain, backed by an in-memory
// SQLite store, a scripted MarketDataProvider, and a scripted agent
// runtime. Grounded on the teacher's tests/integration convention of
// exercising real services directly rather than through HTTP.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/agentruntime"
	"github.com/lucasmv/backtestsim/internal/dayexecutor"
	"github.com/lucasmv/backtestsim/internal/jobmanager"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/pricecache"
	"github.com/lucasmv/backtestsim/internal/repository"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
	"github.com/lucasmv/backtestsim/internal/worker"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scriptedProvider serves a fixed, in-memory daily series per symbol and can
// be made to fail with a rate-limit error after a configured number of
// successful fetches, mirroring the original implementation's on-demand
// download behavior.
type scriptedProvider struct {
	series        map[string][]pricecache.PricePoint
	rateLimitAfter int
	fetchCount    int
}

func (p *scriptedProvider) FetchDailySeries(_ context.Context, symbol string) ([]pricecache.PricePoint, error) {
	p.fetchCount++
	if p.rateLimitAfter > 0 && p.fetchCount > p.rateLimitAfter {
		return nil, &pricecache.RateLimitedError{Symbol: symbol, Message: "call frequency exceeded"}
	}
	return p.series[symbol], nil
}

func (p *scriptedProvider) IsAvailable() bool { return true }

// scriptedRuntime executes a fixed, per-(model,date) sequence of buy/sell
// instructions, letting scenario tests assert exact trade outcomes without
// depending on MockAgentRuntime's own rotation logic.
type scriptedRuntime struct {
	instructions map[string][]tradeInstruction
}

type tradeInstruction struct {
	side   string // "buy" or "sell"
	symbol string
	qty    int
}

func scriptKey(model string, date time.Time) string {
	return model + "|" + date.Format("2006-01-02")
}

func (r *scriptedRuntime) Execute(_ context.Context, rc runtimectx.Context, trader agentruntime.Trader, _ int) (models.ReasoningList, agentruntime.CompletionMetadata, error) {
	instructions := r.instructions[scriptKey(rc.ModelSignature, rc.Date)]
	meta := agentruntime.CompletionMetadata{StepsUsed: 1}
	transcript := models.ReasoningList{{Role: "assistant", Content: "executing scripted session"}}

	for _, instr := range instructions {
		meta.ToolCallCount++
		var err error
		switch instr.side {
		case "buy":
			_, err = trader.Buy(instr.symbol, instr.qty)
		case "sell":
			_, err = trader.Sell(instr.symbol, instr.qty)
		}
		if err == nil {
			meta.TradeCount++
		}
	}

	return transcript, meta, nil
}

type testEnv struct {
	db         *gorm.DB
	jobs       repository.JobRepository
	jobDetails repository.JobDetailRepository
	tradingDays repository.TradingDayRepository
	cache      *pricecache.Cache
	manager    *jobmanager.Manager
	worker     *worker.Worker
}

// newTestEnv wires a full scenario environment: in-memory SQLite, a
// scripted price provider over symbols/series, and a scripted runtime over
// instructions. initialCash defaults to 10000 when zero.
func newTestEnv(t *testing.T, symbols []string, series map[string][]pricecache.PricePoint, instructions map[string][]tradeInstruction, rateLimitAfter int, initialCash decimal.Decimal) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Job{}, &models.JobDetail{}, &models.TradingDay{},
		&models.Holding{}, &models.Action{}, &models.PricePoint{}, &models.CoverageSpan{},
	))

	if initialCash.IsZero() {
		initialCash = decimal.NewFromInt(10000)
	}

	points := repository.NewPricePointRepository(db)
	coverage := repository.NewCoverageRepository(db)
	provider := &scriptedProvider{series: series, rateLimitAfter: rateLimitAfter}
	cache := pricecache.NewCache(provider, points, coverage, symbols, zerolog.Nop())

	jobs := repository.NewJobRepository(db)
	jobDetails := repository.NewJobDetailRepository(db)
	tradingDays := repository.NewTradingDayRepository(db)

	exec := dayexecutor.New(dayexecutor.Config{
		DB:          db,
		JobDetails:  jobDetails,
		TradingDays: tradingDays,
		PriceCache:  cache,
		Runtime:     &scriptedRuntime{instructions: instructions},
		Summarizer:  agentruntime.StatisticalSummarizer{},
		Scratch:     runtimectx.NewScratchWriter(t.TempDir()),
		Logger:      zerolog.Nop(),
		InitialCash: initialCash,
		MaxSteps:    10,
		MaxRetries:  1,
	})

	w := worker.New(worker.Config{
		Jobs:        jobs,
		JobDetails:  jobDetails,
		PriceCache:  cache,
		Executor:    exec,
		Logger:      zerolog.Nop(),
		Concurrency: 2,
	})

	return &testEnv{
		db:          db,
		jobs:        jobs,
		jobDetails:  jobDetails,
		tradingDays: tradingDays,
		cache:       cache,
		manager:     jobmanager.New(jobs, jobDetails, tradingDays),
		worker:      w,
	}
}

func seriesFor(symbol string, opens map[time.Time]decimal.Decimal) []pricecache.PricePoint {
	points := make([]pricecache.PricePoint, 0, len(opens))
	for date, open := range opens {
		points = append(points, pricecache.PricePoint{Date: date, Open: open, High: open, Low: open, Close: open, Volume: 1000})
	}
	return points
}

func (e *testEnv) trigger(t *testing.T, dates []time.Time, models []string) (uuid string) {
	t.Helper()
	result, err := e.manager.CreateJob(jobmanager.CreateRequest{
		Dates:         dates,
		Models:        models,
		SkipCompleted: true,
	})
	require.NoError(t, err)
	require.NoError(t, e.worker.Run(context.Background(), result.JobID))
	return result.JobID.String()
}
