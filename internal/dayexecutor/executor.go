// Package dayexecutor runs a single (job, model, date) trading session:
// idempotency check, starting-state lookup, P&L computation, agent
// invocation with bounded retry, and final persistence. Grounded on the
// original implementation's model_day_executor.
package dayexecutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/agentruntime"
	"github.com/lucasmv/backtestsim/internal/ledger"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/pnl"
	"github.com/lucasmv/backtestsim/internal/pricecache"
	"github.com/lucasmv/backtestsim/internal/repository"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
)

// Executor runs one (job, model, date) session.
type Executor struct {
	db          *gorm.DB
	jobDetails  repository.JobDetailRepository
	tradingDays repository.TradingDayRepository
	priceCache  *pricecache.Cache
	runtime     agentruntime.Runtime
	summarizer  agentruntime.Summarizer
	scratch     *runtimectx.ScratchWriter
	logger      zerolog.Logger
	initialCash decimal.Decimal
	maxSteps    int
	maxRetries  int
}

// Config bundles the wiring an Executor needs.
type Config struct {
	DB          *gorm.DB
	JobDetails  repository.JobDetailRepository
	TradingDays repository.TradingDayRepository
	PriceCache  *pricecache.Cache
	Runtime     agentruntime.Runtime
	Summarizer  agentruntime.Summarizer
	Scratch     *runtimectx.ScratchWriter
	Logger      zerolog.Logger
	InitialCash decimal.Decimal
	MaxSteps    int
	MaxRetries  int
}

// New constructs an Executor.
func New(cfg Config) *Executor {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Executor{
		db:          cfg.DB,
		jobDetails:  cfg.JobDetails,
		tradingDays: cfg.TradingDays,
		priceCache:  cfg.PriceCache,
		runtime:     cfg.Runtime,
		summarizer:  cfg.Summarizer,
		scratch:     cfg.Scratch,
		logger:      cfg.Logger,
		initialCash: cfg.InitialCash,
		maxSteps:    cfg.MaxSteps,
		maxRetries:  cfg.MaxRetries,
	}
}

// Run executes one (job, model, date) session. It is idempotent: if the
// JobDetail is already completed, it returns immediately without
// re-running.
func (e *Executor) Run(ctx context.Context, jobID uuid.UUID, model string, date time.Time) error {
	detail, err := e.jobDetails.FindByJobModelDate(jobID.String(), model, date)
	if err != nil {
		return fmt.Errorf("failed to load job detail: %w", err)
	}
	if detail.Status == models.JobDetailStatusCompleted {
		return nil
	}

	if err := e.jobDetails.UpdateStatus(jobID.String(), model, date, models.JobDetailStatusRunning, ""); err != nil {
		return fmt.Errorf("failed to mark job detail running: %w", err)
	}

	if err := e.run(ctx, jobID, model, date); err != nil {
		_ = e.jobDetails.UpdateStatus(jobID.String(), model, date, models.JobDetailStatusFailed, err.Error())
		return err
	}

	return e.jobDetails.UpdateStatus(jobID.String(), model, date, models.JobDetailStatusCompleted, "")
}

func (e *Executor) run(ctx context.Context, jobID uuid.UUID, model string, date time.Time) error {
	start := time.Now()

	prevDay, startingHoldings, err := e.loadPrevious(model, date)
	if err != nil {
		return err
	}

	currentPrices, err := e.priceCache.GetOpenPrices(date, e.priceCache.Symbols())
	if err != nil {
		return fmt.Errorf("failed to fetch open prices: %w", err)
	}

	pnlResult, err := pnl.Calculate(pnl.Input{
		Previous:      prevDay,
		CurrentDate:   date,
		CurrentPrices: currentPrices,
		InitialCash:   e.initialCash,
	})
	if err != nil {
		var missing *pnl.MissingPriceError
		if errors.As(err, &missing) {
			return fmt.Errorf("%w: %s", models.ErrMissingPrice, missing.Symbol)
		}
		return err
	}

	startingCash := e.initialCash
	if prevDay != nil {
		startingCash = prevDay.EndingCash
	}

	day := &models.TradingDay{
		JobID:                jobID,
		Model:                model,
		Date:                 date,
		StartingCash:         startingCash,
		StartingPortfolioVal: pnlResult.StartingPortfolioValue,
		DailyProfit:          pnlResult.DailyProfit,
		DailyReturnPct:       pnlResult.DailyReturnPct,
		EndingCash:           startingCash,
		EndingPortfolioVal:   pnlResult.StartingPortfolioValue,
		DaysSinceLastTrading: pnlResult.DaysSinceLastTrading,
	}
	if err := e.tradingDays.Create(day); err != nil {
		return fmt.Errorf("failed to create trading day: %w", err)
	}

	priceLookup := e.priceLookupFor(date, currentPrices)
	book := ledger.New(e.db, day.ID, startingCash, startingHoldings, priceLookup)

	rc := runtimectx.New(jobID, model, date, day.ID)
	scratchPath, err := e.scratch.Write(rc)
	if err != nil {
		return fmt.Errorf("failed to write scratch config: %w", err)
	}
	defer func() {
		if rmErr := e.scratch.Remove(scratchPath); rmErr != nil {
			e.logger.Warn().Err(rmErr).Str("model", model).Msg("failed to remove scratch config")
		}
	}()

	transcript, meta, err := e.invokeRuntime(ctx, rc, book)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrAgentFailure, err)
	}

	summary := e.summarizer.Summarize(ctx, transcript, meta)
	duration := time.Since(start).Seconds()

	if _, err := book.Finish(day, summary, transcript, duration); err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	return nil
}

// invokeRuntime makes up to maxRetries attempts at the agent runtime
// invocation, retrying on any error, matching the bounded-retry contract of §4.6.
func (e *Executor) invokeRuntime(ctx context.Context, rc runtimectx.Context, book agentruntime.Trader) (models.ReasoningList, agentruntime.CompletionMetadata, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		transcript, meta, err := e.runtime.Execute(ctx, rc, book, e.maxSteps)
		if err == nil {
			return transcript, meta, nil
		}
		lastErr = err
		e.logger.Warn().Err(err).Str("model", rc.ModelSignature).Int("attempt", attempt+1).Msg("agent runtime invocation failed")
	}
	return nil, agentruntime.CompletionMetadata{}, lastErr
}

func (e *Executor) loadPrevious(model string, date time.Time) (*pnl.PreviousSession, map[string]int, error) {
	prev, err := e.tradingDays.FindPreviousByModel(model, date)
	if err != nil {
		if errors.Is(err, models.ErrTradingDayNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load previous trading day: %w", err)
	}

	holdings := make(map[string]int, len(prev.Holdings))
	for _, h := range prev.Holdings {
		holdings[h.Symbol] = h.Quantity
	}

	return &pnl.PreviousSession{
		Date:                 prev.Date,
		EndingCash:           prev.EndingCash,
		EndingPortfolioValue: prev.EndingPortfolioVal,
		Holdings:             holdings,
	}, holdings, nil
}

// priceLookupFor resolves an open price, first from the day's already-
// fetched tracked-universe prices, falling back to an individual cache
// lookup for a symbol the agent requested outside that universe.
func (e *Executor) priceLookupFor(date time.Time, known map[string]decimal.Decimal) ledger.PriceLookup {
	return func(symbol string) (decimal.Decimal, error) {
		if price, ok := known[symbol]; ok {
			return price, nil
		}
		prices, err := e.priceCache.GetOpenPrices(date, []string{symbol})
		if err != nil {
			return decimal.Zero, err
		}
		price, ok := prices[symbol]
		if !ok {
			return decimal.Zero, models.ErrMissingPrice
		}
		return price, nil
	}
}
