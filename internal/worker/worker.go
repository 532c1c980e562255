// Package worker runs one backtest Job end to end: ensuring price coverage,
// then fanning out one DayExecutor per model for each trading date in
// ascending order. Grounded on the original implementation's simulation
// worker loop and on the teacher's internal/jobs scheduler for goroutine
// lifecycle management (sync.WaitGroup + context.Context).
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucasmv/backtestsim/internal/dayexecutor"
	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/pricecache"
	"github.com/lucasmv/backtestsim/internal/repository"
)

const reasonIncompleteCoverage = "Incomplete price data"

// Worker runs exactly one Job.
type Worker struct {
	jobs        repository.JobRepository
	jobDetails  repository.JobDetailRepository
	priceCache  *pricecache.Cache
	executor    *dayexecutor.Executor
	logger      zerolog.Logger
	concurrency int
}

// Config bundles the wiring a Worker needs.
type Config struct {
	Jobs        repository.JobRepository
	JobDetails  repository.JobDetailRepository
	PriceCache  *pricecache.Cache
	Executor    *dayexecutor.Executor
	Logger      zerolog.Logger
	Concurrency int
}

// New constructs a Worker.
func New(cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Worker{
		jobs:        cfg.Jobs,
		jobDetails:  cfg.JobDetails,
		priceCache:  cfg.PriceCache,
		executor:    cfg.Executor,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Run executes the full job sequence. It never returns an error for a
// per-(model, date) failure — those are captured on the JobDetail and the
// job's terminal status reflects the mix of outcomes. It returns an error
// only for a worker-level failure (job not found, a store error while
// ensuring coverage or updating status); when coverage or the available
// dates cannot be loaded, the job is marked failed. Per-symbol download
// failures are not errors: they become job warnings.
func (w *Worker) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := w.jobs.FindByID(jobID.String())
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	if err := w.jobs.UpdateStatus(jobID.String(), models.JobStatusDownloadingData, ""); err != nil {
		return fmt.Errorf("failed to mark job downloading_data: %w", err)
	}

	dates := make([]time.Time, len(job.DateRange))
	copy(dates, job.DateRange)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var warnings []string

	result, err := w.priceCache.EnsureCoverage(ctx, dates)
	if err != nil {
		_ = w.jobs.UpdateStatus(jobID.String(), models.JobStatusFailed, err.Error())
		return fmt.Errorf("failed to ensure price coverage: %w", err)
	}
	if result.RateLimited {
		warnings = append(warnings, fmt.Sprintf("price provider rate limited after downloading %d symbols; %d symbols pending", len(result.Downloaded), len(result.Failed)))
	}
	for _, symbol := range result.Failed {
		warnings = append(warnings, fmt.Sprintf("failed to download price data for %s", symbol))
	}

	availableDates, err := w.priceCache.AvailableTradingDates(dates[0], dates[len(dates)-1])
	if err != nil {
		_ = w.jobs.UpdateStatus(jobID.String(), models.JobStatusFailed, err.Error())
		return fmt.Errorf("failed to load available trading dates: %w", err)
	}
	available := make(map[time.Time]bool, len(availableDates))
	for _, d := range availableDates {
		available[d] = true
	}

	var runnable []time.Time
	for _, date := range dates {
		if !available[date] {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %s", date.Format("2006-01-02"), reasonIncompleteCoverage))
			for _, model := range job.Models {
				w.skipDetail(jobID, model, date, reasonIncompleteCoverage)
			}
			continue
		}
		runnable = append(runnable, date)
	}

	if err := w.jobs.UpdateStatus(jobID.String(), models.JobStatusRunning, ""); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	for _, date := range runnable {
		w.runDate(ctx, jobID, []string(job.Models), date)
	}

	if len(warnings) > 0 {
		if err := w.jobs.AddWarnings(jobID.String(), warnings); err != nil {
			w.logger.Warn().Err(err).Str("job_id", jobID.String()).Msg("failed to record job warnings")
		}
	}

	return w.finalize(jobID)
}

// runDate fans out one DayExecutor per model for date, bounded to a fixed
// concurrency, and awaits them all before returning.
func (w *Worker) runDate(ctx context.Context, jobID uuid.UUID, modelNames []string, date time.Time) {
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for _, model := range modelNames {
		detail, err := w.jobDetails.FindByJobModelDate(jobID.String(), model, date)
		if err != nil {
			w.logger.Warn().Err(err).Str("model", model).Time("date", date).Msg("missing job detail, skipping")
			continue
		}
		if detail.Status.IsTerminal() {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(model string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := w.executor.Run(ctx, jobID, model, date); err != nil {
				w.logger.Error().Err(err).Str("model", model).Time("date", date).Msg("day execution failed")
			}
		}(model)
	}

	wg.Wait()
}

// skipDetail marks a (model, date) pair as skipped with reason, used for
// dates whose price coverage is incomplete.
func (w *Worker) skipDetail(jobID uuid.UUID, model string, date time.Time, reason string) {
	if err := w.jobDetails.UpdateStatus(jobID.String(), model, date, models.JobDetailStatusSkipped, reason); err != nil {
		w.logger.Warn().Err(err).Str("model", model).Time("date", date).Msg("failed to mark job detail skipped")
	}
}

// finalize computes the job's terminal status from the mix of its details'
// outcomes: all completed or skipped with no failures -> completed; any
// mix of successes and failures -> partial; no successes at all -> failed.
func (w *Worker) finalize(jobID uuid.UUID) error {
	completed, err := w.jobDetails.CountByStatus(jobID.String(), models.JobDetailStatusCompleted)
	if err != nil {
		return err
	}
	failed, err := w.jobDetails.CountByStatus(jobID.String(), models.JobDetailStatusFailed)
	if err != nil {
		return err
	}

	var status models.JobStatus
	switch {
	case failed == 0:
		status = models.JobStatusCompleted
	case completed == 0:
		status = models.JobStatusFailed
	default:
		status = models.JobStatusPartial
	}

	return w.jobs.UpdateStatus(jobID.String(), status, "")
}
