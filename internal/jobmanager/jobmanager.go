// Package jobmanager is a thin layer over the Job/TradingDay repositories
// enforcing the single-active-job invariant and skip-completed filtering.
// Grounded on the original implementation's job manager.
package jobmanager

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

// Manager creates and inspects Jobs.
type Manager struct {
	jobs        repository.JobRepository
	jobDetails  repository.JobDetailRepository
	tradingDays repository.TradingDayRepository
}

// New constructs a Manager.
func New(jobs repository.JobRepository, jobDetails repository.JobDetailRepository, tradingDays repository.TradingDayRepository) *Manager {
	return &Manager{jobs: jobs, jobDetails: jobDetails, tradingDays: tradingDays}
}

// CreateRequest is the input to CreateJob.
type CreateRequest struct {
	ConfigRef     string
	Dates         []time.Time
	Models        []string
	SkipCompleted bool
}

// CreateResult is CreateJob's output.
type CreateResult struct {
	JobID    uuid.UUID
	Warnings []string
}

// CanStartNewJob reports whether no job is currently pending, downloading
// data, or running.
func (m *Manager) CanStartNewJob() (bool, error) {
	_, err := m.jobs.FindActive()
	if err == nil {
		return false, nil
	}
	if err == models.ErrJobNotFound {
		return true, nil
	}
	return false, fmt.Errorf("failed to check active job: %w", err)
}

// CreateJob validates the single-active-job invariant, filters out
// already-completed (model, date) pairs when SkipCompleted is set, and
// inserts the Job and its remaining JobDetails.
func (m *Manager) CreateJob(req CreateRequest) (*CreateResult, error) {
	if len(req.Dates) == 0 {
		return nil, models.ErrInvalidDateRange
	}
	if len(req.Models) == 0 {
		return nil, models.ErrNoModelsSpecified
	}

	canStart, err := m.CanStartNewJob()
	if err != nil {
		return nil, err
	}
	if !canStart {
		return nil, models.ErrJobAlreadyActive
	}

	start, end := req.Dates[0], req.Dates[0]
	for _, d := range req.Dates {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}

	var warnings []string
	type pair struct {
		model string
		date  time.Time
	}
	var pairs []pair
	for _, model := range req.Models {
		for _, date := range req.Dates {
			pairs = append(pairs, pair{model: model, date: date})
		}
	}

	if req.SkipCompleted {
		completed, err := m.tradingDays.FindCompletedModelDates(req.Models, start, end)
		if err != nil {
			return nil, err
		}

		var remaining []pair
		for _, p := range pairs {
			if completed[p.model] != nil && completed[p.model][p.date] {
				warnings = append(warnings, fmt.Sprintf("skipping %s on %s: already completed", p.model, p.date.Format("2006-01-02")))
				continue
			}
			remaining = append(remaining, p)
		}
		pairs = remaining
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: every requested (model, date) pair is already completed", models.ErrConflict)
	}

	job := &models.Job{
		ConfigRef: req.ConfigRef,
		DateRange: models.DateList(req.Dates),
		Models:    models.StringList(req.Models),
		Warnings:  models.StringList(warnings),
	}
	if err := m.jobs.Create(job); err != nil {
		return nil, err
	}

	details := make([]*models.JobDetail, 0, len(pairs))
	for _, p := range pairs {
		details = append(details, &models.JobDetail{JobID: job.ID, Model: p.model, Date: p.date})
	}
	if err := m.jobDetails.CreateBatch(details); err != nil {
		return nil, err
	}

	return &CreateResult{JobID: job.ID, Warnings: warnings}, nil
}

// ResumeDateFor computes the single resume date a trigger request should
// use for model when it omits start_date: the day after the model's last
// completed trading day, or end (a cold-start single-day range) if the
// model has never traded.
func (m *Manager) ResumeDateFor(model string, end time.Time) (time.Time, error) {
	last, err := m.tradingDays.FindLastDateForModel(model)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil {
		return end, nil
	}
	return last.AddDate(0, 0, 1), nil
}

// Progress summarizes one job's execution state.
type Progress struct {
	Job       *models.Job
	Completed int64
	Failed    int64
	Skipped   int64
	Pending   int64
	Running   int64
	Total     int64
}

// GetJobProgress aggregates a job's detail counts by status.
func (m *Manager) GetJobProgress(jobID string) (*Progress, error) {
	job, err := m.jobs.FindByID(jobID)
	if err != nil {
		return nil, err
	}

	details, err := m.jobDetails.FindByJobID(jobID)
	if err != nil {
		return nil, err
	}

	progress := &Progress{Job: job, Total: int64(len(details))}
	for _, d := range details {
		switch d.Status {
		case models.JobDetailStatusCompleted:
			progress.Completed++
		case models.JobDetailStatusFailed:
			progress.Failed++
		case models.JobDetailStatusSkipped:
			progress.Skipped++
		case models.JobDetailStatusRunning:
			progress.Running++
		default:
			progress.Pending++
		}
	}
	return progress, nil
}
