package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// JobRepository defines the interface for job data operations
type JobRepository interface {
	Create(job *models.Job) error
	FindByID(id string) (*models.Job, error)
	FindActive() (*models.Job, error)
	FindAll(limit, offset int) ([]*models.Job, error)
	Update(job *models.Job) error
	MarkInterrupted(reason string) (int64, error)
	UpdateStatus(jobID string, status models.JobStatus, errMsg string) error
	AddWarnings(jobID string, warnings []string) error
}

// jobRepository implements JobRepository interface
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create inserts a new job, rejecting it if another job is already active.
// The active-job check and insert run inside a transaction so two concurrent
// trigger requests cannot both observe "no active job" and both proceed.
func (r *jobRepository) Create(job *models.Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Job{}).
			Where("status IN ?", models.ActiveJobStatuses).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for active jobs: %w", err)
		}
		if count > 0 {
			return models.ErrJobAlreadyActive
		}

		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		return nil
	})
}

// FindByID finds a job by ID
func (r *jobRepository) FindByID(id string) (*models.Job, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	jobID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var job models.Job
	if err := r.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	return &job, nil
}

// FindActive returns the single currently-active job, if any
func (r *jobRepository) FindActive() (*models.Job, error) {
	var job models.Job
	err := r.db.Where("status IN ?", models.ActiveJobStatuses).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find active job: %w", err)
	}
	return &job, nil
}

// FindAll returns jobs ordered by creation date descending
func (r *jobRepository) FindAll(limit, offset int) ([]*models.Job, error) {
	var jobs []*models.Job
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to find jobs: %w", err)
	}
	return jobs, nil
}

// Update saves changes to an existing job
func (r *jobRepository) Update(job *models.Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	result := r.db.Model(job).Where("id = ?", job.ID).Updates(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

// UpdateStatus transitions a job to a new status, stamping started_at on the
// first transition into running and completed_at/duration on any terminal
// transition, per the job-level state machine.
func (r *jobRepository) UpdateStatus(jobID string, status models.JobStatus, errMsg string) error {
	jid, err := uuid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job ID format: %w", err)
	}

	var job models.Job
	if err := r.db.Where("id = ?", jid).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.ErrJobNotFound
		}
		return fmt.Errorf("failed to find job: %w", err)
	}

	updates := map[string]interface{}{"status": status}
	if errMsg != "" {
		updates["error"] = errMsg
	}

	now := time.Now().UTC()
	if status == models.JobStatusRunning && job.StartedAt == nil {
		updates["started_at"] = now
	}
	if status.IsTerminal() {
		updates["completed_at"] = now
		start := job.StartedAt
		if start == nil {
			start = &job.CreatedAt
		}
		duration := now.Sub(*start).Seconds()
		updates["total_duration_secs"] = duration
	}

	if err := r.db.Model(&models.Job{}).Where("id = ?", jid).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// AddWarnings appends warnings to a job's warning list.
func (r *jobRepository) AddWarnings(jobID string, warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job ID format: %w", err)
	}

	var job models.Job
	if err := r.db.Where("id = ?", jid).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.ErrJobNotFound
		}
		return fmt.Errorf("failed to find job: %w", err)
	}

	job.Warnings = append(job.Warnings, warnings...)
	if err := r.db.Model(&job).Where("id = ?", jid).Update("warnings", job.Warnings).Error; err != nil {
		return fmt.Errorf("failed to add job warnings: %w", err)
	}
	return nil
}

// MarkInterrupted fails every active job, used during startup reconciliation
// to recover from a process restart that left jobs stuck mid-run.
func (r *jobRepository) MarkInterrupted(reason string) (int64, error) {
	result := r.db.Model(&models.Job{}).
		Where("status IN ?", models.ActiveJobStatuses).
		Updates(map[string]interface{}{
			"status": models.JobStatusFailed,
			"error":  reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark interrupted jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
