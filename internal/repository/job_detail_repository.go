package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// JobDetailRepository defines the interface for job detail data operations
type JobDetailRepository interface {
	CreateBatch(details []*models.JobDetail) error
	FindByJobID(jobID string) ([]*models.JobDetail, error)
	FindPendingByJobID(jobID string) ([]*models.JobDetail, error)
	FindByJobModelDate(jobID, model string, date time.Time) (*models.JobDetail, error)
	UpdateStatus(jobID, model string, date time.Time, status models.JobDetailStatus, errMsg string) error
	Update(detail *models.JobDetail) error
	CountByStatus(jobID string, status models.JobDetailStatus) (int64, error)
}

// jobDetailRepository implements JobDetailRepository interface
type jobDetailRepository struct {
	db *gorm.DB
}

// NewJobDetailRepository creates a new JobDetailRepository instance
func NewJobDetailRepository(db *gorm.DB) JobDetailRepository {
	return &jobDetailRepository{db: db}
}

// CreateBatch inserts the full cross-product of (date, model) units of work for a job
func (r *jobDetailRepository) CreateBatch(details []*models.JobDetail) error {
	if len(details) == 0 {
		return fmt.Errorf("details cannot be empty")
	}

	if err := r.db.Create(&details).Error; err != nil {
		return fmt.Errorf("failed to create job details: %w", err)
	}
	return nil
}

// FindByJobID finds all job details for a job, ordered by date then model
func (r *jobDetailRepository) FindByJobID(jobID string) ([]*models.JobDetail, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var details []*models.JobDetail
	if err := r.db.Where("job_id = ?", jid).
		Order("date ASC, model ASC").
		Find(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to find job details: %w", err)
	}
	return details, nil
}

// FindPendingByJobID finds the job details still awaiting execution
func (r *jobDetailRepository) FindPendingByJobID(jobID string) ([]*models.JobDetail, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var details []*models.JobDetail
	if err := r.db.Where("job_id = ? AND status = ?", jid, models.JobDetailStatusPending).
		Order("date ASC, model ASC").
		Find(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to find pending job details: %w", err)
	}
	return details, nil
}

// FindByJobModelDate finds the job detail for one exact (job, model, date) triple
func (r *jobDetailRepository) FindByJobModelDate(jobID, model string, date time.Time) (*models.JobDetail, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var detail models.JobDetail
	if err := r.db.Where("job_id = ? AND model = ? AND date = ?", jid, model, date).
		First(&detail).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrJobDetailNotFound
		}
		return nil, fmt.Errorf("failed to find job detail: %w", err)
	}
	return &detail, nil
}

// UpdateStatus transitions a job detail to a new status, stamping started_at
// on the first transition into running and completed_at/duration on any
// terminal transition.
func (r *jobDetailRepository) UpdateStatus(jobID, model string, date time.Time, status models.JobDetailStatus, errMsg string) error {
	detail, err := r.FindByJobModelDate(jobID, model, date)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": status}
	if errMsg != "" {
		updates["error"] = errMsg
	}

	now := time.Now().UTC()
	if status == models.JobDetailStatusRunning && detail.StartedAt == nil {
		updates["started_at"] = now
	}
	if status.IsTerminal() {
		updates["completed_at"] = now
		start := detail.StartedAt
		if start == nil {
			start = &now
		}
		duration := now.Sub(*start).Seconds()
		updates["duration_secs"] = duration
	}

	if err := r.db.Model(&models.JobDetail{}).Where("id = ?", detail.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update job detail status: %w", err)
	}
	return nil
}

// Update saves changes to an existing job detail
func (r *jobDetailRepository) Update(detail *models.JobDetail) error {
	if detail == nil {
		return fmt.Errorf("job detail cannot be nil")
	}

	result := r.db.Model(detail).Where("id = ?", detail.ID).Updates(detail)
	if result.Error != nil {
		return fmt.Errorf("failed to update job detail: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrJobDetailNotFound
	}
	return nil
}

// CountByStatus counts the job details for a job in a given status
func (r *jobDetailRepository) CountByStatus(jobID string, status models.JobDetailStatus) (int64, error) {
	if jobID == "" {
		return 0, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return 0, fmt.Errorf("invalid job ID format: %w", err)
	}

	var count int64
	if err := r.db.Model(&models.JobDetail{}).
		Where("job_id = ? AND status = ?", jid, status).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count job details: %w", err)
	}
	return count, nil
}
