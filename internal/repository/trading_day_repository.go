package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// TradingDayRepository defines the interface for trading day data operations
type TradingDayRepository interface {
	Create(day *models.TradingDay) error
	FindByID(id string) (*models.TradingDay, error)
	FindByJobID(jobID string) ([]*models.TradingDay, error)
	FindByJobIDAndModel(jobID, model string) ([]*models.TradingDay, error)
	FindPreviousByModel(model string, before time.Time) (*models.TradingDay, error)
	FindByJobModelDate(jobID, model string, date time.Time) (*models.TradingDay, error)
	Update(day *models.TradingDay) error
	FindLastDateForModel(model string) (*time.Time, error)
	FindCompletedModelDates(models []string, start, end time.Time) (map[string]map[time.Time]bool, error)
	Query(filter TradingDayFilter) ([]*models.TradingDay, error)
}

// TradingDayFilter narrows a Query call to a date window and, optionally,
// a specific job and/or model, matching the optional query parameters of
// the results endpoint.
type TradingDayFilter struct {
	JobID *uuid.UUID
	Model *string
	Start time.Time
	End   time.Time
}

// tradingDayRepository implements TradingDayRepository interface
type tradingDayRepository struct {
	db *gorm.DB
}

// NewTradingDayRepository creates a new TradingDayRepository instance
func NewTradingDayRepository(db *gorm.DB) TradingDayRepository {
	return &tradingDayRepository{db: db}
}

// Create persists a new trading day row; the day executor creates it as a
// placeholder at session start and fills it in later via Update
func (r *tradingDayRepository) Create(day *models.TradingDay) error {
	if day == nil {
		return fmt.Errorf("trading day cannot be nil")
	}
	if err := day.Validate(); err != nil {
		return err
	}
	if err := r.db.Create(day).Error; err != nil {
		return fmt.Errorf("failed to create trading day: %w", err)
	}
	return nil
}

// FindByID finds a trading day by ID, preloading its holdings and actions
func (r *tradingDayRepository) FindByID(id string) (*models.TradingDay, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	tdID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid trading day ID format: %w", err)
	}

	var day models.TradingDay
	if err := r.db.Preload("Holdings").Preload("Actions").
		Where("id = ?", tdID).First(&day).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrTradingDayNotFound
		}
		return nil, fmt.Errorf("failed to find trading day: %w", err)
	}
	return &day, nil
}

// FindByJobID finds all trading days produced by a job, ordered chronologically
func (r *tradingDayRepository) FindByJobID(jobID string) ([]*models.TradingDay, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var days []*models.TradingDay
	if err := r.db.Where("job_id = ?", jid).
		Order("model ASC, date ASC").
		Find(&days).Error; err != nil {
		return nil, fmt.Errorf("failed to find trading days: %w", err)
	}
	return days, nil
}

// FindByJobIDAndModel finds the trading days for one model within a job, chronologically
func (r *tradingDayRepository) FindByJobIDAndModel(jobID, model string) ([]*models.TradingDay, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var days []*models.TradingDay
	if err := r.db.Where("job_id = ? AND model = ?", jid, model).
		Order("date ASC").
		Find(&days).Error; err != nil {
		return nil, fmt.Errorf("failed to find trading days: %w", err)
	}
	return days, nil
}

// FindPreviousByModel finds the most recent trading day for a model strictly
// before the given date, across ALL jobs. Portfolio continuity for a model
// is tracked by (model, date), never by a parent job pointer, so a new job
// picks up exactly where any earlier job for that model left off.
func (r *tradingDayRepository) FindPreviousByModel(model string, before time.Time) (*models.TradingDay, error) {
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	var day models.TradingDay
	err := r.db.Preload("Holdings").
		Where("model = ? AND date < ?", model, before).
		Order("date DESC").
		Limit(1).
		First(&day).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrTradingDayNotFound
		}
		return nil, fmt.Errorf("failed to find previous trading day: %w", err)
	}
	return &day, nil
}

// FindByJobModelDate finds the trading day for one exact (job, model, date) triple
func (r *tradingDayRepository) FindByJobModelDate(jobID, model string, date time.Time) (*models.TradingDay, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID cannot be empty")
	}

	jid, err := uuid.Parse(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID format: %w", err)
	}

	var day models.TradingDay
	if err := r.db.Where("job_id = ? AND model = ? AND date = ?", jid, model, date).
		First(&day).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrTradingDayNotFound
		}
		return nil, fmt.Errorf("failed to find trading day: %w", err)
	}
	return &day, nil
}

// Update saves the final state of a trading day, used by the ledger session
// to turn the placeholder row created at session start into the completed
// record (ending cash/value, reasoning, total actions, completion time).
func (r *tradingDayRepository) Update(day *models.TradingDay) error {
	if day == nil {
		return fmt.Errorf("trading day cannot be nil")
	}
	if err := day.Validate(); err != nil {
		return err
	}

	result := r.db.Model(day).Where("id = ?", day.ID).Updates(day)
	if result.Error != nil {
		return fmt.Errorf("failed to update trading day: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrTradingDayNotFound
	}
	return nil
}

// FindLastDateForModel returns the most recent trading day date for a model,
// across all jobs, used to compute a cold-start resume point for trigger
// requests that omit start_date.
func (r *tradingDayRepository) FindLastDateForModel(model string) (*time.Time, error) {
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	var day models.TradingDay
	err := r.db.Where("model = ?", model).Order("date DESC").Limit(1).First(&day).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find last trading day: %w", err)
	}
	return &day.Date, nil
}

// FindCompletedModelDates returns, for each requested model, the set of
// dates within [start, end] that already have a trading day recorded (in
// any job). The job manager uses this to skip already-completed
// (model, date) pairs on resume.
func (r *tradingDayRepository) FindCompletedModelDates(models_ []string, start, end time.Time) (map[string]map[time.Time]bool, error) {
	result := make(map[string]map[time.Time]bool, len(models_))
	if len(models_) == 0 {
		return result, nil
	}

	var days []models.TradingDay
	if err := r.db.Select("model", "date").
		Where("model IN ? AND date >= ? AND date <= ?", models_, start, end).
		Find(&days).Error; err != nil {
		return nil, fmt.Errorf("failed to find completed model dates: %w", err)
	}

	for _, d := range days {
		if result[d.Model] == nil {
			result[d.Model] = make(map[time.Time]bool)
		}
		result[d.Model][d.Date] = true
	}
	return result, nil
}

// Query returns trading days within a date window, optionally narrowed to
// one job and/or one model, ordered by model then date, preloading
// holdings and actions for the results endpoint.
func (r *tradingDayRepository) Query(filter TradingDayFilter) ([]*models.TradingDay, error) {
	query := r.db.Preload("Holdings").Preload("Actions").
		Where("date >= ? AND date <= ?", filter.Start, filter.End)

	if filter.JobID != nil {
		query = query.Where("job_id = ?", *filter.JobID)
	}
	if filter.Model != nil {
		query = query.Where("model = ?", *filter.Model)
	}

	var days []*models.TradingDay
	if err := query.Order("model ASC, date ASC").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("failed to query trading days: %w", err)
	}
	return days, nil
}
