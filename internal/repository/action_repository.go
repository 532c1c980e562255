package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// ActionRepository defines the interface for action data operations
type ActionRepository interface {
	Create(action *models.Action) error
	CreateBatch(actions []*models.Action) error
	FindByTradingDayID(tradingDayID string) ([]*models.Action, error)
	CountByTradingDayID(tradingDayID string) (int64, error)
}

// actionRepository implements ActionRepository interface
type actionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new ActionRepository instance
func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

// Create creates a new action in the database
func (r *actionRepository) Create(action *models.Action) error {
	if action == nil {
		return fmt.Errorf("action cannot be nil")
	}
	if err := action.Validate(); err != nil {
		return err
	}
	if err := r.db.Create(action).Error; err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

// CreateBatch persists a trading day's full action list in the order issued,
// the ledger's single atomic write at session end.
func (r *actionRepository) CreateBatch(actions []*models.Action) error {
	if len(actions) == 0 {
		return nil
	}
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	if err := r.db.Create(&actions).Error; err != nil {
		return fmt.Errorf("failed to create actions: %w", err)
	}
	return nil
}

// FindByTradingDayID finds all actions taken during a trading day, in the order issued
func (r *actionRepository) FindByTradingDayID(tradingDayID string) ([]*models.Action, error) {
	if tradingDayID == "" {
		return nil, fmt.Errorf("trading day ID cannot be empty")
	}

	tdID, err := uuid.Parse(tradingDayID)
	if err != nil {
		return nil, fmt.Errorf("invalid trading day ID format: %w", err)
	}

	var actions []*models.Action
	if err := r.db.Where("trading_day_id = ?", tdID).
		Order("created_at ASC").
		Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to find actions: %w", err)
	}
	return actions, nil
}

// CountByTradingDayID counts the actions taken during a trading day
func (r *actionRepository) CountByTradingDayID(tradingDayID string) (int64, error) {
	if tradingDayID == "" {
		return 0, fmt.Errorf("trading day ID cannot be empty")
	}

	tdID, err := uuid.Parse(tradingDayID)
	if err != nil {
		return 0, fmt.Errorf("invalid trading day ID format: %w", err)
	}

	var count int64
	if err := r.db.Model(&models.Action{}).
		Where("trading_day_id = ?", tdID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}
