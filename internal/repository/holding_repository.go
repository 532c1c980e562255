package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// HoldingRepository defines the interface for holding data operations
type HoldingRepository interface {
	Create(holding *models.Holding) error
	CreateBatch(holdings []*models.Holding) error
	FindByTradingDayID(tradingDayID string) ([]*models.Holding, error)
	FindByTradingDayIDAndSymbol(tradingDayID, symbol string) (*models.Holding, error)
	Delete(id string) error
}

// holdingRepository implements HoldingRepository interface
type holdingRepository struct {
	db *gorm.DB
}

// NewHoldingRepository creates a new HoldingRepository instance
func NewHoldingRepository(db *gorm.DB) HoldingRepository {
	return &holdingRepository{db: db}
}

// Create creates a new holding in the database
func (r *holdingRepository) Create(holding *models.Holding) error {
	if holding == nil {
		return fmt.Errorf("holding cannot be nil")
	}
	if err := holding.Validate(); err != nil {
		return err
	}
	if err := r.db.Create(holding).Error; err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// CreateBatch persists the closing holdings of a trading day in one insert
func (r *holdingRepository) CreateBatch(holdings []*models.Holding) error {
	if len(holdings) == 0 {
		return nil
	}
	for _, h := range holdings {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	if err := r.db.Create(&holdings).Error; err != nil {
		return fmt.Errorf("failed to create holdings: %w", err)
	}
	return nil
}

// FindByTradingDayID finds all holdings recorded at the close of a trading day
func (r *holdingRepository) FindByTradingDayID(tradingDayID string) ([]*models.Holding, error) {
	if tradingDayID == "" {
		return nil, fmt.Errorf("trading day ID cannot be empty")
	}

	tdID, err := uuid.Parse(tradingDayID)
	if err != nil {
		return nil, fmt.Errorf("invalid trading day ID format: %w", err)
	}

	var holdings []*models.Holding
	if err := r.db.Where("trading_day_id = ?", tdID).
		Order("symbol ASC").
		Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to find holdings: %w", err)
	}
	return holdings, nil
}

// FindByTradingDayIDAndSymbol finds a single holding on a trading day by symbol
func (r *holdingRepository) FindByTradingDayIDAndSymbol(tradingDayID, symbol string) (*models.Holding, error) {
	if tradingDayID == "" {
		return nil, fmt.Errorf("trading day ID cannot be empty")
	}
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	tdID, err := uuid.Parse(tradingDayID)
	if err != nil {
		return nil, fmt.Errorf("invalid trading day ID format: %w", err)
	}

	var holding models.Holding
	if err := r.db.Where("trading_day_id = ? AND symbol = ?", tdID, symbol).
		First(&holding).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to find holding: %w", err)
	}
	return &holding, nil
}

// Delete deletes a holding by ID
func (r *holdingRepository) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	holdingID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid holding ID format: %w", err)
	}

	result := r.db.Where("id = ?", holdingID).Delete(&models.Holding{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete holding: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrHoldingNotFound
	}
	return nil
}
