package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
)

// PricePointRepository defines the interface for price point data operations
type PricePointRepository interface {
	Upsert(point *models.PricePoint) error
	FindBySymbolAndDate(symbol string, date time.Time) (*models.PricePoint, error)
	FindDatesForSymbol(symbol string, start, end time.Time) (map[time.Time]bool, error)
	CountSymbolsAtDate(date time.Time) (int64, error)
	GetOpenPrices(date time.Time, symbols []string) (map[string]decimal.Decimal, error)
}

// pricePointRepository implements PricePointRepository interface
type pricePointRepository struct {
	db *gorm.DB
}

// NewPricePointRepository creates a new PricePointRepository instance
func NewPricePointRepository(db *gorm.DB) PricePointRepository {
	return &pricePointRepository{db: db}
}

// Upsert stores or overwrites a symbol's OHLCV point on a given date. Mirrors
// the original price data manager's INSERT OR REPLACE semantics: a re-download
// of an already-cached date simply refreshes the stored values.
func (r *pricePointRepository) Upsert(point *models.PricePoint) error {
	if point == nil {
		return fmt.Errorf("price point cannot be nil")
	}
	if err := point.Validate(); err != nil {
		return err
	}

	var existing models.PricePoint
	err := r.db.Where("symbol = ? AND date = ?", point.Symbol, point.Date).First(&existing).Error
	if err == nil {
		existing.Open = point.Open
		existing.High = point.High
		existing.Low = point.Low
		existing.Close = point.Close
		existing.Volume = point.Volume
		if err := r.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update price point: %w", err)
		}
		point.ID = existing.ID
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to look up price point: %w", err)
	}

	if err := r.db.Create(point).Error; err != nil {
		return fmt.Errorf("failed to create price point: %w", err)
	}
	return nil
}

// FindBySymbolAndDate returns the cached price point for a symbol on a date
func (r *pricePointRepository) FindBySymbolAndDate(symbol string, date time.Time) (*models.PricePoint, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	var point models.PricePoint
	if err := r.db.Where("symbol = ? AND date = ?", symbol, date).First(&point).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrPricePointNotFound
		}
		return nil, fmt.Errorf("failed to find price point: %w", err)
	}
	return &point, nil
}

// FindDatesForSymbol returns the set of dates already cached for a symbol
// within a window, used to compute missing-coverage gaps before downloading.
func (r *pricePointRepository) FindDatesForSymbol(symbol string, start, end time.Time) (map[time.Time]bool, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	var points []models.PricePoint
	if err := r.db.Select("date").
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, start, end).
		Find(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to find cached dates: %w", err)
	}

	dates := make(map[time.Time]bool, len(points))
	for _, p := range points {
		dates[p.Date] = true
	}
	return dates, nil
}

// CountSymbolsAtDate counts distinct symbols with a price point on a date,
// the raw count the price cache compares against the tracked universe size
// to decide whether a date is fully covered.
func (r *pricePointRepository) CountSymbolsAtDate(date time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PricePoint{}).
		Where("date = ?", date).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count symbols at date: %w", err)
	}
	return count, nil
}

// GetOpenPrices returns the open price for each of symbols on date that has
// a cached price point; symbols with no cached point are simply absent from
// the returned map.
func (r *pricePointRepository) GetOpenPrices(date time.Time, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	var points []models.PricePoint
	if err := r.db.Where("date = ? AND symbol IN ?", date, symbols).
		Find(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to find open prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(points))
	for _, p := range points {
		prices[p.Symbol] = p.Open
	}
	return prices, nil
}
