package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricePoint is one symbol's daily OHLCV record on one trading date, as
// downloaded from the market data provider and cached for reuse across jobs.
// Open is the price the ledger executes trades at and the price prior
// holdings are revalued at; Close/High/Low/Volume are carried for
// completeness of the daily record even though only Open is load-bearing
// for the simulation itself.
type PricePoint struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Symbol    string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_price_points_symbol_date" json:"symbol" validate:"required"`
	Date      time.Time       `gorm:"not null;uniqueIndex:idx_price_points_symbol_date;index" json:"date" validate:"required"`
	Open      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"open" validate:"required"`
	High      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"high"`
	Low       decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"low"`
	Close     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"close" validate:"required"`
	Volume    int64           `gorm:"not null;default:0" json:"volume"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name for the PricePoint model
func (PricePoint) TableName() string {
	return "price_points"
}

// BeforeCreate generates a UUID and timestamp before inserting a price point
func (p *PricePoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Validate checks that the price point is usable by the ledger and pnl calculator
func (p *PricePoint) Validate() error {
	if p.Symbol == "" {
		return ErrInvalidSymbol
	}
	if p.Close.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	if p.Open.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}
