package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Holding represents the quantity of a symbol held at the end of a trading day
type Holding struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TradingDayID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_holdings_day_symbol" json:"trading_day_id" validate:"required"`
	Symbol       string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_holdings_day_symbol" json:"symbol" validate:"required"`
	Quantity     int         `gorm:"not null" json:"quantity" validate:"required"`
	TradingDay   *TradingDay `gorm:"foreignKey:TradingDayID" json:"-"`
}

// TableName specifies the table name for the Holding model
func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate hook to generate a UUID before creating a new holding
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Validate checks that the holding carries a positive quantity, per the
// invariant that zeroed-out positions are removed rather than persisted at zero.
func (h *Holding) Validate() error {
	if h.Symbol == "" {
		return ErrInvalidSymbol
	}
	if h.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
