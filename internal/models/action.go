package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActionType represents the type of trade an agent issued during a session
type ActionType string

const (
	ActionTypeBuy  ActionType = "buy"
	ActionTypeSell ActionType = "sell"
)

// Action represents a single buy or sell decision made by an agent within a trading day
type Action struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TradingDayID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"trading_day_id" validate:"required"`
	Type            ActionType      `gorm:"type:varchar(10);not null" json:"type" validate:"required"`
	Symbol          string          `gorm:"type:varchar(20);not null;index" json:"symbol" validate:"required"`
	Quantity        int             `gorm:"not null" json:"quantity" validate:"required"`
	ExecutionPrice  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"execution_price" validate:"required"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	TradingDay      *TradingDay     `gorm:"foreignKey:TradingDayID" json:"-"`
}

// TableName specifies the table name for the Action model
func (Action) TableName() string {
	return "actions"
}

// BeforeCreate hook generates a UUID and creation timestamp before inserting an action
func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Validate checks that the action carries data a ledger can safely apply
func (a *Action) Validate() error {
	if a.Symbol == "" {
		return ErrInvalidSymbol
	}
	if a.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if a.ExecutionPrice.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	switch a.Type {
	case ActionTypeBuy, ActionTypeSell:
	default:
		return ErrInvalidActionType
	}
	return nil
}

// IsBuy returns true if the action is a buy
func (a *Action) IsBuy() bool {
	return a.Type == ActionTypeBuy
}

// IsSell returns true if the action is a sell
func (a *Action) IsSell() bool {
	return a.Type == ActionTypeSell
}

// Cost returns the cash outlay of a buy action
func (a *Action) Cost() decimal.Decimal {
	return a.ExecutionPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
}

// Proceeds returns the cash received from a sell action
func (a *Action) Proceeds() decimal.Decimal {
	return a.ExecutionPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
}
