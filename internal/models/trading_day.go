package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReasoningMessage is one turn of the agent runtime's conversation transcript
type ReasoningMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TradingDay is the result of one (job, model, date) session
type TradingDay struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	JobID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id" validate:"required"`
	Model                string          `gorm:"type:varchar(100);not null;index:idx_trading_days_model_date" json:"model" validate:"required"`
	Date                 time.Time       `gorm:"not null;index:idx_trading_days_model_date" json:"date" validate:"required"`
	StartingCash         decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"starting_cash"`
	StartingPortfolioVal decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"starting_portfolio_value"`
	DailyProfit          decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"daily_profit"`
	DailyReturnPct       decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"daily_return_pct"`
	EndingCash           decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"ending_cash"`
	EndingPortfolioVal   decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"ending_portfolio_value"`
	ReasoningSummary     string          `gorm:"type:text" json:"reasoning_summary,omitempty"`
	ReasoningFull        ReasoningList   `gorm:"type:text" json:"reasoning_full,omitempty"`
	TotalActions         int             `gorm:"not null;default:0" json:"total_actions"`
	SessionDurationSecs  float64         `gorm:"not null;default:0" json:"session_duration_seconds"`
	DaysSinceLastTrading int             `gorm:"not null;default:0" json:"days_since_last_trading"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`

	Job      *Job      `gorm:"foreignKey:JobID" json:"-"`
	Holdings []Holding `gorm:"foreignKey:TradingDayID;constraint:OnDelete:CASCADE" json:"holdings,omitempty"`
	Actions  []Action  `gorm:"foreignKey:TradingDayID;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
}

// TableName specifies the table name for the TradingDay model
func (TradingDay) TableName() string {
	return "trading_days"
}

// BeforeCreate generates an ID and creation timestamp before inserting a trading day
func (t *TradingDay) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Validate checks the cross-cutting invariants that apply at write time
func (t *TradingDay) Validate() error {
	if t.EndingCash.IsNegative() {
		return ErrNegativeEndingCash
	}
	return nil
}

// ReasoningList is a JSON-encoded conversation transcript
type ReasoningList []ReasoningMessage
