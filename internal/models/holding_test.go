package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestHolding_BeforeCreate(t *testing.T) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})

	holding := &Holding{
		TradingDayID: uuid.New(),
		Symbol:       "AAPL",
		Quantity:     10,
	}

	err := holding.BeforeCreate(db)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, holding.ID)
}

func TestHolding_Validate(t *testing.T) {
	t.Run("valid holding", func(t *testing.T) {
		holding := &Holding{Symbol: "AAPL", Quantity: 10}
		assert.NoError(t, holding.Validate())
	})

	t.Run("empty symbol error", func(t *testing.T) {
		holding := &Holding{Symbol: "", Quantity: 10}
		err := holding.Validate()
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidSymbol, err)
	})

	t.Run("non-positive quantity error", func(t *testing.T) {
		holding := &Holding{Symbol: "AAPL", Quantity: 0}
		err := holding.Validate()
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidQuantity, err)
	})
}

func TestHolding_TableName(t *testing.T) {
	holding := Holding{}
	assert.Equal(t, "holdings", holding.TableName())
}
