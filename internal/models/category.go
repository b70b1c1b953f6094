package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents a spending category. Fixed categories recur monthly
// and feed the obligation projector; variable ones are ad hoc.
type Category struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Fixed         bool            `json:"fixed"`
	TypicalAmount decimal.Decimal `json:"typical_amount"` // zero when unknown
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
