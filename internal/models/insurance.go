package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Insurance represents an insurance contract paid in monthly installments
type Insurance struct {
	ID           uuid.UUID       `json:"id"`
	Label        string          `json:"label"`
	Installments int             `json:"installments"`
	Amount       decimal.Decimal `json:"amount"` // per-installment amount
	StartDate    time.Time       `json:"start_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Configured reports whether the contract carries the terms the projector needs.
func (i *Insurance) Configured() bool {
	return i.Installments > 0 && !i.StartDate.IsZero()
}
