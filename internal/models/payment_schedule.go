package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry represents one row of a loan's amortization table. It is
// derived from the loan terms and never persisted.
type ScheduleEntry struct {
	Number           int             `json:"number"` // 1-based installment number
	DueDate          time.Time       `json:"due_date"`
	Interest         decimal.Decimal `json:"interest"`
	Amortization     decimal.Decimal `json:"amortization"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}
