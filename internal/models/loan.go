package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan contract.
type LoanStatus string

const (
	// LoanPending marks a loan created from a disbursement transaction
	// before its full terms were supplied.
	LoanPending LoanStatus = "pending_configuration"
	LoanActive  LoanStatus = "active"
	LoanSettled LoanStatus = "settled"
)

// Loan represents a fixed-rate, fixed-installment loan contract
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	Label            string          `json:"label"`
	Principal        decimal.Decimal `json:"principal"`
	Installment      decimal.Decimal `json:"installment"`  // fixed monthly payment
	MonthlyRate      decimal.Decimal `json:"monthly_rate"` // decimal, e.g. 0.02 for 2%
	TermMonths       int             `json:"term_months"`
	StartDate        time.Time       `json:"start_date"`
	Status           LoanStatus      `json:"status"`
	PaidInstallments int             `json:"paid_installments"` // authoritative paid counter
	AccountID        *uuid.UUID      `json:"account_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Configured reports whether the loan carries the terms the scheduler needs.
func (l *Loan) Configured() bool {
	return l.TermMonths > 0 && !l.StartDate.IsZero()
}
