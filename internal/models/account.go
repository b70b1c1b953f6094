package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind determines the sign convention applied by the balance fold.
type AccountKind string

const (
	KindChecking    AccountKind = "checking"
	KindSavings     AccountKind = "savings"
	KindReserve     AccountKind = "emergency_reserve"
	KindFixedIncome AccountKind = "fixed_income"
	KindCrypto      AccountKind = "crypto"
	KindGoal        AccountKind = "goal"
	KindCreditCard  AccountKind = "credit_card"
	KindOffset      AccountKind = "offset"
)

// Account represents a tracked account
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpenedAt       time.Time       `json:"opened_at"`
	Hidden         bool            `json:"hidden"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
