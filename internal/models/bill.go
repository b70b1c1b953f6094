package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillSource identifies where a projected obligation comes from.
type BillSource string

const (
	SourceLoan      BillSource = "loan"
	SourceInsurance BillSource = "insurance"
	SourceCategory  BillSource = "category"
	SourceManual    BillSource = "manual"
)

// BillKey is the composite key identifying one obligation: at most one bill
// exists per (source, ref, installment) in any month.
type BillKey struct {
	Source      BillSource `json:"source"`
	Ref         uuid.UUID  `json:"ref"`
	Installment int        `json:"installment"`
}

// PotentialBill is a projected obligation for one month. Derived, never
// persisted.
type PotentialBill struct {
	BillKey
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Paid        bool            `json:"paid"`
	Included    bool            `json:"included"`
}

// BillTrackerEntry is the persisted user override for one month's bill. It
// either adds an ad-hoc bill or overrides a projected bill's inclusion,
// exclusion or payment state. Entries shadowing a recurring projection are
// excluded via the flag rather than removed, so the projector does not
// re-surface them.
type BillTrackerEntry struct {
	ID    uuid.UUID `json:"id"`
	Month string    `json:"month"` // YYYY-MM
	BillKey
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Paid        bool            `json:"paid"`
	Excluded    bool            `json:"excluded"`
	// AutoGenerated is true for entries materialized from a recurring
	// source, false for entries created by a user include or ad-hoc add.
	AutoGenerated bool      `json:"auto_generated"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MonthKey formats a date as the tracker's month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
