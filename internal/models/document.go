package models

// Document is the complete persisted state: everything the store serializes
// as a single JSON blob. Derived views (balances, schedules, potential
// bills) are recomputed from it and never persisted, so a load/export cycle
// reproduces the same fields it read.
type Document struct {
	Profile      *Profile           `json:"profile,omitempty"`
	Accounts     []Account          `json:"accounts"`
	Transactions []Transaction      `json:"transactions"` // append-only log, insertion order preserved
	Loans        []Loan             `json:"loans"`
	Insurances   []Insurance        `json:"insurances"`
	Categories   []Category         `json:"categories"`
	BillTracker  []BillTrackerEntry `json:"bill_tracker"`
}

// NewDocument returns an empty document with non-nil collections so the
// serialized form is stable from the first save.
func NewDocument() *Document {
	return &Document{
		Accounts:     []Account{},
		Transactions: []Transaction{},
		Loans:        []Loan{},
		Insurances:   []Insurance{},
		Categories:   []Category{},
		BillTracker:  []BillTrackerEntry{},
	}
}
