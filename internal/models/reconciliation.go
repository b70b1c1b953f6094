package models

import "github.com/shopspring/decimal"

// ReconciliationStatus classifies the divergence between the calculated and
// the stated closing balance.
type ReconciliationStatus string

const (
	ReconcileOK      ReconciliationStatus = "ok"
	ReconcileWarning ReconciliationStatus = "warning"
	ReconcileError   ReconciliationStatus = "error"
	// ReconcileUnchecked means no stated closing balance was supplied.
	ReconcileUnchecked ReconciliationStatus = "unchecked"
)

// Reconciliation is the result of comparing the ledger against a bank
// statement for one account window.
type Reconciliation struct {
	OpeningBalance    decimal.Decimal      `json:"opening_balance"`
	Income            decimal.Decimal      `json:"income"`
	Expense           decimal.Decimal      `json:"expense"`
	TransferIn        decimal.Decimal      `json:"transfer_in"`
	TransferOut       decimal.Decimal      `json:"transfer_out"`
	Contributions     decimal.Decimal      `json:"contributions"`
	Withdrawals       decimal.Decimal      `json:"withdrawals"`
	CalculatedClosing decimal.Decimal      `json:"calculated_closing"`
	StatedClosing     *decimal.Decimal     `json:"stated_closing,omitempty"`
	Divergence        decimal.Decimal      `json:"divergence"`
	Status            ReconciliationStatus `json:"status"`
}
