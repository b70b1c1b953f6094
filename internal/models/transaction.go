package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType classifies what a transaction represents.
type OperationType string

const (
	OpIncome                 OperationType = "income"
	OpExpense                OperationType = "expense"
	OpTransfer               OperationType = "transfer"
	OpInvestmentContribution OperationType = "investment_contribution"
	OpInvestmentWithdrawal   OperationType = "investment_withdrawal"
	OpLoanPayment            OperationType = "loan_payment"
	OpLoanDisbursement       OperationType = "loan_disbursement"
	OpVehiclePurchase        OperationType = "vehicle_purchase"
	OpVehicleSale            OperationType = "vehicle_sale"
	OpYield                  OperationType = "yield"
	OpOpeningBalance         OperationType = "opening_balance"
)

// FlowDirection is the cash-flow direction relative to the account.
type FlowDirection string

const (
	FlowIn          FlowDirection = "in"
	FlowOut         FlowDirection = "out"
	FlowTransferIn  FlowDirection = "transfer_in"
	FlowTransferOut FlowDirection = "transfer_out"
)

// Transaction represents a financial transaction. Records are immutable
// value objects: an edit replaces the record under the same id, it never
// mutates history in place.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"` // non-negative magnitude; direction comes from Flow
	Operation   OperationType   `json:"operation"`
	Flow        FlowDirection   `json:"flow"`
	Description string          `json:"description"`

	CategoryID           *uuid.UUID `json:"category_id,omitempty"`
	LoanID               *uuid.UUID `json:"loan_id,omitempty"`
	LoanInstallment      int        `json:"loan_installment,omitempty"`
	InsuranceID          *uuid.UUID `json:"insurance_id,omitempty"`
	InsuranceInstallment int        `json:"insurance_installment,omitempty"`
	InvestmentAccountID  *uuid.UUID `json:"investment_account_id,omitempty"`
	TransferGroupID      *uuid.UUID `json:"transfer_group_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// allowedFlows maps each operation to the flow directions it may carry.
// The credit-card inversion is a balance-fold concern, not a validity one.
var allowedFlows = map[OperationType][]FlowDirection{
	OpIncome:                 {FlowIn},
	OpExpense:                {FlowOut},
	OpTransfer:               {FlowTransferIn, FlowTransferOut},
	OpInvestmentContribution: {FlowOut, FlowTransferOut},
	OpInvestmentWithdrawal:   {FlowIn, FlowTransferIn},
	OpLoanPayment:            {FlowOut},
	OpLoanDisbursement:       {FlowIn},
	OpVehiclePurchase:        {FlowOut},
	OpVehicleSale:            {FlowIn},
	OpYield:                  {FlowIn},
	OpOpeningBalance:         {FlowIn},
}

// ValidFlow reports whether the flow direction is consistent with the
// operation type.
func ValidFlow(op OperationType, flow FlowDirection) bool {
	for _, f := range allowedFlows[op] {
		if f == flow {
			return true
		}
	}
	return false
}
