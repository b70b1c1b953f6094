package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/models"
)

// divergenceWarningLimit separates a warning from an error, in currency
// units. Policy constant, not derived.
var divergenceWarningLimit = decimal.NewFromInt(10)

// Reconcile sums the account's transactions in the window into category
// buckets, derives the closing balance and classifies the divergence from
// the stated statement balance. Nil window edges are open; a nil stated
// closing balance leaves the result unchecked. A divergence is a classified
// result, never an error.
func Reconcile(doc *models.Document, accountID uuid.UUID, from, to *time.Time, statedOpening, statedClosing *decimal.Decimal) models.Reconciliation {
	res := models.Reconciliation{Status: models.ReconcileUnchecked}

	acc := findAccount(doc, accountID)
	if acc == nil {
		return res
	}

	switch {
	case statedOpening != nil:
		res.OpeningBalance = *statedOpening
	case from != nil:
		res.OpeningBalance = BalanceAsOf(doc, accountID, from)
	default:
		res.OpeningBalance = openingBalance(doc, acc)
	}

	for i := range doc.Transactions {
		tx := &doc.Transactions[i]
		if tx.AccountID != accountID {
			continue
		}
		if from != nil && tx.Date.Before(*from) {
			continue
		}
		if to != nil && !tx.Date.Before(*to) {
			continue
		}
		switch {
		case tx.Operation == models.OpInvestmentContribution:
			res.Contributions = res.Contributions.Add(tx.Amount)
		case tx.Operation == models.OpInvestmentWithdrawal:
			res.Withdrawals = res.Withdrawals.Add(tx.Amount)
		case tx.Flow == models.FlowTransferIn:
			res.TransferIn = res.TransferIn.Add(tx.Amount)
		case tx.Flow == models.FlowTransferOut:
			res.TransferOut = res.TransferOut.Add(tx.Amount)
		case tx.Flow == models.FlowIn:
			res.Income = res.Income.Add(tx.Amount)
		default:
			res.Expense = res.Expense.Add(tx.Amount)
		}
	}

	res.CalculatedClosing = res.OpeningBalance.
		Add(res.Income).Sub(res.Expense).
		Add(res.TransferIn).Sub(res.TransferOut).
		Add(res.Withdrawals).Sub(res.Contributions)

	if statedClosing != nil {
		res.StatedClosing = statedClosing
		res.Divergence = res.CalculatedClosing.Sub(*statedClosing).Abs()
		switch {
		case res.Divergence.IsZero():
			res.Status = models.ReconcileOK
		case res.Divergence.LessThanOrEqual(divergenceWarningLimit):
			res.Status = models.ReconcileWarning
		default:
			res.Status = models.ReconcileError
		}
	}
	return res
}
