package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/models"
)

// BalanceAsOf reconstructs the account's balance by folding every
// transaction dated strictly before cutoff, in date order with insertion
// order breaking ties. A nil cutoff is open-ended and includes the whole
// log. Unknown accounts yield zero so derived views stay resilient to
// stale references.
func BalanceAsOf(doc *models.Document, accountID uuid.UUID, cutoff *time.Time) decimal.Decimal {
	acc := findAccount(doc, accountID)
	if acc == nil {
		return decimal.Zero
	}

	var txs []*models.Transaction
	for i := range doc.Transactions {
		tx := &doc.Transactions[i]
		if tx.AccountID != accountID {
			continue
		}
		if cutoff != nil && !tx.Date.Before(*cutoff) {
			continue
		}
		txs = append(txs, tx)
	}
	// Stable sort keeps the log's insertion order on equal dates, so the
	// fold is reproducible call after call.
	sort.SliceStable(txs, func(a, b int) bool {
		return txs[a].Date.Before(txs[b].Date)
	})

	balance := openingBalance(doc, acc)
	for _, tx := range txs {
		balance = applyTransaction(balance, acc.Kind, tx)
	}
	return balance
}

// CurrentBalance is the open-ended fold over the full log.
func CurrentBalance(doc *models.Document, accountID uuid.UUID) decimal.Decimal {
	return BalanceAsOf(doc, accountID, nil)
}

// openingBalance resolves the dual representation of an account's opening
// balance: when the log carries an explicit opening-balance transaction the
// static field is ignored and the fold starts at zero, letting the
// transaction contribute like any other. Never both.
func openingBalance(doc *models.Document, acc *models.Account) decimal.Decimal {
	for i := range doc.Transactions {
		tx := &doc.Transactions[i]
		if tx.AccountID == acc.ID && tx.Operation == models.OpOpeningBalance {
			return decimal.Zero
		}
	}
	return acc.OpeningBalance
}

func applyTransaction(balance decimal.Decimal, kind models.AccountKind, tx *models.Transaction) decimal.Decimal {
	if kind == models.KindCreditCard {
		// Credit cards track debt: spending deepens it, a statement
		// payment (a transfer received) reduces it. Every other
		// operation leaves the card untouched.
		switch tx.Operation {
		case models.OpExpense:
			return balance.Sub(tx.Amount)
		case models.OpTransfer:
			return balance.Add(tx.Amount)
		}
		return balance
	}
	if tx.Flow == models.FlowIn || tx.Flow == models.FlowTransferIn || tx.Operation == models.OpOpeningBalance {
		return balance.Add(tx.Amount)
	}
	return balance.Sub(tx.Amount)
}

func findAccount(doc *models.Document, id uuid.UUID) *models.Account {
	for i := range doc.Accounts {
		if doc.Accounts[i].ID == id {
			return &doc.Accounts[i]
		}
	}
	return nil
}
