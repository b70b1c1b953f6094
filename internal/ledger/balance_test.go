package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func testAccount(kind models.AccountKind, opening string) models.Account {
	return models.Account{
		ID:             uuid.New(),
		Name:           "test",
		Kind:           kind,
		OpeningBalance: d(opening),
		OpenedAt:       day(2024, time.January, 1),
	}
}

func tx(account uuid.UUID, date time.Time, amount string, op models.OperationType, flow models.FlowDirection) models.Transaction {
	return models.Transaction{
		ID:        uuid.New(),
		AccountID: account,
		Date:      date,
		Amount:    d(amount),
		Operation: op,
		Flow:      flow,
	}
}

func TestBalanceAsOfFold(t *testing.T) {
	acc := testAccount(models.KindChecking, "1000")
	other := testAccount(models.KindSavings, "0")
	doc := &models.Document{
		Accounts: []models.Account{acc, other},
		Transactions: []models.Transaction{
			tx(acc.ID, day(2024, time.February, 1), "500", models.OpIncome, models.FlowIn),
			tx(acc.ID, day(2024, time.February, 10), "200", models.OpExpense, models.FlowOut),
			tx(other.ID, day(2024, time.February, 11), "999", models.OpIncome, models.FlowIn),
			tx(acc.ID, day(2024, time.February, 20), "100", models.OpTransfer, models.FlowTransferOut),
			tx(acc.ID, day(2024, time.March, 5), "50", models.OpYield, models.FlowIn),
		},
	}

	tests := []struct {
		name   string
		cutoff *time.Time
		want   string
	}{
		{"open ended", nil, "1250"},
		{"before any transaction", ptr(day(2024, time.January, 15)), "1000"},
		{"cutoff excludes same-day transaction", ptr(day(2024, time.February, 10)), "1500"},
		{"mid window", ptr(day(2024, time.March, 1)), "1200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BalanceAsOf(doc, acc.ID, tt.cutoff)
			if !got.Equal(d(tt.want)) {
				t.Errorf("BalanceAsOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBalanceAsOfDeterminism(t *testing.T) {
	acc := testAccount(models.KindChecking, "0")
	// Same-date transactions: insertion order must break the tie the same
	// way on every call.
	doc := &models.Document{
		Accounts: []models.Account{acc},
		Transactions: []models.Transaction{
			tx(acc.ID, day(2024, time.May, 1), "300", models.OpIncome, models.FlowIn),
			tx(acc.ID, day(2024, time.May, 1), "100", models.OpExpense, models.FlowOut),
			tx(acc.ID, day(2024, time.May, 1), "50", models.OpExpense, models.FlowOut),
		},
	}

	first := CurrentBalance(doc, acc.ID)
	for i := 0; i < 10; i++ {
		if got := CurrentBalance(doc, acc.ID); !got.Equal(first) {
			t.Fatalf("call %d returned %s, first call returned %s", i, got, first)
		}
	}
	if !first.Equal(d("150")) {
		t.Errorf("balance = %s, want 150", first)
	}
}

func TestBalanceCreditCardSignInversion(t *testing.T) {
	card := testAccount(models.KindCreditCard, "0")
	doc := &models.Document{
		Accounts: []models.Account{card},
		Transactions: []models.Transaction{
			tx(card.ID, day(2024, time.June, 1), "100", models.OpExpense, models.FlowOut),
		},
	}

	if got := CurrentBalance(doc, card.ID); !got.Equal(d("-100")) {
		t.Fatalf("after expense: balance = %s, want -100", got)
	}

	// Statement payment received reduces the debt.
	doc.Transactions = append(doc.Transactions,
		tx(card.ID, day(2024, time.June, 15), "40", models.OpTransfer, models.FlowTransferIn))
	if got := CurrentBalance(doc, card.ID); !got.Equal(d("-60")) {
		t.Fatalf("after payment: balance = %s, want -60", got)
	}

	// Every other operation type is a no-op on a card.
	doc.Transactions = append(doc.Transactions,
		tx(card.ID, day(2024, time.June, 20), "500", models.OpIncome, models.FlowIn))
	if got := CurrentBalance(doc, card.ID); !got.Equal(d("-60")) {
		t.Fatalf("after income: balance = %s, want -60", got)
	}
}

func TestBalanceOpeningBalancePrecedence(t *testing.T) {
	// An explicit opening-balance transaction overrides the static field;
	// the two must never double count.
	acc := testAccount(models.KindChecking, "1000")
	doc := &models.Document{
		Accounts: []models.Account{acc},
		Transactions: []models.Transaction{
			tx(acc.ID, day(2024, time.January, 1), "750", models.OpOpeningBalance, models.FlowIn),
			tx(acc.ID, day(2024, time.January, 10), "250", models.OpIncome, models.FlowIn),
		},
	}

	if got := CurrentBalance(doc, acc.ID); !got.Equal(d("1000")) {
		t.Errorf("balance = %s, want 1000 (750 opening transaction + 250, static field ignored)", got)
	}
}

func TestBalanceUnknownAccount(t *testing.T) {
	doc := &models.Document{}
	if got := CurrentBalance(doc, uuid.New()); !got.IsZero() {
		t.Errorf("balance for unknown account = %s, want 0", got)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
