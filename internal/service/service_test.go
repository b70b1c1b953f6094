package service

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dmaia/ledger-service/internal/config"
	"github.com/dmaia/ledger-service/internal/models"
	"github.com/dmaia/ledger-service/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	st := store.NewStore(filepath.Join(t.TempDir(), "ledger.json"), log)
	cfg := &config.Config{JWTSecret: "test-secret", ReminderDays: 5}
	return NewService(models.NewDocument(), st, log, cfg)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestSetupAndLogin(t *testing.T) {
	svc := testService(t)

	if _, err := svc.Setup("Ana", "ana@example.com", "hunter2"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := svc.Setup("Bob", "bob@example.com", "pw"); err == nil {
		t.Error("second setup should be rejected")
	}

	if _, err := svc.Login("ana@example.com", "hunter2"); err != nil {
		t.Errorf("login: %v", err)
	}
	if _, err := svc.Login("ana@example.com", "wrong"); err == nil {
		t.Error("login with wrong password should fail")
	}
	if _, err := svc.Login("bob@example.com", "hunter2"); err == nil {
		t.Error("login with wrong email should fail")
	}
}

func TestTransferCreatesBothLegs(t *testing.T) {
	svc := testService(t)
	from, err := svc.CreateAccount("checking", models.KindChecking, d("1000"), day(2024, time.January, 1), false)
	if err != nil {
		t.Fatal(err)
	}
	to, err := svc.CreateAccount("savings", models.KindSavings, d("0"), day(2024, time.January, 1), false)
	if err != nil {
		t.Fatal(err)
	}

	legs, err := svc.Transfer(from.ID, to.ID, d("250"), day(2024, time.February, 1), "monthly saving")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("got %d legs, want 2", len(legs))
	}
	if legs[0].TransferGroupID == nil || legs[1].TransferGroupID == nil ||
		*legs[0].TransferGroupID != *legs[1].TransferGroupID {
		t.Error("legs must share one transfer-group id")
	}
	if legs[0].Flow != models.FlowTransferOut || legs[1].Flow != models.FlowTransferIn {
		t.Errorf("leg flows = %s/%s", legs[0].Flow, legs[1].Flow)
	}

	if got := svc.BalanceAsOf(from.ID, nil); !got.Equal(d("750")) {
		t.Errorf("source balance = %s, want 750", got)
	}
	if got := svc.BalanceAsOf(to.ID, nil); !got.Equal(d("250")) {
		t.Errorf("destination balance = %s, want 250", got)
	}
}

func TestTransferValidation(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("0"), day(2024, time.January, 1), false)

	if _, err := svc.Transfer(acc.ID, acc.ID, d("10"), day(2024, time.February, 1), ""); err == nil {
		t.Error("transfer to the same account should fail")
	}
	if _, err := svc.Transfer(acc.ID, acc.ID, d("-10"), day(2024, time.February, 1), ""); err == nil {
		t.Error("negative amount should fail")
	}
}

func TestAppendTransactionValidation(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("0"), day(2024, time.January, 1), false)

	tests := []struct {
		name string
		in   TransactionInput
	}{
		{"zero amount", TransactionInput{
			AccountID: acc.ID, Date: day(2024, time.February, 1),
			Amount: d("0"), Operation: models.OpIncome, Flow: models.FlowIn,
		}},
		{"inconsistent flow", TransactionInput{
			AccountID: acc.ID, Date: day(2024, time.February, 1),
			Amount: d("10"), Operation: models.OpExpense, Flow: models.FlowIn,
		}},
		{"unknown account", TransactionInput{
			Date:   day(2024, time.February, 1),
			Amount: d("10"), Operation: models.OpIncome, Flow: models.FlowIn,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AppendTransaction(tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDisbursementCreatesPendingLoan(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("0"), day(2024, time.January, 1), false)

	tx, err := svc.AppendTransaction(TransactionInput{
		AccountID:   acc.ID,
		Date:        day(2024, time.February, 1),
		Amount:      d("10000"),
		Operation:   models.OpLoanDisbursement,
		Flow:        models.FlowIn,
		Description: "car loan",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if tx.LoanID == nil {
		t.Fatal("disbursement should link the created loan")
	}

	loans := svc.ListLoans()
	if len(loans) != 1 {
		t.Fatalf("got %d loans, want 1", len(loans))
	}
	if loans[0].Status != models.LoanPending {
		t.Errorf("loan status = %s, want pending_configuration", loans[0].Status)
	}

	// Supplying full terms activates it.
	loan, err := svc.ConfigureLoan(loans[0].ID, LoanInput{
		Installment: d("945.60"),
		MonthlyRate: d("0.02"),
		TermMonths:  12,
		StartDate:   day(2024, time.February, 1),
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if loan.Status != models.LoanActive {
		t.Errorf("loan status = %s, want active", loan.Status)
	}
}

func TestLoanPaymentLifecycle(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("5000"), day(2024, time.January, 1), false)

	loan, err := svc.CreateLoan(LoanInput{
		Label:       "fridge",
		Principal:   d("1000"),
		Installment: d("515"),
		MonthlyRate: d("0.02"),
		TermMonths:  2,
		StartDate:   day(2024, time.January, 10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if loan.Status != models.LoanActive {
		t.Fatalf("loan status = %s, want active", loan.Status)
	}

	if _, err := svc.RegisterLoanPayment(loan.ID, acc.ID, day(2024, time.February, 10)); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	updated, err := svc.RegisterLoanPayment(loan.ID, acc.ID, day(2024, time.March, 10))
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if updated.Status != models.LoanSettled {
		t.Errorf("loan status = %s, want settled after final installment", updated.Status)
	}
	if updated.PaidInstallments != 2 {
		t.Errorf("paid installments = %d, want 2", updated.PaidInstallments)
	}

	// Both payment legs hit the account.
	if got := svc.BalanceAsOf(acc.ID, nil); !got.Equal(d("3970")) {
		t.Errorf("account balance = %s, want 3970", got)
	}

	// Settled loans accept no further payments.
	if _, err := svc.RegisterLoanPayment(loan.ID, acc.ID, day(2024, time.April, 10)); err == nil {
		t.Error("payment on a settled loan should fail")
	}
}

func TestReplaceTransactionKeepsID(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("0"), day(2024, time.January, 1), false)

	tx, err := svc.AppendTransaction(TransactionInput{
		AccountID: acc.ID, Date: day(2024, time.February, 1),
		Amount: d("100"), Operation: models.OpExpense, Flow: models.FlowOut,
	})
	if err != nil {
		t.Fatal(err)
	}
	id := tx.ID

	replaced, err := svc.ReplaceTransaction(id, TransactionInput{
		AccountID: acc.ID, Date: day(2024, time.February, 2),
		Amount: d("120"), Operation: models.OpExpense, Flow: models.FlowOut,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.ID != id {
		t.Error("replacement must keep the original id")
	}
	if got := svc.BalanceAsOf(acc.ID, nil); !got.Equal(d("-120")) {
		t.Errorf("balance = %s, want -120", got)
	}
}

func TestMonthlySummary(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("0"), day(2024, time.January, 1), false)

	inputs := []TransactionInput{
		{AccountID: acc.ID, Date: day(2024, time.March, 5), Amount: d("3000"), Operation: models.OpIncome, Flow: models.FlowIn},
		{AccountID: acc.ID, Date: day(2024, time.March, 12), Amount: d("40"), Operation: models.OpYield, Flow: models.FlowIn},
		{AccountID: acc.ID, Date: day(2024, time.March, 20), Amount: d("1100"), Operation: models.OpExpense, Flow: models.FlowOut},
		{AccountID: acc.ID, Date: day(2024, time.April, 1), Amount: d("999"), Operation: models.OpExpense, Flow: models.FlowOut},
	}
	for _, in := range inputs {
		if _, err := svc.AppendTransaction(in); err != nil {
			t.Fatal(err)
		}
	}

	sum := svc.MonthlySummary(day(2024, time.March, 15))
	if sum.Month != "2024-03" {
		t.Errorf("month = %s, want 2024-03", sum.Month)
	}
	if !sum.Income.Equal(d("3040")) {
		t.Errorf("income = %s, want 3040", sum.Income)
	}
	if !sum.Expense.Equal(d("1100")) {
		t.Errorf("expense = %s, want 1100", sum.Expense)
	}
	if !sum.NetBalance.Equal(d("1940")) {
		t.Errorf("net = %s, want 1940", sum.NetBalance)
	}
}

func TestToggleBillPersistsInclusion(t *testing.T) {
	svc := testService(t)
	if _, err := svc.CreateLoan(LoanInput{
		Label:       "bike",
		Principal:   d("1200"),
		Installment: d("110"),
		MonthlyRate: d("0.015"),
		TermMonths:  12,
		StartDate:   day(2024, time.January, 5),
	}); err != nil {
		t.Fatal(err)
	}

	month := day(2024, time.February, 1)
	bills := svc.BillsForMonth(month)
	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1", len(bills))
	}
	key := bills[0].BillKey

	if err := svc.ToggleBillInclusion(month, key); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	bills = svc.BillsForMonth(month)
	if !bills[0].Included {
		t.Error("bill should be included after toggle")
	}

	if err := svc.ToggleBillInclusion(month, key); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	bills = svc.BillsForMonth(month)
	if bills[0].Included {
		t.Error("bill should be back to not included")
	}
}

func TestMarkBillPaidMaterializesSystemEntry(t *testing.T) {
	svc := testService(t)
	if _, err := svc.CreateLoan(LoanInput{
		Label:       "bike",
		Principal:   d("1200"),
		Installment: d("110"),
		MonthlyRate: d("0.015"),
		TermMonths:  12,
		StartDate:   day(2024, time.January, 5),
	}); err != nil {
		t.Fatal(err)
	}

	month := day(2024, time.February, 1)
	key := svc.BillsForMonth(month)[0].BillKey

	if err := svc.MarkBillPaid(month, key, true); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if len(svc.doc.BillTracker) != 1 {
		t.Fatalf("tracker has %d entries, want 1", len(svc.doc.BillTracker))
	}
	entry := svc.doc.BillTracker[0]
	if !entry.AutoGenerated {
		t.Error("entry backing a loan projection should be auto-generated")
	}
	if !entry.Paid {
		t.Error("entry should carry the paid flag")
	}

	// Unpaying and excluding shadows the entry instead of deleting it, so
	// the projector does not re-surface the installment as included.
	if err := svc.MarkBillPaid(month, key, false); err != nil {
		t.Fatalf("unmark paid: %v", err)
	}
	if err := svc.ToggleBillInclusion(month, key); err != nil {
		t.Fatalf("exclude: %v", err)
	}
	if len(svc.doc.BillTracker) != 1 {
		t.Fatalf("tracker has %d entries after exclude, want the shadowed 1", len(svc.doc.BillTracker))
	}
	if !svc.doc.BillTracker[0].Excluded {
		t.Error("shadowed entry should be flagged excluded")
	}
	bills := svc.BillsForMonth(month)
	if len(bills) != 1 || bills[0].Included {
		t.Error("excluded installment should be surfaced but not included")
	}
}

type captureMailer struct {
	to      string
	name    string
	bills   []models.PotentialBill
	summary models.MonthlySummary
	sent    int
}

func (m *captureMailer) SendBillReminder(to, name string, bills []models.PotentialBill, summary models.MonthlySummary) error {
	m.to = to
	m.name = name
	m.bills = bills
	m.summary = summary
	m.sent++
	return nil
}

func TestSendDueBillRemindersIncludesSummary(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Setup("Ana", "ana@example.com", "hunter2"); err != nil {
		t.Fatal(err)
	}
	mailer := &captureMailer{}
	svc.SetMailer(mailer)

	now := time.Now()
	acc, err := svc.CreateAccount("checking", models.KindChecking, d("0"), now.AddDate(-1, 0, 0), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AppendTransaction(TransactionInput{
		AccountID: acc.ID, Date: now,
		Amount: d("3000"), Operation: models.OpIncome, Flow: models.FlowIn,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddManualBill(now, "water bill", d("80")); err != nil {
		t.Fatal(err)
	}

	svc.SendDueBillReminders()

	if mailer.sent != 1 {
		t.Fatalf("mailer invoked %d times, want 1", mailer.sent)
	}
	if mailer.to != "ana@example.com" || mailer.name != "Ana" {
		t.Errorf("reminder addressed to %s (%s)", mailer.to, mailer.name)
	}
	if len(mailer.bills) != 1 || mailer.bills[0].Description != "water bill" {
		t.Fatalf("reminder bills = %+v, want the manual bill", mailer.bills)
	}
	if mailer.summary.Month != models.MonthKey(now) {
		t.Errorf("summary month = %s, want %s", mailer.summary.Month, models.MonthKey(now))
	}
	if !mailer.summary.Income.Equal(d("3000")) {
		t.Errorf("summary income = %s, want 3000", mailer.summary.Income)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc := testService(t)
	acc, _ := svc.CreateAccount("checking", models.KindChecking, d("100"), day(2024, time.January, 1), false)
	if _, err := svc.AppendTransaction(TransactionInput{
		AccountID: acc.ID, Date: day(2024, time.February, 1),
		Amount: d("55"), Operation: models.OpIncome, Flow: models.FlowIn,
	}); err != nil {
		t.Fatal(err)
	}

	data, err := svc.ExportDocument()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	other := testService(t)
	if err := other.ImportDocument(data); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := other.BalanceAsOf(acc.ID, nil); !got.Equal(d("155")) {
		t.Errorf("balance after import = %s, want 155", got)
	}
}
