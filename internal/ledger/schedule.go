package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/models"
)

// Schedule produces the full fixed-installment (French/PRICE) amortization
// table for a loan. A loan without a term or start date is not yet
// configured and gets an empty schedule; callers treat that as the pending
// state, not as an error.
//
// The remaining balance is clamped at zero so rounding never drifts it
// negative. When the installment does not cover the accrued interest the
// amortization goes negative and the balance grows; that degenerate case is
// preserved as observed, not corrected.
func Schedule(loan *models.Loan) []models.ScheduleEntry {
	if !loan.Configured() {
		return nil
	}

	entries := make([]models.ScheduleEntry, 0, loan.TermMonths)
	balance := loan.Principal
	for k := 1; k <= loan.TermMonths; k++ {
		interest := balance.Mul(loan.MonthlyRate).Round(2)
		amortization := loan.Installment.Sub(interest)
		balance = balance.Sub(amortization)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		entries = append(entries, models.ScheduleEntry{
			Number:           k,
			DueDate:          loan.StartDate.AddDate(0, k, 0),
			Interest:         interest,
			Amortization:     amortization,
			RemainingBalance: balance,
		})
	}
	return entries
}

// PaidInstallmentsAsOf counts the installments due on or before date that
// the loan's stored paid counter confirms. The counter is the authoritative
// paid count; the due dates only bound it.
func PaidInstallmentsAsOf(loan *models.Loan, date time.Time) int {
	due := 0
	for _, e := range Schedule(loan) {
		if !e.DueDate.After(date) {
			due++
		}
	}
	paid := loan.PaidInstallments
	if paid > due {
		paid = due
	}
	if paid < 0 {
		paid = 0
	}
	return paid
}

// OutstandingBalance is the remaining principal after the loan's paid
// installments: the schedule balance at the paid counter, or the full
// principal when nothing was paid yet.
func OutstandingBalance(loan *models.Loan) decimal.Decimal {
	sched := Schedule(loan)
	n := loan.PaidInstallments
	if n <= 0 || len(sched) == 0 {
		return loan.Principal
	}
	if n > len(sched) {
		n = len(sched)
	}
	return sched[n-1].RemainingBalance
}

// AmortizationAndInterestThrough sums the principal and interest portions
// paid through installment n.
func AmortizationAndInterestThrough(loan *models.Loan, n int) (amortization, interest decimal.Decimal) {
	sched := Schedule(loan)
	if n > len(sched) {
		n = len(sched)
	}
	for i := 0; i < n; i++ {
		amortization = amortization.Add(sched[i].Amortization)
		interest = interest.Add(sched[i].Interest)
	}
	return amortization, interest
}

// NextDueInstallment returns the first installment past the paid counter,
// used for reminder alerting. The second result is false for settled or
// unconfigured loans.
func NextDueInstallment(loan *models.Loan) (models.ScheduleEntry, bool) {
	sched := Schedule(loan)
	n := loan.PaidInstallments
	if n < 0 {
		n = 0
	}
	if n >= len(sched) {
		return models.ScheduleEntry{}, false
	}
	return sched[n], true
}
