package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmaia/ledger-service/internal/models"
)

// ErrPaidBill is returned when the caller tries to exclude a bill that a
// payment already confirmed.
var ErrPaidBill = errors.New("cannot remove a paid bill here")

// futureHorizonMonths bounds the future-bills projection; fixed categories
// recur every month and would otherwise project forever.
const futureHorizonMonths = 12

// PotentialBillsForMonth projects the obligations due in the month
// containing ref — active loan installments, insurance installments and
// fixed expense categories — and merges them with the month's tracker
// entries. The result is sorted by due date ascending.
func PotentialBillsForMonth(doc *models.Document, ref time.Time) []models.PotentialBill {
	start, end := monthBounds(ref)
	bills := projectMonth(doc, start, end, false)
	sortBills(bills)
	return bills
}

// FutureBills projects the unpaid obligations of the months after ref's,
// up to twelve months ahead.
func FutureBills(doc *models.Document, ref time.Time) []models.PotentialBill {
	var bills []models.PotentialBill
	for m := 1; m <= futureHorizonMonths; m++ {
		start, end := monthBounds(ref.AddDate(0, m, 0))
		bills = append(bills, projectMonth(doc, start, end, true)...)
	}
	sortBills(bills)
	return bills
}

// projectMonth emits one month's potential bills. skipPaid drops already
// paid installments (future mode); otherwise they are emitted with the Paid
// flag set so the month view can show them checked off.
func projectMonth(doc *models.Document, start, end time.Time, skipPaid bool) []models.PotentialBill {
	seen := make(map[models.BillKey]int)
	var bills []models.PotentialBill
	add := func(b models.PotentialBill) {
		if _, dup := seen[b.BillKey]; dup {
			return
		}
		seen[b.BillKey] = len(bills)
		bills = append(bills, b)
	}

	for i := range doc.Loans {
		loan := &doc.Loans[i]
		if loan.Status != models.LoanActive {
			continue
		}
		for _, e := range Schedule(loan) {
			if e.DueDate.Before(start) || !e.DueDate.Before(end) {
				continue
			}
			paid := e.Number <= loan.PaidInstallments
			if skipPaid && paid {
				continue
			}
			add(models.PotentialBill{
				BillKey: models.BillKey{
					Source:      models.SourceLoan,
					Ref:         loan.ID,
					Installment: e.Number,
				},
				DueDate:     e.DueDate,
				Amount:      loan.Installment,
				Description: fmt.Sprintf("%s %d/%d", loan.Label, e.Number, loan.TermMonths),
				Paid:        paid,
			})
		}
	}

	for i := range doc.Insurances {
		ins := &doc.Insurances[i]
		if !ins.Configured() {
			continue
		}
		for k := 1; k <= ins.Installments; k++ {
			due := ins.StartDate.AddDate(0, k, 0)
			if due.Before(start) || !due.Before(end) {
				continue
			}
			paid := insuranceInstallmentPaid(doc, ins.ID, k)
			if skipPaid && paid {
				continue
			}
			add(models.PotentialBill{
				BillKey: models.BillKey{
					Source:      models.SourceInsurance,
					Ref:         ins.ID,
					Installment: k,
				},
				DueDate:     due,
				Amount:      ins.Amount,
				Description: fmt.Sprintf("%s %d/%d", ins.Label, k, ins.Installments),
				Paid:        paid,
			})
		}
	}

	for i := range doc.Categories {
		cat := &doc.Categories[i]
		if !cat.Fixed {
			continue
		}
		if categorySpentInMonth(doc, cat.ID, start, end) {
			continue
		}
		add(models.PotentialBill{
			BillKey: models.BillKey{
				Source: models.SourceCategory,
				Ref:    cat.ID,
			},
			DueDate:     end.AddDate(0, 0, -1),
			Amount:      cat.TypicalAmount,
			Description: cat.Name,
		})
	}

	// Tracker merge: a matching entry decides inclusion, exclusion and
	// manual payment state; an entry with no matching projection is an
	// ad-hoc bill and is always surfaced.
	monthKey := models.MonthKey(start)
	for i := range doc.BillTracker {
		e := &doc.BillTracker[i]
		if e.Month != monthKey {
			continue
		}
		if j, ok := seen[e.BillKey]; ok {
			bills[j].Included = !e.Excluded
			if e.Paid {
				bills[j].Paid = true
			}
			continue
		}
		if e.Excluded {
			continue
		}
		add(models.PotentialBill{
			BillKey:     e.BillKey,
			DueDate:     e.DueDate,
			Amount:      e.Amount,
			Description: e.Description,
			Paid:        e.Paid,
			Included:    true,
		})
	}

	return bills
}

// ToggleBill flips the bill's inclusion for its month, creating or
// retiring the tracker entry that backs it.
func ToggleBill(doc *models.Document, bill models.PotentialBill, now time.Time) error {
	if bill.Included {
		return ExcludeBill(doc, bill)
	}
	IncludeBill(doc, bill, now)
	return nil
}

// IncludeBill records a tracker entry so the bill counts toward its
// month's obligations. Re-including a shadowed bill clears the exclusion
// instead of adding a second entry.
func IncludeBill(doc *models.Document, bill models.PotentialBill, now time.Time) *models.BillTrackerEntry {
	month := models.MonthKey(bill.DueDate)
	if e := findTrackerEntry(doc, month, bill.BillKey); e != nil {
		e.Excluded = false
		e.UpdatedAt = now
		return e
	}
	doc.BillTracker = append(doc.BillTracker, models.BillTrackerEntry{
		ID:          uuid.New(),
		Month:       month,
		BillKey:     bill.BillKey,
		DueDate:     bill.DueDate,
		Amount:      bill.Amount,
		Description: bill.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return &doc.BillTracker[len(doc.BillTracker)-1]
}

// MaterializeBill records a tracker entry on behalf of the system, as
// opposed to a user include: entries materialized from a recurring
// projection are flagged auto-generated so a later exclusion shadows them
// instead of removing them. Ad-hoc bills stay user-owned.
func MaterializeBill(doc *models.Document, bill models.PotentialBill, now time.Time) *models.BillTrackerEntry {
	month := models.MonthKey(bill.DueDate)
	if e := findTrackerEntry(doc, month, bill.BillKey); e != nil {
		e.Excluded = false
		e.UpdatedAt = now
		return e
	}
	doc.BillTracker = append(doc.BillTracker, models.BillTrackerEntry{
		ID:            uuid.New(),
		Month:         month,
		BillKey:       bill.BillKey,
		DueDate:       bill.DueDate,
		Amount:        bill.Amount,
		Description:   bill.Description,
		AutoGenerated: bill.Source != models.SourceManual,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return &doc.BillTracker[len(doc.BillTracker)-1]
}

// ExcludeBill undoes an inclusion. An entry the user created is removed
// outright; an auto-materialized entry shadowing a recurring projection is
// kept with the excluded flag so the projector does not re-surface it for
// the month. Paid bills cannot be excluded.
func ExcludeBill(doc *models.Document, bill models.PotentialBill) error {
	if bill.Paid {
		return ErrPaidBill
	}
	month := models.MonthKey(bill.DueDate)
	for i := range doc.BillTracker {
		e := &doc.BillTracker[i]
		if e.Month != month || e.BillKey != bill.BillKey {
			continue
		}
		if e.AutoGenerated {
			e.Excluded = true
			return nil
		}
		doc.BillTracker = append(doc.BillTracker[:i], doc.BillTracker[i+1:]...)
		return nil
	}
	return nil
}

func findTrackerEntry(doc *models.Document, month string, key models.BillKey) *models.BillTrackerEntry {
	for i := range doc.BillTracker {
		e := &doc.BillTracker[i]
		if e.Month == month && e.BillKey == key {
			return e
		}
	}
	return nil
}

func insuranceInstallmentPaid(doc *models.Document, insuranceID uuid.UUID, installment int) bool {
	for i := range doc.Transactions {
		tx := &doc.Transactions[i]
		if tx.InsuranceID != nil && *tx.InsuranceID == insuranceID && tx.InsuranceInstallment == installment {
			return true
		}
	}
	return false
}

func categorySpentInMonth(doc *models.Document, categoryID uuid.UUID, start, end time.Time) bool {
	for i := range doc.Transactions {
		tx := &doc.Transactions[i]
		if tx.Operation != models.OpExpense || tx.CategoryID == nil || *tx.CategoryID != categoryID {
			continue
		}
		if !tx.Date.Before(start) && tx.Date.Before(end) {
			return true
		}
	}
	return false
}

func monthBounds(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 1, 0)
}

func sortBills(bills []models.PotentialBill) {
	sort.SliceStable(bills, func(a, b int) bool {
		if !bills[a].DueDate.Equal(bills[b].DueDate) {
			return bills[a].DueDate.Before(bills[b].DueDate)
		}
		if bills[a].Source != bills[b].Source {
			return bills[a].Source < bills[b].Source
		}
		return bills[a].Installment < bills[b].Installment
	})
}
