package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/ledger"
	"github.com/dmaia/ledger-service/internal/models"
)

// CreateInsurance registers an insurance contract
func (s *Service) CreateInsurance(label string, installments int, amount decimal.Decimal, startDate time.Time) (*models.Insurance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ins := models.Insurance{
		ID:           uuid.New(),
		Label:        label,
		Installments: installments,
		Amount:       amount,
		StartDate:    startDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.doc.Insurances = append(s.doc.Insurances, ins)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Insurance created: %s (%d installments)", ins.Label, ins.Installments)
	return &ins, nil
}

// ListInsurances returns all insurance contracts
func (s *Service) ListInsurances() []models.Insurance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Insurance, len(s.doc.Insurances))
	copy(out, s.doc.Insurances)
	return out
}

// CreateCategory registers a spending category; fixed categories recur
// monthly and feed the projector.
func (s *Service) CreateCategory(name string, fixed bool, typical decimal.Decimal) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cat := models.Category{
		ID:            uuid.New(),
		Name:          name,
		Fixed:         fixed,
		TypicalAmount: typical,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.doc.Categories = append(s.doc.Categories, cat)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Category created: %s (fixed=%v)", cat.Name, cat.Fixed)
	return &cat, nil
}

// ListCategories returns all spending categories
func (s *Service) ListCategories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.doc.Categories))
	copy(out, s.doc.Categories)
	return out
}

// BillsForMonth projects the potential bills of the month containing ref.
func (s *Service) BillsForMonth(ref time.Time) []models.PotentialBill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.PotentialBillsForMonth(s.doc, ref)
}

// FutureBills projects the unpaid obligations of the coming months.
func (s *Service) FutureBills(ref time.Time) []models.PotentialBill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.FutureBills(s.doc, ref)
}

// ToggleBillInclusion flips a projected bill in or out of the month's
// tracker. The bill is located by its composite key within the month.
func (s *Service) ToggleBillInclusion(ref time.Time, key models.BillKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := ledger.PotentialBillsForMonth(s.doc, ref)
	for _, b := range bills {
		if b.BillKey != key {
			continue
		}
		if err := ledger.ToggleBill(s.doc, b, time.Now()); err != nil {
			return err
		}
		if err := s.persist(); err != nil {
			return err
		}
		s.log.Infof("Bill toggled: %s/%s #%d (included=%v)", key.Source, key.Ref, key.Installment, !b.Included)
		return nil
	}
	return fmt.Errorf("bill not found for %s", models.MonthKey(ref))
}

// AddManualBill records an ad-hoc obligation for one month. Manual bills
// are always included until excluded.
func (s *Service) AddManualBill(due time.Time, description string, amount decimal.Decimal) (*models.BillTrackerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	now := time.Now()
	entry := models.BillTrackerEntry{
		ID:    uuid.New(),
		Month: models.MonthKey(due),
		BillKey: models.BillKey{
			Source: models.SourceManual,
			Ref:    uuid.New(),
		},
		DueDate:     due,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.doc.BillTracker = append(s.doc.BillTracker, entry)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Manual bill added: %s (%s)", entry.Description, entry.Month)
	return &entry, nil
}

// MarkBillPaid sets or clears the manual paid flag on a bill's tracker
// entry. When the bill only existed as a projection the entry is
// materialized as system-created, so excluding it later shadows it rather
// than removing it.
func (s *Service) MarkBillPaid(ref time.Time, key models.BillKey, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := ledger.PotentialBillsForMonth(s.doc, ref)
	for _, b := range bills {
		if b.BillKey != key {
			continue
		}
		now := time.Now()
		entry := ledger.MaterializeBill(s.doc, b, now)
		entry.Paid = paid
		entry.UpdatedAt = now
		if err := s.persist(); err != nil {
			return err
		}
		s.log.Infof("Bill marked paid=%v: %s/%s #%d", paid, key.Source, key.Ref, key.Installment)
		return nil
	}
	return fmt.Errorf("bill not found for %s", models.MonthKey(ref))
}

// DueBillReminders returns the included, unpaid bills of the current month
// coming due within the configured horizon.
func (s *Service) DueBillReminders(now time.Time) []models.PotentialBill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	horizon := now.AddDate(0, 0, s.config.ReminderDays)
	var due []models.PotentialBill
	for _, b := range ledger.PotentialBillsForMonth(s.doc, now) {
		if !b.Included || b.Paid {
			continue
		}
		if b.DueDate.After(horizon) {
			continue
		}
		due = append(due, b)
	}
	return due
}

// SendDueBillReminders emails the owner a digest of obligations coming due.
// Invoked by the daily cron job.
func (s *Service) SendDueBillReminders() {
	now := time.Now()
	due := s.DueBillReminders(now)
	if len(due) == 0 {
		return
	}

	s.mu.RLock()
	profile := s.doc.Profile
	s.mu.RUnlock()

	if profile == nil || profile.Email == "" || s.mailer == nil {
		s.log.Infof("%d bills due, no reminder target configured", len(due))
		return
	}
	if err := s.mailer.SendBillReminder(profile.Email, profile.Name, due, s.MonthlySummary(now)); err != nil {
		s.log.Errorf("Failed to send bill reminder: %v", err)
		return
	}
	s.log.Infof("Bill reminder sent: %d bills due", len(due))
}
