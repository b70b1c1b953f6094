package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/ledger"
	"github.com/dmaia/ledger-service/internal/models"
)

// LoanInput carries the contract terms of a loan.
type LoanInput struct {
	Label       string          `json:"label"`
	Principal   decimal.Decimal `json:"principal"`
	Installment decimal.Decimal `json:"installment"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	TermMonths  int             `json:"term_months"`
	StartDate   time.Time       `json:"start_date"`
	AccountID   *uuid.UUID      `json:"account_id,omitempty"`
}

// CreateLoan registers a loan contract. Missing terms leave it in
// pending-configuration; full terms activate it immediately.
func (s *Service) CreateLoan(in LoanInput) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !in.Principal.IsPositive() {
		return nil, fmt.Errorf("principal must be positive")
	}

	now := time.Now()
	loan := models.Loan{
		ID:          uuid.New(),
		Label:       in.Label,
		Principal:   in.Principal,
		Installment: in.Installment,
		MonthlyRate: in.MonthlyRate,
		TermMonths:  in.TermMonths,
		StartDate:   in.StartDate,
		Status:      models.LoanPending,
		AccountID:   in.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if loan.Configured() {
		loan.Status = models.LoanActive
	}
	s.doc.Loans = append(s.doc.Loans, loan)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Loan created: %s (%s)", loan.Label, loan.Status)
	return &loan, nil
}

// ConfigureLoan supplies or corrects a loan's terms. A pending loan with
// complete terms becomes active. Settled loans are immutable.
func (s *Service) ConfigureLoan(id uuid.UUID, in LoanInput) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan := s.findLoan(id)
	if loan == nil {
		return nil, fmt.Errorf("loan %s not found", id)
	}
	if loan.Status == models.LoanSettled {
		return nil, fmt.Errorf("loan %s is settled", id)
	}

	if in.Label != "" {
		loan.Label = in.Label
	}
	if in.Principal.IsPositive() {
		loan.Principal = in.Principal
	}
	if in.Installment.IsPositive() {
		loan.Installment = in.Installment
	}
	if in.MonthlyRate.IsPositive() {
		loan.MonthlyRate = in.MonthlyRate
	}
	if in.TermMonths > 0 {
		loan.TermMonths = in.TermMonths
	}
	if !in.StartDate.IsZero() {
		loan.StartDate = in.StartDate
	}
	if loan.Status == models.LoanPending && loan.Configured() {
		loan.Status = models.LoanActive
	}
	loan.UpdatedAt = time.Now()
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Loan configured: %s (%s)", loan.Label, loan.Status)
	return loan, nil
}

// ListLoans returns all loan contracts
func (s *Service) ListLoans() []models.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Loan, len(s.doc.Loans))
	copy(out, s.doc.Loans)
	return out
}

// LoanSchedule returns the amortization table; empty for loans still
// pending configuration.
func (s *Service) LoanSchedule(id uuid.UUID) ([]models.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan := s.findLoan(id)
	if loan == nil {
		return nil, fmt.Errorf("loan %s not found", id)
	}
	return ledger.Schedule(loan), nil
}

// LoanProgress reports the paid counter alongside the derived outstanding
// balance and the principal/interest totals paid so far.
type LoanProgress struct {
	PaidInstallments   int             `json:"paid_installments"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	AmortizationPaid   decimal.Decimal `json:"amortization_paid"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
}

// LoanProgressAsOf summarizes how far along a loan is at the given date.
func (s *Service) LoanProgressAsOf(id uuid.UUID, date time.Time) (*LoanProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan := s.findLoan(id)
	if loan == nil {
		return nil, fmt.Errorf("loan %s not found", id)
	}
	paid := ledger.PaidInstallmentsAsOf(loan, date)
	amort, interest := ledger.AmortizationAndInterestThrough(loan, loan.PaidInstallments)
	return &LoanProgress{
		PaidInstallments:   paid,
		OutstandingBalance: ledger.OutstandingBalance(loan),
		AmortizationPaid:   amort,
		InterestPaid:       interest,
	}, nil
}

// RegisterLoanPayment marks the next installment paid, appends the
// loan-payment transaction leg on the paying account and settles the loan
// once the counter reaches the term. One logical unit, one save.
func (s *Service) RegisterLoanPayment(loanID, accountID uuid.UUID, date time.Time) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan := s.findLoan(loanID)
	if loan == nil {
		return nil, fmt.Errorf("loan %s not found", loanID)
	}
	if loan.Status != models.LoanActive {
		return nil, fmt.Errorf("loan %s is not active", loanID)
	}
	if s.findAccount(accountID) == nil {
		return nil, fmt.Errorf("unknown account %s", accountID)
	}

	now := time.Now()
	loan.PaidInstallments++
	loan.UpdatedAt = now
	if loan.PaidInstallments >= loan.TermMonths {
		loan.Status = models.LoanSettled
	}

	s.doc.Transactions = append(s.doc.Transactions, models.Transaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		Date:            date,
		Amount:          loan.Installment,
		Operation:       models.OpLoanPayment,
		Flow:            models.FlowOut,
		Description:     fmt.Sprintf("%s %d/%d", loan.Label, loan.PaidInstallments, loan.TermMonths),
		LoanID:          &loan.ID,
		LoanInstallment: loan.PaidInstallments,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err := s.persist(); err != nil {
		loan.PaidInstallments--
		if loan.Status == models.LoanSettled {
			loan.Status = models.LoanActive
		}
		s.doc.Transactions = s.doc.Transactions[:len(s.doc.Transactions)-1]
		return nil, err
	}

	s.log.Infof("Loan payment registered: %s %d/%d", loan.Label, loan.PaidInstallments, loan.TermMonths)
	return loan, nil
}

func (s *Service) findLoan(id uuid.UUID) *models.Loan {
	for i := range s.doc.Loans {
		if s.doc.Loans[i].ID == id {
			return &s.doc.Loans[i]
		}
	}
	return nil
}
