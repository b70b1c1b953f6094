package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmaia/ledger-service/internal/config"
	"github.com/dmaia/ledger-service/internal/ledger"
	"github.com/dmaia/ledger-service/internal/models"
	"github.com/dmaia/ledger-service/internal/store"
)

// Mailer sends bill reminder digests. Satisfied by utils/email.Sender.
type Mailer interface {
	SendBillReminder(to, name string, bills []models.PotentialBill, summary models.MonthlySummary) error
}

// Service handles business logic. It owns the in-memory document, guards
// it for the HTTP layer and persists it after every mutation; all derived
// views are recomputed from the document on each query.
type Service struct {
	mu     sync.RWMutex
	doc    *models.Document
	store  *store.Store
	log    *logrus.Logger
	config *config.Config
	mailer Mailer
}

// NewService initializes a new service
func NewService(doc *models.Document, st *store.Store, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{doc: doc, store: st, log: log, config: cfg}
}

// SetMailer wires the reminder sender; without one reminders are logged
// and dropped.
func (s *Service) SetMailer(m Mailer) {
	s.mailer = m
}

// persist saves the document after a mutation. Callers hold the write lock.
func (s *Service) persist() error {
	if err := s.store.Save(s.doc); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	return nil
}

// Setup creates the owner profile with a hashed password. The service is
// single-profile; running setup twice is rejected.
func (s *Service) Setup(name, email, password string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Profile != nil {
		return nil, fmt.Errorf("profile already configured")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.doc.Profile = &models.Profile{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Profile configured: %s", email)
	return s.doc.Profile, nil
}

// Login authenticates the owner and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	s.mu.RLock()
	profile := s.doc.Profile
	s.mu.RUnlock()

	if profile == nil || profile.Email != email {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   profile.Email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Profile logged in: %s", email)
	return tokenString, nil
}

// CreateAccount creates a new tracked account
func (s *Service) CreateAccount(name string, kind models.AccountKind, opening decimal.Decimal, openedAt time.Time, hidden bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	account := models.Account{
		ID:             uuid.New(),
		Name:           name,
		Kind:           kind,
		OpeningBalance: opening,
		OpenedAt:       openedAt,
		Hidden:         hidden,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.doc.Accounts = append(s.doc.Accounts, account)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Account created: %s (%s)", account.Name, account.Kind)
	return &account, nil
}

// ListAccounts returns all accounts, hidden ones included; filtering is a
// presentation concern.
func (s *Service) ListAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, len(s.doc.Accounts))
	copy(out, s.doc.Accounts)
	return out
}

// BalanceAsOf answers the account balance strictly before cutoff; a nil
// cutoff means the current balance.
func (s *Service) BalanceAsOf(accountID uuid.UUID, cutoff *time.Time) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.BalanceAsOf(s.doc, accountID, cutoff)
}

// TransactionInput carries the fields of a new or replacement transaction.
type TransactionInput struct {
	AccountID            uuid.UUID            `json:"account_id"`
	Date                 time.Time            `json:"date"`
	Amount               decimal.Decimal      `json:"amount"`
	Operation            models.OperationType `json:"operation"`
	Flow                 models.FlowDirection `json:"flow"`
	Description          string               `json:"description"`
	CategoryID           *uuid.UUID           `json:"category_id,omitempty"`
	LoanID               *uuid.UUID           `json:"loan_id,omitempty"`
	LoanInstallment      int                  `json:"loan_installment,omitempty"`
	InsuranceID          *uuid.UUID           `json:"insurance_id,omitempty"`
	InsuranceInstallment int                  `json:"insurance_installment,omitempty"`
	InvestmentAccountID  *uuid.UUID           `json:"investment_account_id,omitempty"`
}

func (s *Service) validateTransaction(in *TransactionInput) error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if !models.ValidFlow(in.Operation, in.Flow) {
		return fmt.Errorf("flow %q is not valid for operation %q", in.Flow, in.Operation)
	}
	if acc := s.findAccount(in.AccountID); acc == nil {
		return fmt.Errorf("unknown account %s", in.AccountID)
	}
	return nil
}

// AppendTransaction appends one transaction to the log. A loan disbursement
// without a loan reference creates the loan in pending-configuration, to be
// activated once terms are supplied.
func (s *Service) AppendTransaction(in TransactionInput) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransaction(&in); err != nil {
		return nil, err
	}

	now := time.Now()
	tx := s.newTransaction(&in, now)

	if in.Operation == models.OpLoanDisbursement && in.LoanID == nil {
		loan := models.Loan{
			ID:        uuid.New(),
			Label:     in.Description,
			Principal: in.Amount,
			Status:    models.LoanPending,
			AccountID: &in.AccountID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.doc.Loans = append(s.doc.Loans, loan)
		tx.LoanID = &loan.ID
		s.log.Infof("Loan created pending configuration from disbursement: %s", loan.Label)
	}

	s.doc.Transactions = append(s.doc.Transactions, tx)
	if err := s.persist(); err != nil {
		return nil, err
	}

	s.log.Infof("Transaction appended: %s %s on account %s", tx.Operation, tx.Amount, tx.AccountID)
	return &s.doc.Transactions[len(s.doc.Transactions)-1], nil
}

// ReplaceTransaction replaces the record under the same id with a new
// immutable value. History is never mutated in place.
func (s *Service) ReplaceTransaction(id uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransaction(&in); err != nil {
		return nil, err
	}

	for i := range s.doc.Transactions {
		if s.doc.Transactions[i].ID != id {
			continue
		}
		tx := s.newTransaction(&in, time.Now())
		tx.ID = id
		tx.CreatedAt = s.doc.Transactions[i].CreatedAt
		tx.TransferGroupID = s.doc.Transactions[i].TransferGroupID
		s.doc.Transactions[i] = tx
		if err := s.persist(); err != nil {
			return nil, err
		}
		s.log.Infof("Transaction replaced: %s", id)
		return &s.doc.Transactions[i], nil
	}
	return nil, fmt.Errorf("transaction %s not found", id)
}

func (s *Service) newTransaction(in *TransactionInput, now time.Time) models.Transaction {
	return models.Transaction{
		ID:                   uuid.New(),
		AccountID:            in.AccountID,
		Date:                 in.Date,
		Amount:               in.Amount,
		Operation:            in.Operation,
		Flow:                 in.Flow,
		Description:          in.Description,
		CategoryID:           in.CategoryID,
		LoanID:               in.LoanID,
		LoanInstallment:      in.LoanInstallment,
		InsuranceID:          in.InsuranceID,
		InsuranceInstallment: in.InsuranceInstallment,
		InvestmentAccountID:  in.InvestmentAccountID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Transfer materializes both legs of a transfer as one logical unit under a
// shared transfer-group id; a partial failure never leaves one leg missing.
func (s *Service) Transfer(fromID, toID uuid.UUID, amount decimal.Decimal, date time.Time, description string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if fromID == toID {
		return nil, fmt.Errorf("transfer requires two distinct accounts")
	}
	if s.findAccount(fromID) == nil {
		return nil, fmt.Errorf("unknown account %s", fromID)
	}
	if s.findAccount(toID) == nil {
		return nil, fmt.Errorf("unknown account %s", toID)
	}

	now := time.Now()
	group := uuid.New()
	legs := []models.Transaction{
		{
			ID: uuid.New(), AccountID: fromID, Date: date, Amount: amount,
			Operation: models.OpTransfer, Flow: models.FlowTransferOut,
			Description: description, TransferGroupID: &group,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New(), AccountID: toID, Date: date, Amount: amount,
			Operation: models.OpTransfer, Flow: models.FlowTransferIn,
			Description: description, TransferGroupID: &group,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	s.doc.Transactions = append(s.doc.Transactions, legs...)
	if err := s.persist(); err != nil {
		// the blob on disk is untouched on failure; drop both legs so
		// memory matches it
		s.doc.Transactions = s.doc.Transactions[:len(s.doc.Transactions)-2]
		return nil, err
	}

	s.log.Infof("Transfer of %s from %s to %s (group %s)", amount, fromID, toID, group)
	return legs, nil
}

func (s *Service) findAccount(id uuid.UUID) *models.Account {
	for i := range s.doc.Accounts {
		if s.doc.Accounts[i].ID == id {
			return &s.doc.Accounts[i]
		}
	}
	return nil
}

// MonthlySummary sums income and expense operations for the month of ref
func (s *Service) MonthlySummary(ref time.Time) models.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0)
	sum := models.MonthlySummary{Month: models.MonthKey(start)}
	for i := range s.doc.Transactions {
		tx := &s.doc.Transactions[i]
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		switch tx.Operation {
		case models.OpIncome, models.OpYield:
			sum.Income = sum.Income.Add(tx.Amount)
		case models.OpExpense:
			sum.Expense = sum.Expense.Add(tx.Amount)
		}
	}
	sum.NetBalance = sum.Income.Sub(sum.Expense)
	return sum
}

// ExportDocument serializes the full persisted state
func (s *Service) ExportDocument() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Export(s.doc)
}

// ImportDocument replaces the in-memory state with a previously exported
// blob and persists it.
func (s *Service) ImportDocument(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Import(data)
	if err != nil {
		return err
	}
	old := s.doc
	s.doc = doc
	if err := s.persist(); err != nil {
		s.doc = old
		return err
	}
	s.log.Infof("Document imported: %d accounts, %d transactions", len(doc.Accounts), len(doc.Transactions))
	return nil
}
