package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/models"
	"github.com/dmaia/ledger-service/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// Setup handles first-run profile creation
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	profile, err := h.svc.Setup(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusConflict, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"name": profile.Name, "email": profile.Email})
}

// Login handles owner authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string             `json:"name"`
		Kind           models.AccountKind `json:"kind"`
		OpeningBalance decimal.Decimal    `json:"opening_balance"`
		OpenedAt       time.Time          `json:"opened_at"`
		Hidden         bool               `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	account, err := h.svc.CreateAccount(req.Name, req.Kind, req.OpeningBalance, req.OpenedAt, req.Hidden)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

// ListAccounts returns all accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListAccounts())
}

// AccountBalance answers the balance query, optionally as of ?at=YYYY-MM-DD.
// Unknown accounts answer zero, never an error.
func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var cutoff *time.Time
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse("2006-01-02", at)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		cutoff = &t
	}
	balance := h.svc.BalanceAsOf(id, cutoff)
	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// CreateTransaction appends one transaction to the log
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in service.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := h.svc.AppendTransaction(in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

// ReplaceTransaction replaces a transaction record by id
func (h *Handler) ReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var in service.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := h.svc.ReplaceTransaction(id, in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// CreateTransfer materializes both legs of a transfer
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID uuid.UUID       `json:"from_account_id"`
		ToAccountID   uuid.UUID       `json:"to_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		Date          time.Time       `json:"date"`
		Description   string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	legs, err := h.svc.Transfer(req.FromAccountID, req.ToAccountID, req.Amount, req.Date, req.Description)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, legs)
}

// CreateLoan registers a loan contract
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var in service.LoanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	loan, err := h.svc.CreateLoan(in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, loan)
}

// ConfigureLoan supplies or corrects loan terms
func (h *Handler) ConfigureLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var in service.LoanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	loan, err := h.svc.ConfigureLoan(id, in)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// ListLoans returns all loan contracts
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListLoans())
}

// LoanSchedule returns the amortization table
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sched, err := h.svc.LoanSchedule(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

// LoanProgress reports paid installments and outstanding balance
func (h *Handler) LoanProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	progress, err := h.svc.LoanProgressAsOf(id, time.Now())
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// RegisterLoanPayment marks the next installment paid
func (h *Handler) RegisterLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		AccountID uuid.UUID `json:"account_id"`
		Date      time.Time `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	loan, err := h.svc.RegisterLoanPayment(id, req.AccountID, req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, loan)
}

// CreateInsurance registers an insurance contract
func (h *Handler) CreateInsurance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label        string          `json:"label"`
		Installments int             `json:"installments"`
		Amount       decimal.Decimal `json:"amount"`
		StartDate    time.Time       `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	ins, err := h.svc.CreateInsurance(req.Label, req.Installments, req.Amount, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, ins)
}

// ListInsurances returns all insurance contracts
func (h *Handler) ListInsurances(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListInsurances())
}

// CreateCategory registers a spending category
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		Fixed         bool            `json:"fixed"`
		TypicalAmount decimal.Decimal `json:"typical_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	cat, err := h.svc.CreateCategory(req.Name, req.Fixed, req.TypicalAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, cat)
}

// ListCategories returns all spending categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListCategories())
}

// parseMonth reads ?month=YYYY-MM, defaulting to the current month.
func parseMonth(r *http.Request) (time.Time, error) {
	if m := r.URL.Query().Get("month"); m != "" {
		return time.Parse("2006-01", m)
	}
	return time.Now(), nil
}

// BillsForMonth projects the month's potential bills
func (h *Handler) BillsForMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, h.svc.BillsForMonth(month))
}

// FutureBills projects the coming months' unpaid obligations
func (h *Handler) FutureBills(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, h.svc.FutureBills(month))
}

// ToggleBill flips a bill's inclusion for its month
func (h *Handler) ToggleBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month string         `json:"month"` // YYYY-MM
		Key   models.BillKey `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.ToggleBillInclusion(month, req.Key); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}

// AddManualBill records an ad-hoc bill
func (h *Handler) AddManualBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DueDate     time.Time       `json:"due_date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := h.svc.AddManualBill(req.DueDate, req.Description, req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// MarkBillPaid sets or clears the manual paid flag
func (h *Handler) MarkBillPaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month string         `json:"month"` // YYYY-MM
		Key   models.BillKey `json:"key"`
		Paid  bool           `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.MarkBillPaid(month, req.Key, req.Paid); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Reconcile compares the ledger against a stated statement balance.
// Query params: month (YYYY-MM, optional), opening, closing.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var from, to *time.Time
	if m := r.URL.Query().Get("month"); m != "" {
		start, err := time.Parse("2006-01", m)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		end := start.AddDate(0, 1, 0)
		from, to = &start, &end
	}

	parseAmount := func(key string) (*decimal.Decimal, error) {
		v := r.URL.Query().Get(key)
		if v == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		return &d, nil
	}
	opening, err := parseAmount("opening")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	closing, err := parseAmount("closing")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	respondJSON(w, http.StatusOK, h.svc.Reconcile(id, from, to, opening, closing))
}

// MonthlySummary returns income/expense totals for a month
func (h *Handler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, h.svc.MonthlySummary(month))
}

// Export returns the full persisted document
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportDocument()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=ledger.json")
	w.Write(data)
}

// Import replaces the document with an uploaded blob
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.ImportDocument(data); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
