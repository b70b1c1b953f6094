package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dmaia/ledger-service/internal/config"
	"github.com/dmaia/ledger-service/internal/handler"
	"github.com/dmaia/ledger-service/internal/integrations/bcb"
	"github.com/dmaia/ledger-service/internal/middleware"
	"github.com/dmaia/ledger-service/internal/service"
	"github.com/dmaia/ledger-service/internal/store"
	emailutil "github.com/dmaia/ledger-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Load the persisted document
	st := store.NewStore(cfg.DataFile, logger)
	doc, err := st.Load()
	if err != nil {
		logger.Fatalf("Failed to load data file: %v", err)
	}

	// Initialize layers
	svc := service.NewService(doc, st, logger, cfg)
	if cfg.SMTPHost != "" {
		svc.SetMailer(emailutil.NewSender(cfg, logger))
	}
	h := handler.NewHandler(svc)
	bcbClient := bcb.NewBCBClient(cfg, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/setup", h.Setup).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Reference rate endpoint for loan configuration
	r.HandleFunc("/market-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := bcbClient.GetReferenceRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get reference rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"monthly_rate": rate})
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	authRouter.HandleFunc("/accounts/{id}/balance", h.AccountBalance).Methods("GET")
	authRouter.HandleFunc("/accounts/{id}/reconcile", h.Reconcile).Methods("GET")
	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/{id}", h.ReplaceTransaction).Methods("PUT")
	authRouter.HandleFunc("/transfers", h.CreateTransfer).Methods("POST")
	authRouter.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	authRouter.HandleFunc("/loans", h.ListLoans).Methods("GET")
	authRouter.HandleFunc("/loans/{id}", h.ConfigureLoan).Methods("PUT")
	authRouter.HandleFunc("/loans/{id}/schedule", h.LoanSchedule).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/progress", h.LoanProgress).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/payments", h.RegisterLoanPayment).Methods("POST")
	authRouter.HandleFunc("/insurances", h.CreateInsurance).Methods("POST")
	authRouter.HandleFunc("/insurances", h.ListInsurances).Methods("GET")
	authRouter.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	authRouter.HandleFunc("/categories", h.ListCategories).Methods("GET")
	authRouter.HandleFunc("/bills", h.BillsForMonth).Methods("GET")
	authRouter.HandleFunc("/bills", h.AddManualBill).Methods("POST")
	authRouter.HandleFunc("/bills/future", h.FutureBills).Methods("GET")
	authRouter.HandleFunc("/bills/toggle", h.ToggleBill).Methods("POST")
	authRouter.HandleFunc("/bills/paid", h.MarkBillPaid).Methods("POST")
	authRouter.HandleFunc("/summary", h.MonthlySummary).Methods("GET")
	authRouter.HandleFunc("/export", h.Export).Methods("GET")
	authRouter.HandleFunc("/import", h.Import).Methods("POST")

	// Daily bill reminder job
	c := cron.New()
	if _, err := c.AddFunc("0 9 * * *", svc.SendDueBillReminders); err != nil {
		logger.Fatalf("Failed to schedule reminder job: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
