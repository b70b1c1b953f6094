package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaia/ledger-service/internal/ledger"
	"github.com/dmaia/ledger-service/internal/models"
)

// Reconcile compares the ledger against a bank statement for one account.
// All window and statement arguments are optional.
func (s *Service) Reconcile(accountID uuid.UUID, from, to *time.Time, statedOpening, statedClosing *decimal.Decimal) models.Reconciliation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := ledger.Reconcile(s.doc, accountID, from, to, statedOpening, statedClosing)
	if res.Status == models.ReconcileWarning || res.Status == models.ReconcileError {
		s.log.Warnf("Reconciliation divergence on account %s: %s (%s)", accountID, res.Divergence, res.Status)
	}
	return res
}
