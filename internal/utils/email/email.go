package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/dmaia/ledger-service/internal/config"
	"github.com/dmaia/ledger-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendBillReminder sends a digest of obligations coming due, with the
// month's running totals appended.
func (s *Sender) SendBillReminder(to, name string, bills []models.PotentialBill, summary models.MonthlySummary) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Upcoming Bills: %d due soon", len(bills))

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", name)
	body.WriteString("The following bills are coming due:\n\n")
	now := time.Now()
	for _, b := range bills {
		line := fmt.Sprintf("  %s  %s  %s", b.DueDate.Format("2006-01-02"), b.Amount.StringFixed(2), b.Description)
		if b.DueDate.Before(now) {
			line += "  (OVERDUE)"
		}
		body.WriteString(line + "\n")
	}
	fmt.Fprintf(&body,
		"\nYour month so far (%s):\n"+
			"  Income:  %s\n"+
			"  Expense: %s\n"+
			"  Net:     %s\n",
		summary.Month,
		summary.Income.StringFixed(2),
		summary.Expense.StringFixed(2),
		summary.NetBalance.StringFixed(2),
	)
	body.WriteString("\nPlease ensure sufficient funds are available in your accounts.\n")
	body.WriteString("\nBest regards,\nLedger Service")
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
