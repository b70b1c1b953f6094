package models

import "github.com/shopspring/decimal"

// MonthlySummary represents income and expense statistics for one month
type MonthlySummary struct {
	Month      string          `json:"month"` // YYYY-MM
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

// ObligationBurden represents the recurring-obligation load for one month
type ObligationBurden struct {
	MonthlyObligations decimal.Decimal `json:"monthly_obligations"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	BurdenRatio        decimal.Decimal `json:"burden_ratio"` // MonthlyObligations / TotalBalance
}
