package core

import "github.com/shopspring/decimal"

// LedgerTotals aggregates a set of transactions by direction.
type LedgerTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Summarize totals income and expenses; Net is income minus expenses.
func Summarize(txs []Transaction) LedgerTotals {
	var t LedgerTotals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}
