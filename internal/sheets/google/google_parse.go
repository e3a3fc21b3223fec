package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

var ledgerHeader = []any{"Date", "Title", "Type", "Amount", "Notes", "ID"}

const ledgerDateLayout = "2006-01-02"

// ledgerRows renders txs with a header row. Expense amounts are negative.
func ledgerRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, ledgerHeader)
	for _, tx := range txs {
		date := ""
		if !tx.Date.IsZero() {
			date = tx.Date.Format(ledgerDateLayout)
		}
		amount := tx.Amount
		if tx.Type == core.Expense {
			amount = amount.Neg()
		}
		rows = append(rows, []any{date, tx.Title, string(tx.Type), amount.StringFixed(2), tx.Notes, tx.ID})
	}
	return rows
}

// parseLedger is the inverse of ledgerRows. The header row is required.
func parseLedger(values [][]any) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	for i, h := range ledgerHeader {
		if safeGet(headers, i) != h {
			return nil, fmt.Errorf("unexpected ledger header: got %v", headers)
		}
	}

	out := make([]core.Transaction, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		amount, err := decimal.NewFromString(strings.TrimSpace(safeGet(row, 3)))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q", i+1, safeGet(row, 3))
		}
		tx := core.Transaction{
			ID:     safeGet(row, 5),
			Title:  safeGet(row, 1),
			Type:   core.TransactionType(safeGet(row, 2)),
			Amount: amount.Abs(),
			Notes:  safeGet(row, 4),
		}
		if d := safeGet(row, 0); d != "" {
			t, err := time.ParseInLocation(ledgerDateLayout, d, time.Local)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid date %q", i+1, d)
			}
			tx.Date = t
		}
		out = append(out, tx)
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
