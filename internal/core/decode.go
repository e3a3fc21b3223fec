package core

import (
	"fmt"
	"strings"
	"time"
)

// TransactionFromRecord decodes a transaction returned by the store.
// A missing or unparseable date leaves Date zero; chronological views sort
// such entries last.
func TransactionFromRecord(rec Record) (Transaction, error) {
	return TransactionFromRecordIn(rec, time.Local)
}

// TransactionFromRecordIn reads a zone-less transaction_date in loc.
func TransactionFromRecordIn(rec Record, loc *time.Location) (Transaction, error) {
	tx := Transaction{
		ID:    rec.ID(),
		Title: rec.String("title"),
		Notes: rec.String("notes"),
		Type:  TransactionType(strings.ToLower(rec.String("transaction_type"))),
	}
	amount, ok := rec.Decimal("amount")
	if !ok {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, ErrInvalidAmount)
	}
	tx.Amount = amount.Abs()
	if !tx.Type.IsValid() {
		return tx, fmt.Errorf("transaction %s: unknown transaction_type %q", tx.ID, tx.Type)
	}
	if t, ok := rec.TimeIn("transaction_date", loc); ok {
		tx.Date = t
	}
	return tx, nil
}

// SeriesFromRecord decodes an event series returned by the store.
func SeriesFromRecord(rec Record) (Series, error) {
	s := Series{ID: rec.ID(), Name: rec.String("name")}
	if s.ID == "" {
		return s, fmt.Errorf("series without id")
	}
	return s, nil
}
