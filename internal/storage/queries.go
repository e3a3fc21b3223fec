package storage

import (
	"context"
	"database/sql"
)

const eventColumns = `id, kind, title, notes, set_date, series_id, details`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Kind, &e.Title, &e.Notes, &e.SetDate, &e.SeriesID, &e.Details)
	return e, err
}

const listEvents = `SELECT ` + eventColumns + ` FROM events ORDER BY id`

func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

const listEventsByKind = `SELECT ` + eventColumns + ` FROM events WHERE kind = ? ORDER BY id`

func (q *Queries) ListEventsByKind(ctx context.Context, kind string) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEventsByKind, kind)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const createEvent = `INSERT INTO events (kind, title, notes, set_date, series_id, details)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns

type CreateEventParams struct {
	Kind     string
	Title    string
	Notes    string
	SetDate  sql.NullString
	SeriesID sql.NullInt64
	Details  string
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent, arg.Kind, arg.Title, arg.Notes, arg.SetDate, arg.SeriesID, arg.Details)
	return scanEvent(row)
}

const updateEvent = `UPDATE events
SET title = ?, notes = ?, set_date = ?, series_id = ?, details = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND kind = ?
RETURNING ` + eventColumns

type UpdateEventParams struct {
	ID       int64
	Kind     string
	Title    string
	Notes    string
	SetDate  sql.NullString
	SeriesID sql.NullInt64
	Details  string
}

// UpdateEvent returns sql.ErrNoRows when no row of that kind has the id.
func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, updateEvent, arg.Title, arg.Notes, arg.SetDate, arg.SeriesID, arg.Details, arg.ID, arg.Kind)
	return scanEvent(row)
}

const deleteEvent = `DELETE FROM events WHERE id = ?`

func (q *Queries) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEventByKind = `DELETE FROM events WHERE id = ? AND kind = ?`

func (q *Queries) DeleteEventByKind(ctx context.Context, id int64, kind string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventByKind, id, kind)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionColumns = `id, title, notes, amount, transaction_type, transaction_date`

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Title, &t.Notes, &t.Amount, &t.TransactionType, &t.TransactionDate)
	return t, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const createTransaction = `INSERT INTO transactions (title, notes, amount, transaction_type, transaction_date)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type TransactionParams struct {
	ID              int64 // ignored on create
	Title           string
	Notes           string
	Amount          string
	TransactionType string
	TransactionDate string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Title, arg.Notes, arg.Amount, arg.TransactionType, arg.TransactionDate)
	return scanTransaction(row)
}

const updateTransaction = `UPDATE transactions
SET title = ?, notes = ?, amount = ?, transaction_type = ?, transaction_date = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + transactionColumns

// UpdateTransaction returns sql.ErrNoRows when the id does not exist.
func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction, arg.Title, arg.Notes, arg.Amount, arg.TransactionType, arg.TransactionDate, arg.ID)
	return scanTransaction(row)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listEventSeries = `SELECT id, name FROM event_series ORDER BY id`

func (q *Queries) ListEventSeries(ctx context.Context) ([]EventSeries, error) {
	rows, err := q.db.QueryContext(ctx, listEventSeries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventSeries
	for rows.Next() {
		var s EventSeries
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const createEventSeries = `INSERT INTO event_series (name) VALUES (?) RETURNING id, name`

func (q *Queries) CreateEventSeries(ctx context.Context, name string) (EventSeries, error) {
	var s EventSeries
	err := q.db.QueryRowContext(ctx, createEventSeries, name).Scan(&s.ID, &s.Name)
	return s, err
}
