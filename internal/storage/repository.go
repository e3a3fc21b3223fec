package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tracker/internal/core"
	"tracker/internal/store"

	_ "modernc.org/sqlite"
)

// commonFields are stored in their own columns; everything else an event
// payload carries goes into the details JSON.
var commonFields = map[string]bool{
	"id": true, "kind": true, "title": true, "notes": true, "set_date": true, "series_id": true,
}

// SQLiteRepository is a store.RecordStore backed by SQLite. Variant events
// are returned with their details nested under "<kind>_data".
type SQLiteRepository struct {
	db      *sql.DB
	path    string
	queries *Queries
}

var _ store.RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and the schema state.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	_, err := SchemaVersion(r.path)
	return err
}

func (r *SQLiteRepository) List(ctx context.Context, collection string) ([]core.Record, error) {
	switch {
	case core.IsEventCollection(collection):
		var (
			rows []Event
			err  error
		)
		if collection == core.CollectionEvents {
			rows, err = r.queries.ListEvents(ctx)
		} else {
			kind, _ := core.VariantForCollection(collection)
			rows, err = r.queries.ListEventsByKind(ctx, string(kind))
		}
		if err != nil {
			return nil, transportErr("list", collection, err)
		}
		out := make([]core.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := eventRecord(row)
			if err != nil {
				slog.WarnContext(ctx, "Skipping event with unreadable details", "id", row.ID, "error", err)
				continue
			}
			out = append(out, rec)
		}
		return out, nil

	case collection == core.CollectionTransactions:
		rows, err := r.queries.ListTransactions(ctx)
		if err != nil {
			return nil, transportErr("list", collection, err)
		}
		out := make([]core.Record, len(rows))
		for i, row := range rows {
			out[i] = transactionRecord(row)
		}
		return out, nil

	case collection == core.CollectionSeries:
		rows, err := r.queries.ListEventSeries(ctx)
		if err != nil {
			return nil, transportErr("list", collection, err)
		}
		out := make([]core.Record, len(rows))
		for i, row := range rows {
			out[i] = core.Record{"id": strconv.FormatInt(row.ID, 10), "name": row.Name}
		}
		return out, nil
	}
	return nil, unknownCollection(collection)
}

func (r *SQLiteRepository) Create(ctx context.Context, collection string, payload core.Record) (core.Record, error) {
	var (
		rec core.Record
		err error
	)
	switch {
	case core.IsEventCollection(collection):
		kind, _ := core.VariantForCollection(collection)
		var p CreateEventParams
		p, err = eventParams(string(kind), payload)
		if err != nil {
			return nil, err
		}
		var row Event
		if row, err = r.queries.CreateEvent(ctx, p); err == nil {
			rec, err = eventRecord(row)
		}

	case collection == core.CollectionTransactions:
		var row Transaction
		if row, err = r.queries.CreateTransaction(ctx, transactionParams(0, payload)); err == nil {
			rec = transactionRecord(row)
		}

	case collection == core.CollectionSeries:
		var row EventSeries
		if row, err = r.queries.CreateEventSeries(ctx, strings.TrimSpace(payload.String("name"))); err == nil {
			rec = core.Record{"id": strconv.FormatInt(row.ID, 10), "name": row.Name}
		}

	default:
		return nil, unknownCollection(collection)
	}
	if err != nil {
		return nil, transportErr("create", collection, err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite", "collection", collection, "id", rec.ID())
	return rec, nil
}

// Update replaces a record. Through the base "events" collection only Generic
// rows match.
func (r *SQLiteRepository) Update(ctx context.Context, collection, id string, payload core.Record) (core.Record, error) {
	if collection == core.CollectionSeries {
		return nil, fmt.Errorf("update %s: %w", collection, core.ErrUnsupported)
	}
	if !store.Known(collection) {
		return nil, unknownCollection(collection)
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, &core.NotFoundError{Collection: collection, ID: id}
	}

	var rec core.Record
	if core.IsEventCollection(collection) {
		kind, _ := core.VariantForCollection(collection)
		cp, perr := eventParams(string(kind), payload)
		if perr != nil {
			return nil, perr
		}
		var row Event
		row, err = r.queries.UpdateEvent(ctx, UpdateEventParams{
			ID: rowID, Kind: cp.Kind, Title: cp.Title, Notes: cp.Notes,
			SetDate: cp.SetDate, SeriesID: cp.SeriesID, Details: cp.Details,
		})
		if err == nil {
			rec, err = eventRecord(row)
		}
	} else {
		var row Transaction
		if row, err = r.queries.UpdateTransaction(ctx, transactionParams(rowID, payload)); err == nil {
			rec = transactionRecord(row)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Collection: collection, ID: id}
	}
	if err != nil {
		return nil, transportErr("update", collection, err)
	}

	slog.InfoContext(ctx, "Record updated in SQLite", "collection", collection, "id", id)
	return rec, nil
}

// Delete removes a record. The base "events" collection deletes any kind.
func (r *SQLiteRepository) Delete(ctx context.Context, collection, id string) error {
	if collection == core.CollectionSeries {
		return fmt.Errorf("delete %s: %w", collection, core.ErrUnsupported)
	}
	if !store.Known(collection) {
		return unknownCollection(collection)
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return &core.NotFoundError{Collection: collection, ID: id}
	}

	var n int64
	switch collection {
	case core.CollectionTransactions:
		n, err = r.queries.DeleteTransaction(ctx, rowID)
	case core.CollectionEvents:
		n, err = r.queries.DeleteEvent(ctx, rowID)
	default:
		kind, _ := core.VariantForCollection(collection)
		n, err = r.queries.DeleteEventByKind(ctx, rowID, string(kind))
	}
	if err != nil {
		return transportErr("delete", collection, err)
	}
	if n == 0 {
		return &core.NotFoundError{Collection: collection, ID: id}
	}

	slog.InfoContext(ctx, "Record deleted from SQLite", "collection", collection, "id", id)
	return nil
}

func eventParams(kind string, payload core.Record) (CreateEventParams, error) {
	p := CreateEventParams{
		Kind:  kind,
		Title: payload.String("title"),
		Notes: payload.String("notes"),
	}
	if s := payload.String("set_date"); s != "" {
		p.SetDate = sql.NullString{String: s, Valid: true}
	}
	if sid := core.IDString(payload["series_id"]); sid != "" {
		n, err := strconv.ParseInt(sid, 10, 64)
		if err != nil {
			return p, &core.ValidationError{Field: "series_id", Message: fmt.Sprintf("invalid series id %q", sid)}
		}
		p.SeriesID = sql.NullInt64{Int64: n, Valid: true}
	}

	details := map[string]any{}
	for k, v := range payload {
		if !commonFields[k] {
			details[k] = v
		}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return p, fmt.Errorf("encode event details: %w", err)
	}
	p.Details = string(b)
	return p, nil
}

func eventRecord(row Event) (core.Record, error) {
	rec := core.Record{
		"id":        strconv.FormatInt(row.ID, 10),
		"kind":      row.Kind,
		"title":     row.Title,
		"notes":     row.Notes,
		"set_date":  nil,
		"series_id": nil,
	}
	if row.SetDate.Valid {
		rec["set_date"] = row.SetDate.String
	}
	if row.SeriesID.Valid {
		rec["series_id"] = strconv.FormatInt(row.SeriesID.Int64, 10)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(row.Details)))
	dec.UseNumber()
	details := map[string]any{}
	if err := dec.Decode(&details); err != nil {
		return nil, fmt.Errorf("decode details of event %d: %w", row.ID, err)
	}
	if row.Kind != string(core.Generic) {
		rec[row.Kind+"_data"] = core.Record(details)
		return rec, nil
	}
	for k, v := range details {
		if _, ok := rec[k]; !ok {
			rec[k] = v
		}
	}
	return rec, nil
}

func transactionParams(id int64, payload core.Record) TransactionParams {
	return TransactionParams{
		ID:              id,
		Title:           payload.String("title"),
		Notes:           payload.String("notes"),
		Amount:          payload.String("amount"),
		TransactionType: payload.String("transaction_type"),
		TransactionDate: payload.String("transaction_date"),
	}
}

func transactionRecord(row Transaction) core.Record {
	return core.Record{
		"id":               strconv.FormatInt(row.ID, 10),
		"title":            row.Title,
		"notes":            row.Notes,
		"amount":           row.Amount,
		"transaction_type": row.TransactionType,
		"transaction_date": row.TransactionDate,
	}
}

func transportErr(op, collection string, err error) error {
	return &core.TransportError{Op: op, Collection: collection, Err: err}
}

func unknownCollection(collection string) error {
	return fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
}
