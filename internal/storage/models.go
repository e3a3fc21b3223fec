package storage

import "database/sql"

type Event struct {
	ID       int64
	Kind     string
	Title    string
	Notes    string
	SetDate  sql.NullString
	SeriesID sql.NullInt64
	Details  string
}

type Transaction struct {
	ID              int64
	Title           string
	Notes           string
	Amount          string
	TransactionType string
	TransactionDate string
}

type EventSeries struct {
	ID   int64
	Name string
}
