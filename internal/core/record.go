package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the raw JSON object exchanged with the record store.
type Record map[string]any

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// ID returns the record id normalised to a string.
func (r Record) ID() string {
	return IDString(r["id"])
}

// String returns the value at key when it is a string.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64, int, int64:
		return IDString(v)
	}
	return ""
}

// Bool accepts JSON booleans and their common string spellings.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Map returns the nested object at key, or nil.
func (r Record) Map(key string) Record {
	switch v := r[key].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	}
	return nil
}

// Time parses the timestamp at key. ok is false when it is missing or unparseable.
func (r Record) Time(key string) (time.Time, bool) {
	return r.TimeIn(key, time.Local)
}

// TimeIn is Time with zone-less timestamps read in loc.
func (r Record) TimeIn(key string, loc *time.Location) (time.Time, bool) {
	switch v := r[key].(type) {
	case string:
		return ParseTimestampIn(v, loc)
	case time.Time:
		return v, !v.IsZero()
	}
	return time.Time{}, false
}

// Decimal parses a decimal held as a JSON string or number.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	switch v := r[key].(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case decimal.Decimal:
		return v, true
	}
	return decimal.Decimal{}, false
}

// Clone returns a deep copy of nested records so stores never share maps
// with their callers.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		switch nested := v.(type) {
		case Record:
			out[k] = nested.Clone()
		case map[string]any:
			out[k] = Record(nested).Clone()
		default:
			out[k] = v
		}
	}
	return out
}

// IDString renders an id value (string or JSON number) as a string.
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case json.Number:
		return id.String()
	}
	return ""
}
