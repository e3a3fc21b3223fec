package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("record not found")
	ErrTransport               = errors.New("transport failure")
	ErrClassificationAmbiguity = errors.New("ambiguous event classification")
	ErrVariantMismatch         = errors.New("event variant cannot change")
	ErrBusy                    = errors.New("action already in flight")
	ErrNotConfirmed            = errors.New("delete not confirmed")
	ErrUnsupported             = errors.New("operation not supported")
	ErrInvalidAmount           = errors.New("invalid amount")
)

// ValidationError is a client-side precondition failure. No write is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports that the store has no record with the given id.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Collection, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransportError wraps a failure surfaced by the store collaborator.
type TransportError struct {
	Op         string
	Collection string
	Status     int // HTTP status when known
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Collection)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// VariantMismatchError rejects an update that would change an event's variant.
type VariantMismatchError struct {
	ID        string
	Current   Variant
	Requested Variant
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("event %s is %s, cannot update as %s", e.ID, e.Current, e.Requested)
}

func (e *VariantMismatchError) Unwrap() []error {
	return []error{ErrVariantMismatch, ErrValidation}
}
