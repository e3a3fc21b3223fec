// This file builds JSON responses and maps domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/services"
)

// HeaderStale is set when a write committed but the views could not be
// reloaded, so the response reflects the previous views.
const HeaderStale = "X-Views-Stale"

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Stale marks the response as built from views older than the write.
func (b *JSONResponseBuilder) Stale(stale bool) *JSONResponseBuilder {
	if stale {
		b.headers[HeaderStale] = "true"
	}
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse maps err to a status and a JSON error body.
func ErrorResponse(err error) *JSONResponseBuilder {
	status, code := classifyError(err)
	body := errorBody{Error: err.Error(), Code: code}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	b := NewJSONResponse().Status(status).Body(body)
	if status == http.StatusMethodNotAllowed {
		b.Header("Allow", "GET, POST")
	}
	return b
}

// classifyError orders the checks so the most specific sentinel wins; a
// variant mismatch is also a validation error.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, core.ErrVariantMismatch):
		return http.StatusConflict, "variant_mismatch"
	case errors.Is(err, core.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, core.ErrNotConfirmed):
		return http.StatusPreconditionRequired, "not_confirmed"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrUnsupported):
		return http.StatusMethodNotAllowed, "unsupported"
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway, "transport"
	}
	return http.StatusInternalServerError, "internal"
}

// errorTypeOf names the error class for logs.
func errorTypeOf(err error) string {
	switch _, code := classifyError(err); code {
	case "validation", "variant_mismatch", "bad_request":
		return log.ErrorTypeValidation
	case "busy":
		return log.ErrorTypeConflict
	case "not_found":
		return log.ErrorTypeNotFound
	case "transport":
		return log.ErrorTypeTransport
	}
	return log.ErrorTypeInternal
}

// splitRefresh separates a committed-but-not-reloaded write from a failure.
func splitRefresh(err error) (stale bool, rest error) {
	var re *services.RefreshError
	if errors.As(err, &re) {
		return true, nil
	}
	return false, err
}

// mutationBody answers every successful write.
type mutationBody struct {
	ID      string `json:"id,omitempty"`
	Version uint64 `json:"version"`
	Stale   bool   `json:"stale"`
}
