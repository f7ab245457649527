// Package apierror provides standardized error response structures for the API
// and the domain error taxonomy. All errors returned to clients go through this
// package to ensure consistency and to prevent leaking internal details
// (stack traces, DB errors, etc.).
package apierror

import "errors"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ── Domain error taxonomy ────────────────────────────────────────────────────
// Four classes, mapped by the error handler middleware:
//   Validacion      → 422  caller mistake, retrying unchanged will not help
//   Almacenamiento  → 500  local store failure
//   Sincronizacion  → 503  transient network/remote failure, retry later
//   Conflicto       → 409  reconciliation conflict during replication

var (
	ErrValidacion     = errors.New("validacion")
	ErrAlmacenamiento = errors.New("almacenamiento")
	ErrSincronizacion = errors.New("sincronizacion")
	ErrConflicto      = errors.New("conflicto")
)

// DomainError pairs a taxonomy class with a human-readable detail.
type DomainError struct {
	Clase  error // one of the Err* sentinels above
	Detail string
}

func (e *DomainError) Error() string { return e.Detail }
func (e *DomainError) Unwrap() error { return e.Clase }

func Validacion(detail string) *DomainError {
	return &DomainError{Clase: ErrValidacion, Detail: detail}
}

func Almacenamiento(detail string) *DomainError {
	return &DomainError{Clase: ErrAlmacenamiento, Detail: detail}
}

func Sincronizacion(detail string) *DomainError {
	return &DomainError{Clase: ErrSincronizacion, Detail: detail}
}

func Conflicto(detail string) *DomainError {
	return &DomainError{Clase: ErrConflicto, Detail: detail}
}
