// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Категории ошибок домена. Конкретные ошибки оборачивают их через %w,
// поэтому на границах (HTTP, gRPC) достаточно errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrDecode     = errors.New("decode failed")
)

// ValidationError описывает нарушенное правило для конкретного поля.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DecodeError возвращается, когда значение колонки не сопоставляется ни одной
// доменной константе. Означает рассинхрон схемы и данных, повторять бессмысленно.
type DecodeError struct {
	Column string
	Value  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode column %s: unrecognized value %q", e.Column, e.Value)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }
