package service

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/access"
	"taskboard/internal/position"
	"taskboard/internal/store"
)

// Service errors. Handlers map them to status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrReindexFailed = errors.New("reindex failed")
	ErrStorage       = errors.New("storage error")
)

// Retryable reports whether the caller may safely repeat the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrReindexFailed)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func forbidden(action access.Action) error {
	return fmt.Errorf("%w: %s", ErrForbidden, action)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// classify turns whatever a transaction returned into the service taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrReindexFailed), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, position.ErrExhaustedSpace):
		return fmt.Errorf("%w: %v", ErrReindexFailed, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
