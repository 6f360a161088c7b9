package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// StoreErrorMessage describes relational store failures.
	StoreErrorMessage = "store operation failed"
	// StoreBusyMessage is used when the database is locked by another writer.
	StoreBusyMessage = "store is busy"
)

// Reason codes attached to infrastructure errors. Domain reasons come from
// the caller through WithReason.
const (
	ReasonStoreBusy   = "store_busy"
	ReasonStoreFailed = "persistence_failed"
)

// AppError wraps an underlying error with an HTTP status, a safe message and
// an optional domain reason code.
type AppError struct {
	Err     error
	Status  int
	Message string
	Reason  string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WithReason attaches a reason code and returns the same error.
func (e *AppError) WithReason(reason string) *AppError {
	e.Reason = reason
	return e
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapStore maps relational store errors. SQLITE_BUSY becomes 503 so callers
// can retry.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return err
	}
	if IsBusy(err) {
		return New(err, http.StatusServiceUnavailable, StoreBusyMessage).WithReason(ReasonStoreBusy)
	}
	return New(err, http.StatusInternalServerError, StoreErrorMessage).WithReason(ReasonStoreFailed)
}

// IsBusy reports whether err is a sqlite lock contention error.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var app *AppError
	if errors.As(err, &app) && app.Status != 0 {
		return app.Status
	}
	return http.StatusInternalServerError
}
