package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrDuplicateKey      = errors.New("duplicate key")
	// ErrBusy is returned when a lock on a contended resource could not be taken in time.
	ErrBusy = errors.New("resource busy, please try again later")
)

// NotFoundError names the entity type and the key it was looked up by.
type NotFoundError struct {
	Entity string
	Key    string
	Value  any
}

func NotFound(entity, key string, value any) error {
	return &NotFoundError{Entity: entity, Key: key, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %v not found", e.Entity, e.Key, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError carries the numbers the caller needs to explain the rejection.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = fmt.Sprintf("#%d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type DuplicateKeyError struct {
	Entity string
	Field  string
	Value  any
}

func DuplicateKey(entity, field string, value any) error {
	return &DuplicateKeyError{Entity: entity, Field: field, Value: value}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", e.Entity, e.Field, e.Value)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// InvalidOperation reports a violated precondition with a readable reason.
func InvalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// IsBusiness reports whether err is one of the business-rule failures above,
// as opposed to an infrastructure error.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrDuplicateKey)
}
