package errors

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrIllegalTransition        = errors.New("illegal status transition")
	ErrInvalidStateForOperation = errors.New("invalid state for operation")
	ErrOrderNotEditable         = errors.New("order is not editable")
	ErrDiscountOutOfRange       = errors.New("discount out of range")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrUnknownAvailability      = errors.New("stock availability unknown")
	ErrRecordStoreUnavailable   = errors.New("record store unavailable")
	ErrStaleOrder               = errors.New("order changed concurrently")
	ErrMutationPending          = errors.New("another cart mutation is pending")
	ErrEmptyOrder               = errors.New("order has no lines")
	ErrInvalidQuantity          = errors.New("invalid quantity")
	ErrInvalidOrderNumber       = errors.New("invalid order number")
	ErrRateLimited              = errors.New("rate limited")
)

var known = []error{
	ErrNotFound,
	ErrIllegalTransition,
	ErrInvalidStateForOperation,
	ErrOrderNotEditable,
	ErrDiscountOutOfRange,
	ErrInsufficientStock,
	ErrUnknownAvailability,
	ErrRecordStoreUnavailable,
	ErrStaleOrder,
	ErrMutationPending,
	ErrEmptyOrder,
	ErrInvalidQuantity,
	ErrInvalidOrderNumber,
	ErrRateLimited,
}

// IsDomain reports whether err carries one of the sentinel kinds above.
func IsDomain(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Unavailable wraps backend failures that are not domain errors as ErrRecordStoreUnavailable.
func Unavailable(err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRecordStoreUnavailable, err)
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRecordStoreUnavailable) ||
		errors.Is(err, ErrUnknownAvailability) ||
		errors.Is(err, ErrMutationPending) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}
