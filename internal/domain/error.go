package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLockNotAcquired = errors.New("user lock not acquired")

	// ErrInputRejected means the event is not accepted in the current conversation state.
	ErrInputRejected = errors.New("input rejected in current state")

	// ErrStoreUnavailable wraps any persistence failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGatewayTimeout means the payment check did not resolve (timeout or gateway error).
	ErrGatewayTimeout = errors.New("payment gateway timeout")
)
