package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoMarketData      = errors.New("no market data")
	ErrOrderExpired      = errors.New("order expired")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOrderRejected     = errors.New("order rejected")
	ErrNoOpenPosition    = errors.New("no open position")
	ErrPositionLimit     = errors.New("position limit reached")
)

// FailureReason classifies why an order did not settle.
type FailureReason string

const (
	FailureExpired           FailureReason = "expired"
	FailureInsufficientFunds FailureReason = "insufficient_funds"
	FailureOther             FailureReason = "other"
)

// ExecutionError is returned when an order is rejected, expires or cannot be funded.
type ExecutionError struct {
	Side   Side
	Reason FailureReason
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s order failed (%s): %v", e.Side, e.Reason, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError classifies err into one of the known failure reasons.
func NewExecutionError(side Side, err error) *ExecutionError {
	return &ExecutionError{Side: side, Reason: ReasonOf(err), Err: err}
}

// ReasonOf maps an error chain to a FailureReason.
func ReasonOf(err error) FailureReason {
	switch {
	case errors.Is(err, ErrOrderExpired):
		return FailureExpired
	case errors.Is(err, ErrInsufficientFunds):
		return FailureInsufficientFunds
	default:
		return FailureOther
	}
}

// ErrorKind is the cycle-level error taxonomy.
type ErrorKind string

const (
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindExecution       ErrorKind = "execution"
	KindInternal        ErrorKind = "internal"
)

// CycleError aggregates a failure at the cycle boundary.
type CycleError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %s failure at %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Retryable reports whether the same trade may succeed on a later cycle
// without operator action. Expired orders are retryable, underfunded ones are not.
func (e *CycleError) Retryable() bool {
	switch e.Kind {
	case KindDataUnavailable:
		return true
	case KindExecution:
		return ReasonOf(e.Err) != FailureInsufficientFunds
	default:
		return false
	}
}

// KindOf returns the ErrorKind of err, treating unknown errors as internal.
func KindOf(err error) ErrorKind {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrNoMarketData) {
		return KindDataUnavailable
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return KindExecution
	}
	return KindInternal
}
