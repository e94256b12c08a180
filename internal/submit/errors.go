package submit

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for submissions rejected before queueing
	ErrInvalidInput = errors.New("invalid submission")
	// ErrUnauthorized means the game wallet does not hold the game role
	ErrUnauthorized = errors.New("game wallet lacks the game role")
	// ErrUnregistered means the game contract is not registered on the leaderboard
	ErrUnregistered = errors.New("game is not registered")
	// ErrTransient marks network or nonce errors worth retrying
	ErrTransient = errors.New("transient chain error")
	// ErrRelayDisabled is returned when no game wallet is configured
	ErrRelayDisabled = errors.New("game wallet not configured")
	// ErrTxDropped means the node no longer knows a previously sent transaction
	ErrTxDropped = errors.New("transaction dropped")
)

// RevertError is a contract revert, carrying the decoded reason when the
// node returned one
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("execution reverted: %v", e.Err)
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Unwrap() error { return e.Err }

// PendingTxError is a transaction that reached (or may have reached) the node
// without a known outcome
type PendingTxError struct {
	Hash string
	Err  error
}

func (e *PendingTxError) Error() string {
	return fmt.Sprintf("transaction %s pending: %v", e.Hash, e.Err)
}

func (e *PendingTxError) Unwrap() error { return e.Err }

// ErrorClass buckets relay failures by how the queue reacts to them
type ErrorClass string

const (
	ClassNone          ErrorClass = "none"
	ClassValidation    ErrorClass = "validation"
	ClassAuthorization ErrorClass = "authorization"
	ClassTransient     ErrorClass = "transient"
	ClassRevert        ErrorClass = "revert"
	ClassUnknown       ErrorClass = "unknown"
)

// Retryable reports whether the queue should try the item again
func (c ErrorClass) Retryable() bool {
	return c == ClassTransient
}

// Classify maps an error onto its class. A pending transaction is always
// transient: its outcome can only be learned by waiting on it.
func Classify(err error) ErrorClass {
	var (
		revert  *RevertError
		pending *PendingTxError
	)
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &pending):
		return ClassTransient
	case errors.Is(err, ErrInvalidInput):
		return ClassValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnregistered):
		return ClassAuthorization
	case errors.As(err, &revert):
		return ClassRevert
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	default:
		return ClassUnknown
	}
}
