package zephyr

import (
	"errors"
	"fmt"
)

// AuthenticationError indicates the request could not be authenticated or
// never reached the remote API. Transport-level failures are folded into
// this category because a dead connection and a rejected credential are
// indistinguishable to the caller.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NotFoundError indicates the remote API returned 404 for a keyed resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// OperationError wraps any other failure with resource-specific context,
// preserving the original cause.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAuthentication reports whether err is (or wraps) an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// operationFailed classifies an error on its way out of a resource
// operation. Already-typed errors pass through unchanged so callers never
// see double wrapping; anything else is wrapped with operation context.
func operationFailed(op string, err error) error {
	var (
		nf *NotFoundError
		ae *AuthenticationError
		oe *OperationError
	)
	if errors.As(err, &nf) || errors.As(err, &ae) || errors.As(err, &oe) {
		return err
	}
	return &OperationError{Op: op, Err: err}
}
