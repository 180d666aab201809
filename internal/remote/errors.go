package remote

import (
	"errors"
	"fmt"
)

// NetworkError wraps a transport-level failure: the request never produced an
// HTTP response. The upload pipeline treats it as retryable on a later run.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteRejection wraps a non-success HTTP response from the remote API.
type RemoteRejection struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("remote %s rejected: status %d: %s", e.Op, e.Status, e.Body)
}

// AuthenticationError means the token was rejected outright. The orchestrator
// aborts the run early: nothing later in the run can succeed.
type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d)", e.Status)
}

// IsAuthError reports whether err is (or wraps) an AuthenticationError.
func IsAuthError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
