package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoLogin is returned by Acquire when no login procedure is supplied.
	ErrNoLogin = errors.New("session: login procedure is required")

	// ErrNoValidate is returned by Acquire when no validation procedure is supplied.
	ErrNoValidate = errors.New("session: validate procedure is required")

	// ErrProcedurePanicked is wrapped by the error every waiter receives
	// when a login or validate procedure panics.
	ErrProcedurePanicked = errors.New("session: procedure panicked")
)

// AuthenticationError reports a failed login: bad credentials or an
// unreachable login endpoint. Acquire never retries it.
type AuthenticationError struct {
	Identity string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e.Identity == "" {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed for %s: %v", e.Identity, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ValidationError reports a probe that could not decide whether a session is
// live, for example because of a network failure or an unexpected status.
type ValidationError struct {
	// Status is the HTTP status of the probe response, 0 when none arrived
	Status int
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("session validation failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("session validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// CacheCorruptionError reports persisted records that could not be read.
// It is never fatal: the affected identities are treated as absent.
type CacheCorruptionError struct {
	Files []string
	Err   error
}

func (e *CacheCorruptionError) Error() string {
	if len(e.Files) == 0 {
		return fmt.Sprintf("session cache corrupted: %v", e.Err)
	}
	return fmt.Sprintf("session cache corrupted (%s): %v", strings.Join(e.Files, ", "), e.Err)
}

func (e *CacheCorruptionError) Unwrap() error {
	return e.Err
}

// asAuthenticationError returns err unchanged when it already carries an
// AuthenticationError and wraps it otherwise.
func asAuthenticationError(id Identity, err error) error {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}
	return &AuthenticationError{Identity: id.String(), Err: err}
}
