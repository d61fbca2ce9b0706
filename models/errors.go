package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Concrete error types below unwrap to one of these so
// callers can branch with errors.Is without matching on every type.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrConsistency = errors.New("consistency error")
)

// ValidationError reports an out-of-range or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IncompleteProfileError is returned by feature extraction when mandatory
// attributes are absent.
type IncompleteProfileError struct {
	UserID  string
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("profile %s incomplete: missing %s", e.UserID, strings.Join(e.Missing, ", "))
}

func (e *IncompleteProfileError) Unwrap() error { return ErrValidation }

// NotFoundError reports an unknown user, profile, match or interest id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicatePairError reports a second row attempted for an ordered pair
// that already exists.
type DuplicatePairError struct {
	Resource string
	From     string
	To       string
}

func (e *DuplicatePairError) Error() string {
	return fmt.Sprintf("%s already exists for pair %s -> %s", e.Resource, e.From, e.To)
}

func (e *DuplicatePairError) Unwrap() error { return ErrConflict }

// NotPendingError reports a response to an interest that was already
// resolved.
type NotPendingError struct {
	InterestID string
	Status     string
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("interest %s is %s, not pending", e.InterestID, e.Status)
}

func (e *NotPendingError) Unwrap() error { return ErrConflict }

// ConsistencyError reports a mismatched mutual-promotion state detected on
// read. The match service repairs these; the error surfaces only when
// repair itself fails.
type ConsistencyError struct {
	UserID        string
	MatchedUserID string
	Reason        string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent match pair %s <-> %s: %s", e.UserID, e.MatchedUserID, e.Reason)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }
