// Package shared holds the error kinds, events and value checks every domain
// package of the gamification core depends on. It imports nothing outside
// the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is or the Is* helpers below.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError names where an error kind was raised.
type DomainError struct {
	Domain  string // progress, scoring, leaderboard, storage
	Op      string
	Kind    error
	Message string
	Err     error // optional cause
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError creates a sentinel of the given kind.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError attaches a cause to a kind.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Progress.
var (
	// ErrProfileNotFound means the user has no gamification profile. It is a
	// data-integrity fault and is never retried.
	ErrProfileNotFound      = NewDomainError("progress", "Find", ErrNotFound, "gamification profile not found")
	ErrProfileAlreadyExists = NewDomainError("progress", "Create", ErrAlreadyExists, "gamification profile already exists")
	ErrInvalidUserID        = NewDomainError("progress", "Validate", ErrInvalidID, "invalid user ID")
	ErrNegativeXP           = NewDomainError("progress", "AddXP", ErrNegativeValue, "xp delta cannot be negative")
)

// Scoring.
var (
	ErrBestScoreNotFound = NewDomainError("scoring", "Find", ErrNotFound, "quiz best score not found")
	ErrInvalidQuizID     = NewDomainError("scoring", "Validate", ErrInvalidID, "invalid quiz ID")
	ErrInvalidScore      = NewDomainError("scoring", "Validate", ErrValueOutOfRange, "score percentage must be between 0 and 100")
)

// Leaderboard.
var (
	ErrInvalidPeriod = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "period must be one of all_time, monthly, weekly")
	ErrInvalidLimit  = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "limit must be between 10 and 100")
	ErrNotRanked     = NewDomainError("leaderboard", "Rank", ErrNotFound, "user is not ranked in this period")
)

// ErrConcurrentUpdateConflict is returned when a read-modify-write on a
// profile or best score lost a race. Nothing was applied; the caller may
// resubmit.
var ErrConcurrentUpdateConflict = NewDomainError("storage", "Commit", ErrConcurrentModification, "concurrent update conflict")

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConcurrentModification) }

// IsValidation reports whether err rejects the caller's input.
func IsValidation(err error) bool {
	for _, kind := range []error{ErrInvalidID, ErrInvalidInput, ErrNegativeValue, ErrValueOutOfRange} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether resubmitting the same request can succeed.
// Only lost races qualify; missing profiles and bad input never do.
func IsRetryable(err error) bool {
	return IsConflict(err)
}
