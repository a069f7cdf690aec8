// Package domain contains the core business entities for the YaMDb API.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username belongs to a different identity.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrEmailTaken indicates the email belongs to a different identity.
	ErrEmailTaken = errors.New("email is already taken")

	// ErrInvalidUsername indicates the username violates the pattern or
	// length rules (letters, digits and . @ + - _, at most 150 characters).
	ErrInvalidUsername = errors.New("username may contain only letters, digits and . @ + - _ characters")

	// ErrReservedUsername indicates the reserved name "me" was claimed.
	ErrReservedUsername = errors.New(`username "me" is not allowed`)

	// ErrInvalidEmail indicates the email is malformed or too long.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidBio indicates the bio exceeds the length bound.
	ErrInvalidBio = errors.New("bio must be at most 150 characters")

	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("role must be one of: user, moderator, admin")

	// ===========================================
	// Catalog Errors
	// ===========================================

	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrGenreNotFound indicates the requested genre does not exist.
	ErrGenreNotFound = errors.New("genre not found")

	// ErrTitleNotFound indicates the requested title does not exist.
	ErrTitleNotFound = errors.New("title not found")

	// ErrSlugTaken indicates a category/genre with the same slug exists.
	ErrSlugTaken = errors.New("slug is already in use")

	// ErrInvalidName indicates the name is empty or exceeds 255 characters.
	ErrInvalidName = errors.New("name must be between 1 and 255 characters")

	// ErrInvalidSlug indicates the slug is not URL-safe or exceeds 50 characters.
	ErrInvalidSlug = errors.New("slug must contain only letters, digits, hyphens and underscores")

	// ErrYearInFuture indicates a release year later than the current one.
	ErrYearInFuture = errors.New("year cannot be later than the current year")

	// ===========================================
	// Review/Comment Errors
	// ===========================================

	// ErrReviewNotFound indicates the requested review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrReviewExists indicates the author has already reviewed the title.
	ErrReviewExists = errors.New("review already exists for this title")

	// ErrScoreTooLow indicates a score below the minimum.
	ErrScoreTooLow = fmt.Errorf("score must be at least %d", MinScore)

	// ErrScoreTooHigh indicates a score above the maximum.
	ErrScoreTooHigh = fmt.Errorf("score must be at most %d", MaxScore)

	// ErrEmptyText indicates a review/comment without text.
	ErrEmptyText = errors.New("text must not be empty")

	// ===========================================
	// Authentication/Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the actor lacks the role or ownership
	// required for the attempted operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotAuthenticated indicates the request carries no valid identity.
	ErrNotAuthenticated = errors.New("authentication required")

	// ErrInvalidConfirmationCode indicates the supplied confirmation code
	// does not match the issued one or has expired.
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")

	// ErrCodeDelivery indicates the confirmation code could not be sent.
	// The underlying identity claim is already committed when this is
	// returned, so a retried signup re-issues a fresh code.
	ErrCodeDelivery = errors.New("failed to deliver confirmation code")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Field identifies the offending input field, if any.
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Field != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, field string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Field:   field,
	}
}
