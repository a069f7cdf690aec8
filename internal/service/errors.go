// Package service provides business logic services for the YaMDb API.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError wraps infrastructure failures so handlers never
	// leak database or cache details to clients.
	ErrInternalError = errors.New("internal server error")
)
