// Package repository provides the data access layer for the YaMDb API.
// This file contains the bundle type handed from the driver-specific
// packages to the service wiring.
package repository

import (
	"context"
)

// Repositories holds all repository instances for one database backend.
type Repositories struct {
	User     UserRepository
	Category CategoryRepository
	Genre    GenreRepository
	Title    TitleRepository
	Review   ReviewRepository
	Comment  CommentRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
