package postgres

import (
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// NewRepositories creates the full repository bundle over one
// PostgreSQL pool.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User:     NewUserRepository(db),
		Category: NewCategoryRepository(db),
		Genre:    NewGenreRepository(db),
		Title:    NewTitleRepository(db),
		Review:   NewReviewRepository(db),
		Comment:  NewCommentRepository(db),
	}
}
