// Package repository defines data access interfaces for the YaMDb API.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, mocks for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// ListOptions contains pagination options for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult contains a page of items plus the total row count.
type ListResult[T any] struct {
	Items  []*T
	Total  int64
	Offset int
	Limit  int
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user. Uniqueness of username and email is
	// enforced by database constraints; violations are reported as
	// domain.ErrUsernameTaken / domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by username.
	Delete(ctx context.Context, username string) error

	// List returns users ordered by username, optionally filtered by a
	// case-insensitive username substring.
	List(ctx context.Context, search string, opts ListOptions) (*ListResult[domain.User], error)
}

// =============================================================================
// Catalog Repositories
// =============================================================================

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// Create creates a new category. A duplicate slug is reported as
	// domain.ErrSlugTaken.
	Create(ctx context.Context, category *domain.Category) error

	// GetBySlug retrieves a category by slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// DeleteBySlug deletes a category. Titles referencing it keep
	// existing with their category cleared (ON DELETE SET NULL).
	DeleteBySlug(ctx context.Context, slug string) error

	// List returns categories ordered by slug, optionally filtered by a
	// case-insensitive name substring.
	List(ctx context.Context, search string, opts ListOptions) (*ListResult[domain.Category], error)
}

// GenreRepository defines the interface for genre data access.
type GenreRepository interface {
	// Create creates a new genre. A duplicate slug is reported as
	// domain.ErrSlugTaken.
	Create(ctx context.Context, genre *domain.Genre) error

	// GetBySlug retrieves a genre by slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Genre, error)

	// GetBySlugs retrieves several genres at once, in input order.
	// A missing slug is reported as domain.ErrGenreNotFound.
	GetBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error)

	// DeleteBySlug deletes a genre along with its title associations.
	DeleteBySlug(ctx context.Context, slug string) error

	// List returns genres ordered by slug, optionally filtered by a
	// case-insensitive name substring.
	List(ctx context.Context, search string, opts ListOptions) (*ListResult[domain.Genre], error)
}

// TitleFilter contains the supported title list filters.
type TitleFilter struct {
	// CategorySlug filters by exact category slug.
	CategorySlug string

	// GenreSlug filters titles carrying the genre.
	GenreSlug string

	// Name filters by case-insensitive name substring.
	Name string

	// Year filters by exact release year. Nil means no year filter.
	Year *int
}

// TitleRepository defines the interface for title data access.
// Every read includes the derived rating (mean of committed review
// scores at query time) and the resolved category/genre associations.
type TitleRepository interface {
	// Create creates a new title and its genre associations.
	Create(ctx context.Context, title *domain.Title, genreIDs []int64) error

	// GetByID retrieves a title by ID, rating included.
	GetByID(ctx context.Context, id int64) (*domain.Title, error)

	// Update updates the title row. When replaceGenres is true the genre
	// association set is replaced with genreIDs inside the same
	// transaction.
	Update(ctx context.Context, title *domain.Title, genreIDs []int64, replaceGenres bool) error

	// Delete deletes a title by ID. Reviews cascade.
	Delete(ctx context.Context, id int64) error

	// List returns titles matching the filter, ratings included.
	List(ctx context.Context, filter TitleFilter, opts ListOptions) (*ListResult[domain.Title], error)
}

// =============================================================================
// Review/Comment Repositories
// =============================================================================

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create inserts a new review. The one-review-per-(author,title)
	// rule is enforced by a unique constraint; a violation is reported
	// as domain.ErrReviewExists. Two concurrent submissions for the same
	// pair therefore yield exactly one success.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review scoped to a title.
	GetByID(ctx context.Context, titleID, reviewID int64) (*domain.Review, error)

	// Update persists text/score changes. Author, title and pub_date
	// are immutable.
	Update(ctx context.Context, review *domain.Review) error

	// Delete deletes a review scoped to a title. Comments cascade.
	Delete(ctx context.Context, titleID, reviewID int64) error

	// ListByTitle returns a title's reviews, most recent first.
	ListByTitle(ctx context.Context, titleID int64, opts ListOptions) (*ListResult[domain.Review], error)
}

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	// Create inserts a new comment.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment scoped to a review.
	GetByID(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error)

	// Update persists text changes.
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete deletes a comment scoped to a review.
	Delete(ctx context.Context, reviewID, commentID int64) error

	// ListByReview returns a review's comments, oldest first.
	ListByReview(ctx context.Context, reviewID int64, opts ListOptions) (*ListResult[domain.Comment], error)
}
