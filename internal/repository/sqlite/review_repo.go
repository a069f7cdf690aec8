package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// reviewRepository implements repository.ReviewRepository for SQLite.
type reviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(db *DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id
`

// Create inserts a review. The (title_id, author_id) unique index is the
// single point of enforcement for the one-review-per-title rule; under
// concurrent submissions exactly one insert succeeds and the others map
// to domain.ErrReviewExists.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES (?, ?, ?, ?, ?)`,
		review.TitleID,
		review.AuthorID,
		review.Text,
		review.Score,
		review.PubDate.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err, "reviews.title_id") {
			return domain.ErrReviewExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrTitleNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	review.ID = id

	return nil
}

// GetByID retrieves a review scoped to a title.
func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	row := r.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ? AND r.title_id = ?`, reviewID, titleID)

	review := &domain.Review{}
	var pubDate string
	err := row.Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.AuthorUsername,
		&review.Text,
		&review.Score,
		&pubDate,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	review.PubDate, _ = time.Parse(time.RFC3339, pubDate)
	return review, nil
}

// Update persists text/score changes. Author, title and pub_date stay as
// written at creation.
func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET text = ?, score = ? WHERE id = ?`,
		review.Text, review.Score, review.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// Delete deletes a review scoped to a title. Comments cascade.
func (r *reviewRepository) Delete(ctx context.Context, titleID, reviewID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = ? AND title_id = ?`, reviewID, titleID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// ListByTitle returns a title's reviews, most recent first.
func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, opts repository.ListOptions) (*repository.ListResult[domain.Review], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE title_id = ?`, titleID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := reviewSelect + ` WHERE r.title_id = ? ORDER BY r.pub_date DESC, r.id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, titleID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		review := &domain.Review{}
		var pubDate string
		err := rows.Scan(
			&review.ID,
			&review.TitleID,
			&review.AuthorID,
			&review.AuthorUsername,
			&review.Text,
			&review.Score,
			&pubDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		review.PubDate, _ = time.Parse(time.RFC3339, pubDate)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return &repository.ListResult[domain.Review]{
		Items:  reviews,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// Ensure reviewRepository implements repository.ReviewRepository.
var _ repository.ReviewRepository = (*reviewRepository)(nil)
