package postgres

import (
	"context"
	"fmt"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// reviewRepository implements repository.ReviewRepository for PostgreSQL.
type reviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(db *DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id
`

// Create inserts a review. The uq_reviews_title_author constraint is the
// single point of enforcement for the one-review-per-title rule; under
// concurrent submissions exactly one insert succeeds.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		review.TitleID,
		review.AuthorID,
		review.Text,
		review.Score,
		review.PubDate,
	).Scan(&review.ID)

	if err != nil {
		if isUniqueViolation(err, "uq_reviews_title_author") {
			return domain.ErrReviewExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrTitleNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review scoped to a title.
func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	review := &domain.Review{}
	err := r.db.Pool.QueryRow(ctx,
		reviewSelect+` WHERE r.id = $1 AND r.title_id = $2`, reviewID, titleID,
	).Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.AuthorUsername,
		&review.Text,
		&review.Score,
		&review.PubDate,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// Update persists text/score changes. Author, title and pub_date stay as
// written at creation.
func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reviews SET text = $1, score = $2 WHERE id = $3`,
		review.Text, review.Score, review.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// Delete deletes a review scoped to a title. Comments cascade.
func (r *reviewRepository) Delete(ctx context.Context, titleID, reviewID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reviews WHERE id = $1 AND title_id = $2`, reviewID, titleID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

// ListByTitle returns a title's reviews, most recent first.
func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, opts repository.ListOptions) (*repository.ListResult[domain.Review], error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE title_id = $1`, titleID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := reviewSelect + ` WHERE r.title_id = $1 ORDER BY r.pub_date DESC, r.id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, titleID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.TitleID,
			&review.AuthorID,
			&review.AuthorUsername,
			&review.Text,
			&review.Score,
			&review.PubDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
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
