package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// commentRepository implements repository.CommentRepository for SQLite.
type commentRepository struct {
	db *DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.pub_date
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

// Create inserts a comment. There is no uniqueness rule for comments.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (review_id, author_id, text, pub_date) VALUES (?, ?, ?, ?)`,
		comment.ReviewID,
		comment.AuthorID,
		comment.Text,
		comment.PubDate.Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrReviewNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	comment.ID = id

	return nil
}

// GetByID retrieves a comment scoped to a review.
func (r *commentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ? AND c.review_id = ?`, commentID, reviewID)

	comment := &domain.Comment{}
	var pubDate string
	err := row.Scan(
		&comment.ID,
		&comment.ReviewID,
		&comment.AuthorID,
		&comment.AuthorUsername,
		&comment.Text,
		&pubDate,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	comment.PubDate, _ = time.Parse(time.RFC3339, pubDate)
	return comment, nil
}

// Update persists text changes.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET text = ? WHERE id = ?`,
		comment.Text, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCommentNotFound
	}

	return nil
}

// Delete deletes a comment scoped to a review.
func (r *commentRepository) Delete(ctx context.Context, reviewID, commentID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND review_id = ?`, commentID, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCommentNotFound
	}

	return nil
}

// ListByReview returns a review's comments, oldest first.
func (r *commentRepository) ListByReview(ctx context.Context, reviewID int64, opts repository.ListOptions) (*repository.ListResult[domain.Comment], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE review_id = ?`, reviewID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	query := commentSelect + ` WHERE c.review_id = ? ORDER BY c.pub_date ASC, c.id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, reviewID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		comment := &domain.Comment{}
		var pubDate string
		err := rows.Scan(
			&comment.ID,
			&comment.ReviewID,
			&comment.AuthorID,
			&comment.AuthorUsername,
			&comment.Text,
			&pubDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comment.PubDate, _ = time.Parse(time.RFC3339, pubDate)
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return &repository.ListResult[domain.Comment]{
		Items:  comments,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// Ensure commentRepository implements repository.CommentRepository.
var _ repository.CommentRepository = (*commentRepository)(nil)
