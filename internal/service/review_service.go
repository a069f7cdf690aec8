package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// ReviewService handles reviews and their comments. All lookups are
// scoped to the parents named in the URL: a review reached through the
// wrong title does not exist.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	commentRepo repository.CommentRepository
	titleRepo   repository.TitleRepository
	policy      auth.Policy
	logger      zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	commentRepo repository.CommentRepository,
	titleRepo repository.TitleRepository,
	policy auth.Policy,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		commentRepo: commentRepo,
		titleRepo:   titleRepo,
		policy:      policy,
		logger:      logger.With().Str("service", "review").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// CreateReviewInput contains the data for a new review.
type CreateReviewInput struct {
	TitleID int64
	Text    string
	Score   int
}

// UpdateReviewInput contains partial review changes.
type UpdateReviewInput struct {
	Text  *string
	Score *int
}

// CreateCommentInput contains the data for a new comment.
type CreateCommentInput struct {
	TitleID  int64
	ReviewID int64
	Text     string
}

// =============================================================================
// Reviews
// =============================================================================

// CreateReview creates a review authored by the actor. Each user gets
// one review per title; the author is always the actor, never a field
// of the request.
func (s *ReviewService) CreateReview(ctx context.Context, actor *domain.User, input CreateReviewInput) (*domain.Review, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}

	if err := domain.ValidateText(input.Text); err != nil {
		return nil, domain.NewDomainError(err, "", "text")
	}
	if err := domain.ValidateScore(input.Score); err != nil {
		return nil, domain.NewDomainError(err, "", "score")
	}

	title, err := s.getTitle(ctx, input.TitleID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		TitleID:        input.TitleID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Text:           input.Text,
		Score:          input.Score,
		PubDate:        time.Now().UTC(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrReviewExists) {
			// The conflict names the title the author already reviewed.
			return nil, domain.NewDomainError(domain.ErrReviewExists, fmt.Sprintf("%q", title.Name), "")
		}
		if errors.Is(err, domain.ErrTitleNotFound) {
			return nil, domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", input.TitleID).Msg("failed to create review")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("review_id", review.ID).
		Int64("title_id", review.TitleID).
		Str("author", actor.Username).
		Msg("review created")

	return review, nil
}

// GetReview retrieves a review scoped to a title.
func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.getReview(ctx, titleID, reviewID)
}

// ListReviews returns a title's reviews, most recent first.
func (s *ReviewService) ListReviews(ctx context.Context, titleID int64, limit, offset int) (*repository.ListResult[domain.Review], error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	result, err := s.reviewRepo.ListByTitle(ctx, titleID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error().Err(err).Int64("title_id", titleID).Msg("failed to list reviews")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// UpdateReview applies a partial change to a review. Allowed for the
// author, moderators and admins.
func (s *ReviewService) UpdateReview(ctx context.Context, actor *domain.User, titleID, reviewID int64, input UpdateReviewInput) (*domain.Review, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}

	review, err := s.getReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanModifyAuthored(actor, review.AuthorID) {
		return nil, domain.ErrAccessDenied
	}

	if input.Text != nil {
		if err := domain.ValidateText(*input.Text); err != nil {
			return nil, domain.NewDomainError(err, "", "text")
		}
		review.Text = *input.Text
	}
	if input.Score != nil {
		if err := domain.ValidateScore(*input.Score); err != nil {
			return nil, domain.NewDomainError(err, "", "score")
		}
		review.Score = *input.Score
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to update review")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return review, nil
}

// DeleteReview deletes a review and its comments. Allowed for the
// author, moderators and admins.
func (s *ReviewService) DeleteReview(ctx context.Context, actor *domain.User, titleID, reviewID int64) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}

	review, err := s.getReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if !s.policy.CanModifyAuthored(actor, review.AuthorID) {
		return domain.ErrAccessDenied
	}

	if err := s.reviewRepo.Delete(ctx, titleID, reviewID); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return domain.ErrReviewNotFound
		}
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to delete review")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("review_id", reviewID).
		Str("deleted_by", actor.Username).
		Msg("review deleted")

	return nil
}

// =============================================================================
// Comments
// =============================================================================

// CreateComment creates a comment on a review, authored by the actor.
func (s *ReviewService) CreateComment(ctx context.Context, actor *domain.User, input CreateCommentInput) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}

	if err := domain.ValidateText(input.Text); err != nil {
		return nil, domain.NewDomainError(err, "", "text")
	}

	if _, err := s.GetReview(ctx, input.TitleID, input.ReviewID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ReviewID:       input.ReviewID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Text:           input.Text,
		PubDate:        time.Now().UTC(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		s.logger.Error().Err(err).Int64("review_id", input.ReviewID).Msg("failed to create comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("comment_id", comment.ID).
		Int64("review_id", comment.ReviewID).
		Str("author", actor.Username).
		Msg("comment created")

	return comment, nil
}

// GetComment retrieves a comment scoped to its review and title.
func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID int64) (*domain.Comment, error) {
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.getComment(ctx, reviewID, commentID)
}

// ListComments returns a review's comments, oldest first.
func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID int64, limit, offset int) (*repository.ListResult[domain.Comment], error) {
	if _, err := s.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	result, err := s.commentRepo.ListByReview(ctx, reviewID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to list comments")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// UpdateComment changes a comment's text. Allowed for the author,
// moderators and admins.
func (s *ReviewService) UpdateComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID int64, text string) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}

	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanModifyAuthored(actor, comment.AuthorID) {
		return nil, domain.ErrAccessDenied
	}

	if err := domain.ValidateText(text); err != nil {
		return nil, domain.NewDomainError(err, "", "text")
	}
	comment.Text = text

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Int64("comment_id", commentID).Msg("failed to update comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return comment, nil
}

// DeleteComment deletes a comment. Allowed for the author, moderators
// and admins.
func (s *ReviewService) DeleteComment(ctx context.Context, actor *domain.User, titleID, reviewID, commentID int64) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}

	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if !s.policy.CanModifyAuthored(actor, comment.AuthorID) {
		return domain.ErrAccessDenied
	}

	if err := s.commentRepo.Delete(ctx, reviewID, commentID); err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			return domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Int64("comment_id", commentID).Msg("failed to delete comment")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("comment_id", commentID).
		Str("deleted_by", actor.Username).
		Msg("comment deleted")

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// ensureTitle verifies the title named in the URL exists.
func (s *ReviewService) ensureTitle(ctx context.Context, titleID int64) error {
	_, err := s.getTitle(ctx, titleID)
	return err
}

// getTitle loads the title named in the URL.
func (s *ReviewService) getTitle(ctx context.Context, titleID int64) (*domain.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, titleID)
	if err != nil {
		if errors.Is(err, domain.ErrTitleNotFound) {
			return nil, domain.ErrTitleNotFound
		}
		s.logger.Error().Err(err).Int64("title_id", titleID).Msg("failed to check title")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return title, nil
}

// getReview loads a title-scoped review.
func (s *ReviewService) getReview(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to get review")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return review, nil
}

// getComment loads a review-scoped comment.
func (s *ReviewService) getComment(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		s.logger.Error().Err(err).Int64("comment_id", commentID).Msg("failed to get comment")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return comment, nil
}
