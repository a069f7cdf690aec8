package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

type reviewFixture struct {
	svc     *ReviewService
	titles  *MockTitleRepository
	titleID int64

	author    *domain.User
	other     *domain.User
	moderator *domain.User
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	f := &reviewFixture{
		titles:    NewMockTitleRepository(),
		author:    &domain.User{ID: 1, Username: "alice", Role: domain.RoleUser},
		other:     &domain.User{ID: 2, Username: "bob", Role: domain.RoleUser},
		moderator: &domain.User{ID: 3, Username: "mod", Role: domain.RoleModerator},
	}

	title := &domain.Title{Name: "War and Peace", Year: 1869}
	require.NoError(t, f.titles.Create(context.Background(), title, nil))
	f.titleID = title.ID

	f.svc = NewReviewService(NewMockReviewRepository(), NewMockCommentRepository(), f.titles, auth.Policy{}, zerolog.Nop())
	return f
}

func TestReviewService_CreateReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{
		TitleID: f.titleID,
		Text:    "A long but rewarding read.",
		Score:   9,
	})
	require.NoError(t, err)
	assert.Equal(t, f.author.ID, review.AuthorID)
	assert.Equal(t, "alice", review.AuthorUsername)
	assert.False(t, review.PubDate.IsZero())
}

func TestReviewService_OneReviewPerAuthorAndTitle(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "First.", Score: 8})
	require.NoError(t, err)

	_, err = f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "Second.", Score: 9})
	assert.ErrorIs(t, err, domain.ErrReviewExists)
	// The conflict message names the title.
	assert.Contains(t, err.Error(), `"War and Peace"`)

	// A different author still can review the same title.
	_, err = f.svc.CreateReview(ctx, f.other, CreateReviewInput{TitleID: f.titleID, Text: "Mine.", Score: 5})
	assert.NoError(t, err)
}

func TestReviewService_ScoreBounds(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 0})
	assert.ErrorIs(t, err, domain.ErrScoreTooLow)

	_, err = f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 11})
	assert.ErrorIs(t, err, domain.ErrScoreTooHigh)

	// Bounds themselves are valid.
	_, err = f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: domain.MinScore})
	assert.NoError(t, err)
}

func TestReviewService_CreateReviewUnknownTitle(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), f.author, CreateReviewInput{TitleID: 999, Text: "t", Score: 5})
	assert.ErrorIs(t, err, domain.ErrTitleNotFound)
}

func TestReviewService_CreateReviewRequiresAuth(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.CreateReview(context.Background(), nil, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 5})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestReviewService_UpdateReviewPermissions(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "Original.", Score: 7})
	require.NoError(t, err)

	text := "Edited."
	score := 8

	// A stranger cannot edit.
	_, err = f.svc.UpdateReview(ctx, f.other, f.titleID, review.ID, UpdateReviewInput{Text: &text})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	// The author can.
	updated, err := f.svc.UpdateReview(ctx, f.author, f.titleID, review.ID, UpdateReviewInput{Text: &text, Score: &score})
	require.NoError(t, err)
	assert.Equal(t, "Edited.", updated.Text)
	assert.Equal(t, 8, updated.Score)

	// So can a moderator.
	text2 := "Moderated."
	_, err = f.svc.UpdateReview(ctx, f.moderator, f.titleID, review.ID, UpdateReviewInput{Text: &text2})
	assert.NoError(t, err)
}

func TestReviewService_DeleteReviewPermissions(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 5})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteReview(ctx, f.other, f.titleID, review.ID), domain.ErrAccessDenied)
	require.NoError(t, f.svc.DeleteReview(ctx, f.moderator, f.titleID, review.ID))

	_, err = f.svc.GetReview(ctx, f.titleID, review.ID)
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

func TestReviewService_ReviewScopedToTitle(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	otherTitle := &domain.Title{Name: "Twelfth Night", Year: 1602}
	require.NoError(t, f.titles.Create(ctx, otherTitle, nil))

	review, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 5})
	require.NoError(t, err)

	// Reaching the review through the wrong title is a 404, not a leak.
	_, err = f.svc.GetReview(ctx, otherTitle.ID, review.ID)
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
}

func TestReviewService_Comments(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	review, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "t", Score: 5})
	require.NoError(t, err)

	comment, err := f.svc.CreateComment(ctx, f.other, CreateCommentInput{
		TitleID:  f.titleID,
		ReviewID: review.ID,
		Text:     "Agreed.",
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, comment.AuthorID)

	// Empty text rejected.
	_, err = f.svc.CreateComment(ctx, f.other, CreateCommentInput{TitleID: f.titleID, ReviewID: review.ID})
	assert.ErrorIs(t, err, domain.ErrEmptyText)

	// Author edits, stranger cannot.
	_, err = f.svc.UpdateComment(ctx, f.author, f.titleID, review.ID, comment.ID, "Hijacked.")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	updated, err := f.svc.UpdateComment(ctx, f.other, f.titleID, review.ID, comment.ID, "Strongly agreed.")
	require.NoError(t, err)
	assert.Equal(t, "Strongly agreed.", updated.Text)

	// Moderator deletes.
	require.NoError(t, f.svc.DeleteComment(ctx, f.moderator, f.titleID, review.ID, comment.ID))
}

func TestReviewService_ListOrdering(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx, f.author, CreateReviewInput{TitleID: f.titleID, Text: "first", Score: 5})
	require.NoError(t, err)
	second, err := f.svc.CreateReview(ctx, f.other, CreateReviewInput{TitleID: f.titleID, Text: "second", Score: 6})
	require.NoError(t, err)

	result, err := f.svc.ListReviews(ctx, f.titleID, 10, 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	// Newest first.
	assert.Equal(t, second.ID, result.Items[0].ID)
}
