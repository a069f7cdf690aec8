package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/auth"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/service"
)

// ReviewHandler serves reviews and comments nested under titles.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

// RegisterRoutes registers the review and comment routes.
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/titles/{titleID}/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Post("/", h.createReview)

		r.Route("/{reviewID}", func(r chi.Router) {
			r.Get("/", h.getReview)
			r.Patch("/", h.updateReview)
			r.Delete("/", h.deleteReview)

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", h.listComments)
				r.Post("/", h.createComment)
				r.Get("/{commentID}", h.getComment)
				r.Patch("/{commentID}", h.updateComment)
				r.Delete("/{commentID}", h.deleteComment)
			})
		})
	})
}

type createReviewRequest struct {
	Text string `json:"text" validate:"required"`

	// Score is a pointer so a submitted 0 reaches the range check and
	// gets the too-low message instead of looking like a missing field.
	Score *int `json:"score" validate:"required"`
}

type updateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

// reviewPath extracts the title ID from the URL.
func reviewPath(r *http.Request) (int64, error) {
	return pathID(chi.URLParam(r, "titleID"))
}

// reviewDetailPath extracts the title and review IDs from the URL.
func reviewDetailPath(r *http.Request) (titleID, reviewID int64, err error) {
	titleID, err = pathID(chi.URLParam(r, "titleID"))
	if err != nil {
		return 0, 0, err
	}
	reviewID, err = pathID(chi.URLParam(r, "reviewID"))
	if err != nil {
		return 0, 0, err
	}
	return titleID, reviewID, nil
}

// =============================================================================
// Reviews
// =============================================================================

func (h *ReviewHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, err := reviewPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrTitleNotFound)
		return
	}

	opts := pagination(r)
	result, err := h.reviews.ListReviews(r.Context(), titleID, opts.Limit, opts.Offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]reviewResponse, 0, len(result.Items))
	for _, rev := range result.Items {
		items = append(items, toReviewResponse(rev))
	}
	writePage(w, r, result, items)
}

func (h *ReviewHandler) createReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, err := reviewPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrTitleNotFound)
		return
	}

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), actor, service.CreateReviewInput{
		TitleID: titleID,
		Text:    req.Text,
		Score:   *req.Score,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (h *ReviewHandler) getReview(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrReviewNotFound)
		return
	}

	review, err := h.reviews.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

func (h *ReviewHandler) updateReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrReviewNotFound)
		return
	}

	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), actor, titleID, reviewID, service.UpdateReviewInput{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

func (h *ReviewHandler) deleteReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrReviewNotFound)
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), actor, titleID, reviewID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Comments
// =============================================================================

func (h *ReviewHandler) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrReviewNotFound)
		return
	}

	opts := pagination(r)
	result, err := h.reviews.ListComments(r.Context(), titleID, reviewID, opts.Limit, opts.Offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]commentResponse, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, toCommentResponse(c))
	}
	writePage(w, r, result, items)
}

func (h *ReviewHandler) createComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrReviewNotFound)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	comment, err := h.reviews.CreateComment(r.Context(), actor, service.CreateCommentInput{
		TitleID:  titleID,
		ReviewID: reviewID,
		Text:     req.Text,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

func (h *ReviewHandler) getComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}
	commentID, err := pathID(chi.URLParam(r, "commentID"))
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}

	comment, err := h.reviews.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

func (h *ReviewHandler) updateComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}
	commentID, err := pathID(chi.URLParam(r, "commentID"))
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	comment, err := h.reviews.UpdateComment(r.Context(), actor, titleID, reviewID, commentID, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

func (h *ReviewHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	titleID, reviewID, err := reviewDetailPath(r)
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}
	commentID, err := pathID(chi.URLParam(r, "commentID"))
	if err != nil {
		writeDomainError(w, domain.ErrCommentNotFound)
		return
	}

	if err := h.reviews.DeleteComment(r.Context(), actor, titleID, reviewID, commentID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
