// Package handler provides the HTTP layer of the YaMDb API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
)

// Pagination defaults. Clients page with limit/offset query parameters.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// page is the envelope for every list response.
type page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// writePage writes a paginated list response. result carries the page
// bounds, items the already-converted response bodies; items must be a
// non-nil slice so empty pages encode as [] rather than null.
func writePage[T, R any](w http.ResponseWriter, r *http.Request, result *repository.ListResult[T], items []R) {
	writeJSON(w, http.StatusOK, page{
		Count:    result.Total,
		Next:     pageLink(r, result, result.Offset+result.Limit),
		Previous: pageLink(r, result, result.Offset-result.Limit),
		Results:  items,
	})
}

// pageLink builds a neighbour-page URL, nil when out of range.
func pageLink[T any](r *http.Request, result *repository.ListResult[T], offset int) *string {
	if result.Limit <= 0 {
		return nil
	}
	if offset < 0 || int64(offset) >= result.Total {
		return nil
	}

	u := *r.URL
	q := u.Query()
	q.Set("limit", strconv.Itoa(result.Limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// fieldErrors is the body of a validation failure: each offending field
// maps to its list of messages.
type fieldErrors map[string][]string

// writeFieldErrors writes a 400 with field-keyed messages.
func writeFieldErrors(w http.ResponseWriter, fe fieldErrors) {
	writeJSON(w, http.StatusBadRequest, fe)
}

// writeDetail writes a single-message error response.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeDomainError maps a service error onto the HTTP error taxonomy:
// field-tagged validation problems and conflicts are 400s keyed by
// field, missing resources are 404s, authorization failures are 403s.
func writeDomainError(w http.ResponseWriter, err error) {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && domainErr.Field != "" {
		writeFieldErrors(w, fieldErrors{domainErr.Field: {domainErr.Err.Error()}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrGenreNotFound),
		errors.Is(err, domain.ErrTitleNotFound),
		errors.Is(err, domain.ErrReviewNotFound),
		errors.Is(err, domain.ErrCommentNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())

	case errors.Is(err, domain.ErrReviewExists):
		writeFieldErrors(w, fieldErrors{"non_field_errors": {err.Error()}})

	case errors.Is(err, domain.ErrNotAuthenticated):
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided")

	case errors.Is(err, domain.ErrAccessDenied):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action")

	case errors.Is(err, domain.ErrCodeDelivery):
		writeDetail(w, http.StatusServiceUnavailable, err.Error())

	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeBadBody reports an unreadable or non-JSON request body.
func writeBadBody(w http.ResponseWriter) {
	writeDetail(w, http.StatusBadRequest, "request body must be valid JSON")
}

// pagination extracts limit/offset from the query string.
func pagination(r *http.Request) repository.ListOptions {
	opts := repository.ListOptions{Limit: defaultPageLimit}

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			if limit > maxPageLimit {
				limit = maxPageLimit
			}
			opts.Limit = limit
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			opts.Offset = offset
		}
	}
	return opts
}

// pathID parses a positive integer path parameter. The chi URL param is
// passed in by the caller.
func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryString is a helper for optional query parameters.
func queryString(r *http.Request, name string) string {
	return r.URL.Query().Get(name)
}
