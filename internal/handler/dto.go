package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// validate checks struct tags on request DTOs before any domain rules
// run; domain validation stays authoritative.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report violations under the json field names the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeJSON decodes and tag-validates a request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// validationFieldErrors converts validator violations to the field-keyed
// error shape. Field names come from the json tag so the client sees the
// names it sent.
func validationFieldErrors(err error) (fieldErrors, bool) {
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return nil, false
	}

	fe := make(fieldErrors, len(violations))
	for _, v := range violations {
		fe[v.Field()] = append(fe[v.Field()], "failed on rule: "+v.Tag())
	}
	return fe, true
}

// handleDecodeError writes the appropriate 400 for a body decode or tag
// validation failure.
func handleDecodeError(w http.ResponseWriter, err error) {
	if fe, ok := validationFieldErrors(err); ok {
		writeFieldErrors(w, fe)
		return
	}
	writeBadBody(w)
}

// =============================================================================
// Response DTOs
// =============================================================================

// userResponse is the wire form of a user account.
type userResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}

// classifierResponse is the wire form of a category or genre.
type classifierResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// titleResponse is the wire form of a title, rating included.
type titleResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Year        int                  `json:"year"`
	Rating      *float64             `json:"rating"`
	Description string               `json:"description"`
	Genre       []classifierResponse `json:"genre"`
	Category    *classifierResponse  `json:"category"`
}

func toTitleResponse(t *domain.Title) titleResponse {
	resp := titleResponse{
		ID:     t.ID,
		Name:   t.Name,
		Year:   t.Year,
		Rating: t.Rating,
		Genre:  make([]classifierResponse, 0, len(t.Genres)),
	}
	if t.Description != nil {
		resp.Description = *t.Description
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, classifierResponse{Name: g.Name, Slug: g.Slug})
	}
	if t.Category != nil {
		resp.Category = &classifierResponse{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return resp
}

// reviewResponse is the wire form of a review.
type reviewResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:      r.ID,
		Author:  r.AuthorUsername,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

// commentResponse is the wire form of a comment.
type commentResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

func toCommentResponse(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:      c.ID,
		Author:  c.AuthorUsername,
		Text:    c.Text,
		PubDate: c.PubDate,
	}
}
