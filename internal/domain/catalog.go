package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Catalog constraints, mirrored by the database schema.
const (
	NameMaxLength = 255
	SlugMaxLength = 50
)

// slugPattern matches URL-safe slugs: lowercase letters, digits,
// hyphens and underscores.
var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Category is the single-valued classification of a Title
// (e.g. "books", "movies", "music").
type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Genre is the multi-valued classification of a Title.
type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Title is a reviewable catalog entry: a book, film or album.
type Title struct {
	// ID is the unique identifier for the title (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name, at most 255 characters.
	Name string `json:"name"`

	// Year is the release year. It may not exceed the calendar year at
	// the moment of validation; the bound floats with the current date
	// and is re-checked on every write.
	Year int `json:"year"`

	// Description is optional free text.
	Description *string `json:"description"`

	// Category is the title's category, nil when unset or after the
	// referenced category was deleted.
	Category *Category `json:"category"`

	// Genres holds the full set of genre associations. Writes replace
	// the set, they never append to it.
	Genres []Genre `json:"genre"`

	// Rating is the arithmetic mean of the title's review scores,
	// recomputed from committed reviews on every read. Nil when the
	// title has no reviews.
	Rating *float64 `json:"rating"`
}

// ValidateName checks the shared name length bound for catalog entities.
func ValidateName(name string) error {
	if name == "" || len(name) > NameMaxLength {
		return ErrInvalidName
	}
	return nil
}

// ValidateSlug checks that the slug is non-empty, bounded and URL-safe.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > SlugMaxLength {
		return ErrInvalidSlug
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// ValidateYear checks the release year against the current calendar year.
// The error names both the offending year and the current bound.
func ValidateYear(year int) error {
	current := time.Now().Year()
	if year > current {
		return NewDomainError(ErrYearInFuture,
			fmt.Sprintf("%d is later than %d", year, current), "year")
	}
	return nil
}
