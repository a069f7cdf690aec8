package domain

import "time"

// Score bounds for reviews. The interval is closed: both bounds are
// themselves valid scores.
const (
	MinScore = 1
	MaxScore = 10
)

// Review is one author's opinion of one title. At most one review may
// exist per (author, title) pair; the pair is enforced by a unique
// constraint at the storage layer, never by a read-then-write check.
type Review struct {
	// ID is the unique identifier for the review (auto-generated).
	ID int64 `json:"id"`

	// TitleID is the reviewed title. Set from the URL path on create,
	// immutable afterwards.
	TitleID int64 `json:"-"`

	// AuthorID is the review's author. Set from the authenticated actor
	// on create, immutable afterwards.
	AuthorID int64 `json:"-"`

	// AuthorUsername is the author's username, joined in on read.
	AuthorUsername string `json:"author"`

	// Text is the review body.
	Text string `json:"text"`

	// Score is the integer rating in [MinScore, MaxScore].
	Score int `json:"score"`

	// PubDate is the creation timestamp, set once.
	PubDate time.Time `json:"pub_date"`
}

// Comment is a remark attached to a review. Unlike reviews there is no
// uniqueness rule: an author may comment on the same review any number
// of times.
type Comment struct {
	// ID is the unique identifier for the comment (auto-generated).
	ID int64 `json:"id"`

	// ReviewID is the parent review. Set from the URL path on create.
	ReviewID int64 `json:"-"`

	// AuthorID is the comment's author, set from the authenticated actor.
	AuthorID int64 `json:"-"`

	// AuthorUsername is the author's username, joined in on read.
	AuthorUsername string `json:"author"`

	// Text is the comment body.
	Text string `json:"text"`

	// PubDate is the creation timestamp, set once.
	PubDate time.Time `json:"pub_date"`
}

// ValidateScore checks the score against the closed [MinScore, MaxScore]
// interval, reporting which bound was violated.
func ValidateScore(score int) error {
	if score < MinScore {
		return ErrScoreTooLow
	}
	if score > MaxScore {
		return ErrScoreTooHigh
	}
	return nil
}

// ValidateText checks that a review/comment body is present.
func ValidateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	return nil
}
