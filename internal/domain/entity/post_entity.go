package entity

import (
	"time"
)

// Post is a titled text entry owned by exactly one user.
// AuthorID is set once at creation and never reassigned; CreatedAt is
// immutable after insert. The bigserial ID doubles as the feed tie-break.
type Post struct {
	ID         int64
	Title      string
	Body       string
	AuthorID   string
	AuthorName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
