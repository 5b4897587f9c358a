package model

import "time"

// Comment is a user's reply to a post.
//
// A user has at most one comment per post: writing again replaces the body
// of the existing comment and keeps its ID. The ID is an xid string
// (e.g. "cv37rs3pp9olc6atsptg"), so comment URLs are not guessable by counting.
type Comment struct {
	ID           string    `json:"id"           db:"id"`
	PostID       int64     `json:"postId"       db:"post_id"`
	AuthorID     int64     `json:"authorId"     db:"author_id"`
	AuthorName   string    `json:"author"       db:"author_name"`
	Body         string    `json:"comment"      db:"body"`
	CreatedAt    time.Time `json:"created"      db:"created_at"`
	LastModified time.Time `json:"lastModified" db:"last_modified"`
}

// IsAuthor reports whether u wrote the comment.
func (c *Comment) IsAuthor(u *User) bool {
	return u != nil && u.ID == c.AuthorID
}
