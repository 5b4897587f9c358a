package model

import (
	"sort"
	"strings"
	"time"
)

// Post is a blog entry written by one user.
//
// AuthorName and Likers are read-model fields: they are filled in by the
// store from the users and post_likers tables and are never written back.
// Likes always equals Likers.Len(); the store recomputes the counter from
// the likers table inside the same transaction that changes membership.
type Post struct {
	ID           int64     `json:"id"           db:"id"`
	Subject      string    `json:"subject"      db:"subject"`
	Content      string    `json:"content"      db:"content"`
	AuthorID     int64     `json:"authorId"     db:"author_id"`
	AuthorName   string    `json:"author"       db:"author_name"`
	Likes        int       `json:"likes"        db:"likes"`
	Likers       LikerSet  `json:"likers"       db:"-"`
	CreatedAt    time.Time `json:"created"      db:"created_at"`
	LastModified time.Time `json:"lastModified" db:"last_modified"`
}

// IsAuthor reports whether u wrote the post. A nil user never owns anything.
func (p *Post) IsAuthor(u *User) bool {
	return u != nil && u.ID == p.AuthorID
}

// LikeResult is what a like toggle leaves behind.
type LikeResult struct {
	Liked bool // true if the toggle added the user, false if it removed them
	Likes int  // counter after the toggle
}

// LikerSet is the set of usernames currently liking a post.
//
// Membership is exact-element: "bo" and "bob" are different likers.
// The zero value is an empty set ready to use.
type LikerSet struct {
	names map[string]struct{}
}

// NewLikerSet builds a set from the given names, dropping duplicates.
func NewLikerSet(names ...string) LikerSet {
	var s LikerSet
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was newly added.
func (s *LikerSet) Add(name string) bool {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// Remove deletes name and reports whether it was present.
func (s *LikerSet) Remove(name string) bool {
	if _, ok := s.names[name]; !ok {
		return false
	}
	delete(s.names, name)
	return true
}

func (s LikerSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s LikerSet) Len() int {
	return len(s.names)
}

// Names returns the members in sorted order.
func (s LikerSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// String renders the set for display as sorted, comma-separated names.
func (s LikerSet) String() string {
	return strings.Join(s.Names(), ", ")
}
