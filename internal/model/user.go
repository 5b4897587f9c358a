// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered blog account.
//
// Users are created once at signup and never edited afterwards, so the
// name is safe to mix into the password hash (see auth.PasswordHasher).
// Posts, comments and likes reference users by ID, never by name.
//
// Email is optional at signup; "no email" is stored as ''.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	PasswordHash string    `json:"-"         db:"password_hash"` // "<salt>,<sha256 hex>"
	Email        string    `json:"email"     db:"email"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
