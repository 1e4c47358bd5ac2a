// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt output and is tagged json:"-" so that it can
// never leak through an API response, even if a handler encodes the whole
// struct by mistake.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"` // unique across all accounts
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
