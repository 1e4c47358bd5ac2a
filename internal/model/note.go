package model

import "time"

// Note is a single text note owned by one account.
//
// The ID is serialized as "_id" because the browser UI addresses notes by
// that key. UserID is the owning account's ID; it is fixed at creation and
// nothing checks that the account exists.
type Note struct {
	ID          string    `json:"_id"         db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	UserID      string    `json:"userId"      db:"user_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
