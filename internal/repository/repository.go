// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in the sqlite, postgres and mongo
// subpackages; internal/storage picks one from the connection string.
package repository

import (
	"context"

	"github.com/sakif/notekeeper/internal/model"
)

// UserRepository persists accounts.
//
// CreateUser fills in ID and timestamps. When the email is already taken it
// returns an error matching apperror.ErrDuplicate, so the unique index is the
// final word on the signup race even if the service's pre-check passed.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// NoteRepository persists notes.
//
// ListNotesByOwner returns newest first and never a nil slice.
// DeleteNote is idempotent: removing a missing note is not an error.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotesByOwner(ctx context.Context, userID string) ([]model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Store is a full backend: both repositories plus lifecycle hooks.
type Store interface {
	UserRepository
	NoteRepository
	Ping(ctx context.Context) error
	Close() error
}
