package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
)

// createTestNote creates a note and fails the test if it errors.
func createTestNote(t *testing.T, db *DB, userID, title string) *model.Note {
	t.Helper()
	note := &model.Note{Title: title, Description: "desc of " + title, UserID: userID}
	if err := db.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}
	return note
}

func TestCreateNote(t *testing.T) {
	db := newTestDB(t)

	note := &model.Note{Title: "T", Description: "D", UserID: "owner-1"}
	if err := db.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if note.ID == "" {
		t.Error("CreateNote() did not set note.ID")
	}
	if note.CreatedAt.IsZero() || !note.UpdatedAt.Equal(note.CreatedAt) {
		t.Errorf("timestamps not set consistently: created=%v updated=%v", note.CreatedAt, note.UpdatedAt)
	}
}

func TestCreateNote_DanglingOwnerIsAllowed(t *testing.T) {
	db := newTestDB(t)

	// No account with this ID exists; the note is still stored.
	note := createTestNote(t, db, "ghost-account", "orphan")

	got, err := db.GetNote(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.UserID != "ghost-account" {
		t.Errorf("UserID = %q, want %q", got.UserID, "ghost-account")
	}
}

func TestGetNote_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestNote(t, db, "owner-1", "hello")

	got, err := db.GetNote(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.Title != "hello" || got.Description != "desc of hello" {
		t.Errorf("GetNote() = %+v, fields do not match", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetNote(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetNote() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListNotesByOwner_Empty(t *testing.T) {
	db := newTestDB(t)

	notes, err := db.ListNotesByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListNotesByOwner() error = %v", err)
	}
	if notes == nil {
		t.Error("ListNotesByOwner() returned nil, want empty slice")
	}
	if len(notes) != 0 {
		t.Errorf("len = %d, want 0", len(notes))
	}
}

func TestListNotesByOwner_NewestFirstAndScoped(t *testing.T) {
	db := newTestDB(t)

	first := createTestNote(t, db, "owner-a", "first")
	second := createTestNote(t, db, "owner-a", "second")
	third := createTestNote(t, db, "owner-a", "third")
	createTestNote(t, db, "owner-b", "someone else's")

	notes, err := db.ListNotesByOwner(context.Background(), "owner-a")
	if err != nil {
		t.Fatalf("ListNotesByOwner() error = %v", err)
	}

	want := []string{third.ID, second.ID, first.ID}
	if len(notes) != len(want) {
		t.Fatalf("len = %d, want %d", len(notes), len(want))
	}
	for i, id := range want {
		if notes[i].ID != id {
			t.Errorf("notes[%d].ID = %q, want %q", i, notes[i].ID, id)
		}
		if notes[i].UserID != "owner-a" {
			t.Errorf("notes[%d].UserID = %q, want owner-a", i, notes[i].UserID)
		}
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteNote(t *testing.T) {
	db := newTestDB(t)
	note := createTestNote(t, db, "owner-1", "doomed")

	if err := db.DeleteNote(context.Background(), note.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	_, err := db.GetNote(context.Background(), note.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetNote() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteNote_Idempotent(t *testing.T) {
	db := newTestDB(t)
	note := createTestNote(t, db, "owner-1", "twice")

	for i := 0; i < 2; i++ {
		if err := db.DeleteNote(context.Background(), note.ID); err != nil {
			t.Fatalf("DeleteNote() call %d error = %v", i+1, err)
		}
	}
	if err := db.DeleteNote(context.Background(), "never-existed"); err != nil {
		t.Fatalf("DeleteNote(nonexistent) error = %v", err)
	}
}

func TestNoteLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	keep := createTestNote(t, db, "owner-1", "keep")
	drop := createTestNote(t, db, "owner-1", "drop")

	if err := db.DeleteNote(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	notes, err := db.ListNotesByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListNotesByOwner() error = %v", err)
	}
	if len(notes) != 1 || notes[0].ID != keep.ID {
		t.Fatalf("after delete got %+v, want only %q", notes, keep.ID)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
