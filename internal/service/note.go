// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete backend, so the same
// rules run over MongoDB, PostgreSQL, SQLite or an in-memory fake in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

const (
	msgMissingFields = "Missing fields"
	msgNotYourNotes  = "You can only access your own notes"
)

// NoteService handles business logic for notes.
//
// Every method takes the caller: the account ID proven by a bearer token, or
// "" when the request carried none. A non-empty caller must own the notes it
// touches; an empty caller is not checked.
type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
}

func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
	}
}

// Create stores a note owned by userID.
//
// userID is not checked against the account store; a note may name an
// account that does not exist.
func (s *NoteService) Create(ctx context.Context, caller, title, description, userID string) (*model.Note, error) {
	if title == "" || description == "" || userID == "" {
		return nil, apperror.MissingFields(msgMissingFields)
	}
	if err := checkOwner(caller, userID); err != nil {
		return nil, err
	}

	note := &model.Note{
		Title:       title,
		Description: description,
		UserID:      userID,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("userID", userID),
	)
	return note, nil
}

// ListByOwner returns userID's notes, newest first. The slice is never nil.
func (s *NoteService) ListByOwner(ctx context.Context, caller, userID string) ([]model.Note, error) {
	if err := checkOwner(caller, userID); err != nil {
		return nil, err
	}

	notes, err := s.repo.ListNotesByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list notes",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

// Delete removes a note. Deleting a note that does not exist succeeds.
//
// With a caller set, the note is fetched first so a note owned by someone
// else is refused instead of removed.
func (s *NoteService) Delete(ctx context.Context, caller, id string) error {
	if caller != "" {
		note, err := s.repo.GetNote(ctx, id)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("fetching note %s: %w", id, err)
		}
		if err := checkOwner(caller, note.UserID); err != nil {
			s.logger.Warn("refused delete of another account's note",
				slog.String("id", id),
				slog.String("caller", caller),
			)
			return err
		}
	}

	if err := s.repo.DeleteNote(ctx, id); err != nil {
		s.logger.Error("failed to delete note",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting note: %w", err)
	}

	s.logger.Info("note deleted", slog.String("id", id))
	return nil
}

func checkOwner(caller, owner string) error {
	if caller != "" && caller != owner {
		return apperror.Forbidden(msgNotYourNotes)
	}
	return nil
}
