package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
)

const noteColumns = `id, title, description, user_id, created_at, updated_at`

// CreateNote inserts a new note, filling in its ID and timestamps.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// never build SQL with fmt.Sprintf on user input; the driver escapes
// each argument.
func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	now := time.Now().UTC()
	note.ID = xid.New().String()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.Title,
		note.Description,
		note.UserID,
		toUnix(note.CreatedAt),
		toUnix(note.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	return nil
}

// GetNote retrieves a single note by its ID.
// Returns apperror.ErrNotFound if the note doesn't exist.
func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var (
		n                    model.Note
		createdAt, updatedAt int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`,
		id,
	).Scan(&n.ID, &n.Title, &n.Description, &n.UserID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}

	n.CreatedAt = fromUnix(createdAt)
	n.UpdatedAt = fromUnix(updatedAt)
	return &n, nil
}

// ListNotesByOwner returns every note owned by userID, newest first.
//
// Notes created within the same nanosecond fall back to id DESC; xids grow
// monotonically within a process, so the order still matches creation order.
// The result is an empty (non-nil) slice when nothing matches, so it
// encodes as [] rather than null.
func (db *DB) ListNotesByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	// CRITICAL: rows holds a pooled connection until closed.
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var (
			n                    model.Note
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Description, &n.UserID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		n.CreatedAt = fromUnix(createdAt)
		n.UpdatedAt = fromUnix(updatedAt)
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return notes, nil
}

// DeleteNote removes a note by its ID. Deleting a note that does not exist
// is not an error, so RowsAffected is not consulted.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}
	return nil
}
