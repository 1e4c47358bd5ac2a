package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
)

const noteColumns = `id, title, description, user_id, created_at, updated_at`

func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	ts := now()
	note.ID = xid.New().String()
	note.CreatedAt = ts
	note.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.Title, note.Description, note.UserID, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating note: %w", err)
	}
	return nil
}

func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id,
	).Scan(&n.ID, &n.Title, &n.Description, &n.UserID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("postgres: getting note %s: %w", id, err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}

// ListNotesByOwner returns userID's notes newest first (id DESC breaks
// microsecond ties).
func (db *DB) ListNotesByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Description, &n.UserID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning note row: %w", err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		n.UpdatedAt = n.UpdatedAt.UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating notes: %w", err)
	}
	return notes, nil
}

func (db *DB) DeleteNote(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: deleting note %s: %w", id, err)
	}
	return nil
}
