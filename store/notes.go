package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credauth"
)

// Note is one private note row. Notes belong to exactly one account and every
// query below is scoped by account id, so one subject can never read or write
// another's rows.
type Note struct {
	ID        string
	AccountID string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteStore is the persistence contract for account-scoped notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note *Note) (*Note, error)
	GetNote(ctx context.Context, accountID, id string) (*Note, error)
	ListNotes(ctx context.Context, accountID string, limit, offset int) ([]*Note, error)
	UpdateNote(ctx context.Context, note *Note) (*Note, error)
	DeleteNote(ctx context.Context, accountID, id string) error
}

// CreateNote inserts the note row.
func (p *Postgres) CreateNote(ctx context.Context, note *Note) (*Note, error) {
	query := `INSERT INTO notes (id, account_id, title, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`

	err := p.db.QueryRowContext(ctx, query,
		note.ID, note.AccountID, note.Title, note.Content,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

// GetNote loads one note owned by the account.
func (p *Postgres) GetNote(ctx context.Context, accountID, id string) (*Note, error) {
	query := `SELECT id, account_id, title, content, created_at, updated_at
	          FROM notes
	          WHERE id = $1 AND account_id = $2`

	note := &Note{}
	err := p.db.QueryRowContext(ctx, query, id, accountID).Scan(
		&note.ID, &note.AccountID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

// ListNotes returns the account's notes newest first.
func (p *Postgres) ListNotes(ctx context.Context, accountID string, limit, offset int) ([]*Note, error) {
	query := `SELECT id, account_id, title, content, created_at, updated_at
	          FROM notes
	          WHERE account_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`

	rows, err := p.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		note := &Note{}
		if err := rows.Scan(
			&note.ID, &note.AccountID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return notes, nil
}

// UpdateNote overwrites title and content for a note owned by the account.
func (p *Postgres) UpdateNote(ctx context.Context, note *Note) (*Note, error) {
	query := `UPDATE notes
	          SET title = $3, content = $4, updated_at = now()
	          WHERE id = $1 AND account_id = $2
	          RETURNING created_at, updated_at`

	err := p.db.QueryRowContext(ctx, query,
		note.ID, note.AccountID, note.Title, note.Content,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credauth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

// DeleteNote removes a note owned by the account.
func (p *Postgres) DeleteNote(ctx context.Context, accountID, id string) error {
	query := `DELETE FROM notes WHERE id = $1 AND account_id = $2`

	result, err := p.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(result, credauth.ErrRecordNotFound)
}
