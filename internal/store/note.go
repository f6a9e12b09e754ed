package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shiftnotes/apiserver/types"
)

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteSelect = `
	SELECT n.id, n.title, n.content, n.priority, n.category, n.status, n.ticket,
		n.shift_date, n.created_by, u.name, n.created_at, n.updated_at
	FROM notes n
	LEFT JOIN users u ON n.created_by = u.id`

func scanNote(row interface{ Scan(...any) error }) (types.Note, error) {
	var note types.Note
	var ticket, ownerName sql.NullString
	var ownerID sql.NullInt64
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.Priority,
		&note.Category,
		&note.Status,
		&ticket,
		&note.ShiftDate,
		&ownerID,
		&ownerName,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return types.Note{}, err
	}
	note.Ticket = ticket.String
	note.OwnerID = int(ownerID.Int64)
	note.OwnerName = ownerName.String
	return note, nil
}

func (r *NoteRepository) queryNotes(ctx context.Context, query string, args ...any) ([]types.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// ListAll returns every note ordered by creation time, newest first.
func (r *NoteRepository) ListAll(ctx context.Context) ([]types.Note, error) {
	return r.queryNotes(ctx, noteSelect+`
	ORDER BY n.created_at DESC`)
}

// ListByOwnerAndPeriod returns one owner's notes, optionally narrowed to a
// calendar year and month of the shift date. Pass zero for both to skip the
// filter. Ordered by shift date, then creation time, newest first.
func (r *NoteRepository) ListByOwnerAndPeriod(ctx context.Context, ownerID, year, month int) ([]types.Note, error) {
	if year != 0 && month != 0 {
		return r.queryNotes(ctx, noteSelect+`
	WHERE n.created_by = $1
		AND EXTRACT(YEAR FROM n.shift_date) = $2
		AND EXTRACT(MONTH FROM n.shift_date) = $3
	ORDER BY n.shift_date DESC, n.created_at DESC`, ownerID, year, month)
	}
	return r.queryNotes(ctx, noteSelect+`
	WHERE n.created_by = $1
	ORDER BY n.shift_date DESC, n.created_at DESC`, ownerID)
}

func (r *NoteRepository) Get(ctx context.Context, id int) (types.Note, error) {
	note, err := scanNote(r.db.QueryRowContext(ctx, noteSelect+`
	WHERE n.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (title, content, priority, category, status, ticket, shift_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.Title,
		note.Content,
		note.Priority,
		note.Category,
		note.Status,
		nullString(note.Ticket),
		note.ShiftDate,
		note.OwnerID,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// Update overwrites the editable fields of a note. Owner and shift date are
// never touched here.
func (r *NoteRepository) Update(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now()

	const query = `
		UPDATE notes
		SET title = $1,
			content = $2,
			priority = $3,
			category = $4,
			status = $5,
			ticket = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		note.Title,
		note.Content,
		note.Priority,
		note.Category,
		note.Status,
		nullString(note.Ticket),
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return types.Note{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Note{}, err
	}
	if affected == 0 {
		return types.Note{}, ErrNotFound
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM notes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
