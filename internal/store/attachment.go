package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shiftnotes/apiserver/types"
)

// AttachmentRepository handles persistence for file attachments.
type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

const attachmentSelect = `
	SELECT fa.id, fa.note_id, fa.object_key, fa.filename, fa.mime_type,
		fa.size_bytes, fa.uploaded_by, u.name, fa.created_at
	FROM file_attachments fa
	LEFT JOIN users u ON fa.uploaded_by = u.id`

func scanAttachment(row interface{ Scan(...any) error }) (types.FileAttachment, error) {
	var attachment types.FileAttachment
	var uploaderID sql.NullInt64
	var uploaderName sql.NullString
	err := row.Scan(
		&attachment.ID,
		&attachment.NoteID,
		&attachment.ObjectKey,
		&attachment.Filename,
		&attachment.MimeType,
		&attachment.SizeBytes,
		&uploaderID,
		&uploaderName,
		&attachment.CreatedAt,
	)
	if err != nil {
		return types.FileAttachment{}, err
	}
	attachment.UploaderID = int(uploaderID.Int64)
	attachment.UploaderName = uploaderName.String
	return attachment, nil
}

func (r *AttachmentRepository) Get(ctx context.Context, id int) (types.FileAttachment, error) {
	attachment, err := scanAttachment(r.db.QueryRowContext(ctx, attachmentSelect+`
	WHERE fa.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FileAttachment{}, ErrNotFound
		}
		return types.FileAttachment{}, err
	}
	return attachment, nil
}

// ListByNote returns the attachments of one note, oldest first.
func (r *AttachmentRepository) ListByNote(ctx context.Context, noteID int) ([]types.FileAttachment, error) {
	rows, err := r.db.QueryContext(ctx, attachmentSelect+`
	WHERE fa.note_id = $1
	ORDER BY fa.created_at ASC`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]types.FileAttachment, 0)
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment types.FileAttachment) (types.FileAttachment, error) {
	attachment.CreatedAt = time.Now()

	const query = `
		INSERT INTO file_attachments (note_id, object_key, filename, mime_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		attachment.NoteID,
		attachment.ObjectKey,
		attachment.Filename,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.UploaderID,
		attachment.CreatedAt,
	).Scan(&attachment.ID); err != nil {
		return types.FileAttachment{}, err
	}
	return attachment, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM file_attachments WHERE id = $1`
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

// DeleteByNote removes all attachment rows of a note. A note without
// attachments is a no-op.
func (r *AttachmentRepository) DeleteByNote(ctx context.Context, noteID int) error {
	const query = `DELETE FROM file_attachments WHERE note_id = $1`
	_, err := r.db.ExecContext(ctx, query, noteID)
	return err
}
