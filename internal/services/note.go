package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftnotes/apiserver/internal/policy"
	"github.com/shiftnotes/apiserver/types"
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	ListAll(ctx context.Context) ([]types.Note, error)
	ListByOwnerAndPeriod(ctx context.Context, ownerID, year, month int) ([]types.Note, error)
	Get(ctx context.Context, id int) (types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Update(ctx context.Context, note types.Note) (types.Note, error)
	Delete(ctx context.Context, id int) error
}

// AttachmentCascader removes a note's attachments, remote and local,
// before the note row itself goes away.
type AttachmentCascader interface {
	DeleteAllForNote(ctx context.Context, note types.Note) error
}

// AttachmentLister resolves the attachments of a note for read paths.
type AttachmentLister interface {
	ListByNote(ctx context.Context, noteID int) ([]types.FileAttachment, error)
}

// NoteInput carries the caller-supplied fields of a note. On update the
// required fields (title, content) must be present; the optional ones fall
// back to the stored values when empty.
type NoteInput struct {
	Title     string
	Content   string
	Priority  string
	Category  string
	Status    string
	Ticket    string
	ShiftDate time.Time
}

// NoteService encapsulates note use-cases: CRUD plus the attachment
// cascade on delete. Reads are open to any authenticated user; mutation is
// gated on ownership.
type NoteService struct {
	repo        NoteRepository
	attachments AttachmentLister
	cascade     AttachmentCascader
}

func NewNoteService(repo NoteRepository, attachments AttachmentLister, cascade AttachmentCascader) *NoteService {
	return &NoteService{
		repo:        repo,
		attachments: attachments,
		cascade:     cascade,
	}
}

// Create validates the input and stores a new note owned by the actor.
func (s *NoteService) Create(ctx context.Context, actor types.Actor, input NoteInput) (types.Note, error) {
	if input.Title == "" || input.Content == "" {
		return types.Note{}, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	note := types.Note{
		Title:     input.Title,
		Content:   input.Content,
		Priority:  defaultString(input.Priority, types.DefaultPriority),
		Category:  defaultString(input.Category, types.DefaultCategory),
		Status:    defaultString(input.Status, types.DefaultStatus),
		Ticket:    input.Ticket,
		ShiftDate: input.ShiftDate,
		OwnerID:   actor.ID,
	}
	if note.ShiftDate.IsZero() {
		note.ShiftDate = truncateToDate(time.Now())
	}
	if err := validateNoteFields(note); err != nil {
		return types.Note{}, err
	}

	created, err := s.repo.Create(ctx, note)
	if err != nil {
		return types.Note{}, err
	}
	created.Attachments = []types.FileAttachment{}
	return created, nil
}

// Get returns one note with its attachments.
func (s *NoteService) Get(ctx context.Context, id int) (types.Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	return s.annotate(ctx, note)
}

// Update overwrites the editable fields of a note. Title and content are
// required; empty priority, category, or status keep their stored values;
// the ticket reference is caller-authoritative, so an empty value clears
// it. Owner and shift date are never changed here.
func (s *NoteService) Update(ctx context.Context, actor types.Actor, id int, input NoteInput) (types.Note, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	if !policy.CanEditNote(actor, existing) {
		return types.Note{}, fmt.Errorf("%w: cannot edit note", ErrForbidden)
	}

	if input.Title == "" || input.Content == "" {
		return types.Note{}, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	existing.Title = input.Title
	existing.Content = input.Content
	existing.Priority = defaultString(input.Priority, existing.Priority)
	existing.Category = defaultString(input.Category, existing.Category)
	existing.Status = defaultString(input.Status, existing.Status)
	existing.Ticket = input.Ticket
	if err := validateNoteFields(existing); err != nil {
		return types.Note{}, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return types.Note{}, err
	}
	return s.annotate(ctx, updated)
}

// Delete removes a note after removing its attachments. Attachment rows go
// first so a crash mid-sequence leaves at worst an attachment-free note,
// never a dangling attachment.
func (s *NoteService) Delete(ctx context.Context, actor types.Actor, id int) error {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteNote(actor, note) {
		return fmt.Errorf("%w: cannot delete note", ErrForbidden)
	}

	if err := s.cascade.DeleteAllForNote(ctx, note); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListAll returns every note, newest first, each with its attachments.
// Read access is unconditional for authenticated users.
func (s *NoteService) ListAll(ctx context.Context) ([]types.Note, error) {
	notes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, notes)
}

// ListByOwnerAndPeriod returns one owner's notes, optionally filtered to a
// calendar year and month. Year and month must be supplied together.
func (s *NoteService) ListByOwnerAndPeriod(ctx context.Context, ownerID, year, month int) ([]types.Note, error) {
	if (year == 0) != (month == 0) {
		return nil, fmt.Errorf("%w: year and month must be supplied together", ErrValidation)
	}
	if month != 0 && (month < 1 || month > 12) {
		return nil, fmt.Errorf("%w: month out of range", ErrValidation)
	}

	notes, err := s.repo.ListByOwnerAndPeriod(ctx, ownerID, year, month)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, notes)
}

func (s *NoteService) annotate(ctx context.Context, note types.Note) (types.Note, error) {
	attachments, err := s.attachments.ListByNote(ctx, note.ID)
	if err != nil {
		return types.Note{}, err
	}
	note.Attachments = attachments
	return note, nil
}

func (s *NoteService) annotateAll(ctx context.Context, notes []types.Note) ([]types.Note, error) {
	for i := range notes {
		annotated, err := s.annotate(ctx, notes[i])
		if err != nil {
			return nil, err
		}
		notes[i] = annotated
	}
	return notes, nil
}

func validateNoteFields(note types.Note) error {
	switch note.Priority {
	case types.PriorityLow, types.PriorityMedium, types.PriorityHigh, types.PriorityCritical:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, note.Priority)
	}
	switch note.Status {
	case types.StatusActive, types.StatusResolved, types.StatusArchived:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, note.Status)
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
