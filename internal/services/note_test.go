package services

import (
	"context"
	"testing"
	"time"

	"github.com/shiftnotes/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCascader struct {
	noteIDs []int
	err     error
}

func (c *recordingCascader) DeleteAllForNote(_ context.Context, note types.Note) error {
	c.noteIDs = append(c.noteIDs, note.ID)
	return c.err
}

func newNoteServiceForTest() (*NoteService, *memNoteRepo, *memAttachmentRepo, *recordingCascader) {
	notes := newMemNoteRepo()
	attachments := newMemAttachmentRepo()
	cascade := &recordingCascader{}
	return NewNoteService(notes, attachments, cascade), notes, attachments, cascade
}

func TestNoteCreateRequiresTitleAndContent(t *testing.T) {
	service, notes, _, _ := newNoteServiceForTest()
	actor := types.Actor{ID: 2, Role: types.RoleTechnician}

	_, err := service.Create(context.Background(), actor, NoteInput{Content: "body"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Create(context.Background(), actor, NoteInput{Title: "title"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, notes.notes, "nothing persisted on validation failure")
}

func TestNoteCreateAppliesDefaults(t *testing.T) {
	service, _, _, _ := newNoteServiceForTest()
	actor := types.Actor{ID: 2, Role: types.RoleTechnician}

	note, err := service.Create(context.Background(), actor, NoteInput{Title: "handover", Content: "all quiet"})
	require.NoError(t, err)

	assert.Equal(t, types.DefaultPriority, note.Priority)
	assert.Equal(t, types.DefaultCategory, note.Category)
	assert.Equal(t, types.DefaultStatus, note.Status)
	assert.Equal(t, actor.ID, note.OwnerID)
	assert.NotNil(t, note.Attachments)
	assert.Empty(t, note.Attachments)
	assert.False(t, note.ShiftDate.IsZero(), "shift date defaults to today")
	assert.Equal(t, note.ShiftDate, note.ShiftDate.Truncate(24*time.Hour))
}

func TestNoteCreateRejectsUnknownPriorityAndStatus(t *testing.T) {
	service, _, _, _ := newNoteServiceForTest()
	actor := types.Actor{ID: 2, Role: types.RoleTechnician}

	_, err := service.Create(context.Background(), actor, NoteInput{Title: "t", Content: "c", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.Create(context.Background(), actor, NoteInput{Title: "t", Content: "c", Status: "done"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNoteGetAnnotatesAttachments(t *testing.T) {
	service, notes, attachments, _ := newNoteServiceForTest()
	note := notes.add(types.Note{Title: "t", Content: "c", OwnerID: 2})
	_, err := attachments.Create(context.Background(), types.FileAttachment{NoteID: note.ID, Filename: "a.png"})
	require.NoError(t, err)
	_, err = attachments.Create(context.Background(), types.FileAttachment{NoteID: note.ID, Filename: "b.png"})
	require.NoError(t, err)

	got, err := service.Get(context.Background(), note.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "a.png", got.Attachments[0].Filename)
	assert.Equal(t, "b.png", got.Attachments[1].Filename)
}

func TestNoteUpdateMergesOptionalFields(t *testing.T) {
	service, notes, _, _ := newNoteServiceForTest()
	owner := types.Actor{ID: 2, Role: types.RoleTechnician}
	note := notes.add(types.Note{
		Title:    "before",
		Content:  "old body",
		Priority: types.PriorityHigh,
		Category: "network",
		Status:   types.StatusActive,
		Ticket:   "INC-41",
		OwnerID:  owner.ID,
	})

	updated, err := service.Update(context.Background(), owner, note.ID, NoteInput{
		Title:   "after",
		Content: "new body",
		Status:  types.StatusResolved,
	})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "new body", updated.Content)
	assert.Equal(t, types.PriorityHigh, updated.Priority, "empty priority keeps stored value")
	assert.Equal(t, "network", updated.Category, "empty category keeps stored value")
	assert.Equal(t, types.StatusResolved, updated.Status)
	assert.Empty(t, updated.Ticket, "empty ticket clears the reference")
	assert.Equal(t, owner.ID, updated.OwnerID, "owner never changes")
}

func TestNoteUpdateRequiresTitleAndContent(t *testing.T) {
	service, notes, _, _ := newNoteServiceForTest()
	owner := types.Actor{ID: 2, Role: types.RoleTechnician}
	note := notes.add(types.Note{Title: "t", Content: "c", Priority: types.PriorityLow, Status: types.StatusActive, OwnerID: owner.ID})

	_, err := service.Update(context.Background(), owner, note.ID, NoteInput{Content: "c"})
	assert.ErrorIs(t, err, ErrValidation)

	unchanged, err := service.Get(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", unchanged.Title)
}

func TestNoteUpdateForbiddenForNonOwner(t *testing.T) {
	service, notes, _, _ := newNoteServiceForTest()
	note := notes.add(types.Note{Title: "t", Content: "c", OwnerID: 2})
	stranger := types.Actor{ID: 3, Role: types.RoleTechnician}

	_, err := service.Update(context.Background(), stranger, note.ID, NoteInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := types.Actor{ID: 1, Role: types.RoleAdmin}
	_, err = service.Update(context.Background(), admin, note.ID, NoteInput{Title: "x", Content: "y", Priority: types.PriorityLow, Status: types.StatusActive})
	assert.NoError(t, err, "admins edit any note")
}

func TestNoteDeleteCascadesAttachmentsFirst(t *testing.T) {
	service, notes, _, cascade := newNoteServiceForTest()
	owner := types.Actor{ID: 2, Role: types.RoleTechnician}
	note := notes.add(types.Note{Title: "t", Content: "c", OwnerID: owner.ID})

	require.NoError(t, service.Delete(context.Background(), owner, note.ID))

	assert.Equal(t, []int{note.ID}, cascade.noteIDs)
	assert.Empty(t, notes.notes)
}

func TestNoteDeleteAbortsWhenCascadeFails(t *testing.T) {
	service, notes, _, cascade := newNoteServiceForTest()
	cascade.err = assert.AnError
	owner := types.Actor{ID: 2, Role: types.RoleTechnician}
	note := notes.add(types.Note{Title: "t", Content: "c", OwnerID: owner.ID})

	err := service.Delete(context.Background(), owner, note.ID)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, notes.notes, note.ID, "note row survives a failed cascade")
}

func TestNoteDeleteForbiddenForNonOwner(t *testing.T) {
	service, notes, _, cascade := newNoteServiceForTest()
	note := notes.add(types.Note{Title: "t", Content: "c", OwnerID: 2})
	stranger := types.Actor{ID: 3, Role: types.RoleTechnician}

	err := service.Delete(context.Background(), stranger, note.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, cascade.noteIDs, "no cascade on a denied delete")
	assert.Contains(t, notes.notes, note.ID)
}

func TestNoteListByOwnerAndPeriodValidation(t *testing.T) {
	service, _, _, _ := newNoteServiceForTest()

	_, err := service.ListByOwnerAndPeriod(context.Background(), 2, 2026, 0)
	assert.ErrorIs(t, err, ErrValidation, "year without month")

	_, err = service.ListByOwnerAndPeriod(context.Background(), 2, 0, 8)
	assert.ErrorIs(t, err, ErrValidation, "month without year")

	_, err = service.ListByOwnerAndPeriod(context.Background(), 2, 2026, 13)
	assert.ErrorIs(t, err, ErrValidation, "month out of range")
}

func TestNoteListByOwnerAndPeriodFilters(t *testing.T) {
	service, notes, _, _ := newNoteServiceForTest()
	august := time.Date(2026, time.August, 14, 0, 0, 0, 0, time.UTC)
	july := time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC)
	notes.add(types.Note{Title: "aug", Content: "c", OwnerID: 2, ShiftDate: august})
	notes.add(types.Note{Title: "jul", Content: "c", OwnerID: 2, ShiftDate: july})
	notes.add(types.Note{Title: "other owner", Content: "c", OwnerID: 3, ShiftDate: august})

	got, err := service.ListByOwnerAndPeriod(context.Background(), 2, 2026, 8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "aug", got[0].Title)

	all, err := service.ListByOwnerAndPeriod(context.Background(), 2, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2, "no period filter returns all of the owner's notes")
}

func TestNoteListAllAnnotates(t *testing.T) {
	service, notes, attachments, _ := newNoteServiceForTest()
	first := notes.add(types.Note{Title: "first", Content: "c", OwnerID: 2})
	notes.add(types.Note{Title: "second", Content: "c", OwnerID: 2})
	_, err := attachments.Create(context.Background(), types.FileAttachment{NoteID: first.ID, Filename: "log.txt"})
	require.NoError(t, err)

	got, err := service.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title, "newest first")
	assert.Empty(t, got[0].Attachments)
	require.Len(t, got[1].Attachments, 1)
	assert.Equal(t, "log.txt", got[1].Attachments[0].Filename)
}
