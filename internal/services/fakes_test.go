package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shiftnotes/apiserver/internal/storage"
	"github.com/shiftnotes/apiserver/internal/store"
	"github.com/shiftnotes/apiserver/types"
)

// In-memory stand-ins for the repositories and the blob store, shared by
// the service tests in this package.

type memNoteRepo struct {
	nextID int
	notes  map[int]types.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: map[int]types.Note{}}
}

func (r *memNoteRepo) add(note types.Note) types.Note {
	r.nextID++
	note.ID = r.nextID
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	r.notes[note.ID] = note
	return note
}

func (r *memNoteRepo) ListAll(_ context.Context) ([]types.Note, error) {
	notes := make([]types.Note, 0, len(r.notes))
	for _, note := range r.notes {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID > notes[j].ID })
	return notes, nil
}

func (r *memNoteRepo) ListByOwnerAndPeriod(_ context.Context, ownerID, year, month int) ([]types.Note, error) {
	var notes []types.Note
	for _, note := range r.notes {
		if note.OwnerID != ownerID {
			continue
		}
		if year != 0 && (note.ShiftDate.Year() != year || int(note.ShiftDate.Month()) != month) {
			continue
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID > notes[j].ID })
	return notes, nil
}

func (r *memNoteRepo) Get(_ context.Context, id int) (types.Note, error) {
	note, ok := r.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (r *memNoteRepo) Create(_ context.Context, note types.Note) (types.Note, error) {
	return r.add(note), nil
}

func (r *memNoteRepo) Update(_ context.Context, note types.Note) (types.Note, error) {
	if _, ok := r.notes[note.ID]; !ok {
		return types.Note{}, store.ErrNotFound
	}
	note.UpdatedAt = time.Now()
	r.notes[note.ID] = note
	return note, nil
}

func (r *memNoteRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

type memAttachmentRepo struct {
	nextID     int
	rows       map[int]types.FileAttachment
	createErrs map[string]error
}

func newMemAttachmentRepo() *memAttachmentRepo {
	return &memAttachmentRepo{
		rows:       map[int]types.FileAttachment{},
		createErrs: map[string]error{},
	}
}

func (r *memAttachmentRepo) Get(_ context.Context, id int) (types.FileAttachment, error) {
	row, ok := r.rows[id]
	if !ok {
		return types.FileAttachment{}, store.ErrNotFound
	}
	return row, nil
}

func (r *memAttachmentRepo) ListByNote(_ context.Context, noteID int) ([]types.FileAttachment, error) {
	rows := make([]types.FileAttachment, 0)
	for _, row := range r.rows {
		if row.NoteID == noteID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *memAttachmentRepo) Create(_ context.Context, attachment types.FileAttachment) (types.FileAttachment, error) {
	if err := r.createErrs[attachment.Filename]; err != nil {
		return types.FileAttachment{}, err
	}
	r.nextID++
	attachment.ID = r.nextID
	attachment.CreatedAt = time.Now()
	r.rows[attachment.ID] = attachment
	return attachment, nil
}

func (r *memAttachmentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memAttachmentRepo) DeleteByNote(_ context.Context, noteID int) error {
	for id, row := range r.rows {
		if row.NoteID == noteID {
			delete(r.rows, id)
		}
	}
	return nil
}

type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}}
}

func (r *memUserRepo) add(user types.User) types.User {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user
}

func (r *memUserRepo) List(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	return r.add(user), nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) SetStorageCredential(_ context.Context, id int, credential types.StorageCredential) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Storage = credential
	r.users[id] = user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// fakeBlobStore records every call with the credential used, so tests can
// assert which user's credential addressed the remote store.
type fakeBlobStore struct {
	nextKey int
	objects map[string][]byte

	uploads     []string
	deletes     []string
	credentials []string

	failUploads map[string]bool
	failDeletes map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:     map[string][]byte{},
		failUploads: map[string]bool{},
		failDeletes: map[string]bool{},
	}
}

func (s *fakeBlobStore) Upload(_ context.Context, credential string, r io.Reader, size int64, filename, contentType string) (storage.Object, error) {
	s.uploads = append(s.uploads, filename)
	s.credentials = append(s.credentials, credential)
	if s.failUploads[filename] {
		return storage.Object{}, fmt.Errorf("%w: upload rejected", storage.ErrStore)
	}

	s.nextKey++
	key := fmt.Sprintf("blob-%d/%s", s.nextKey, filename)
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.objects[key] = data
	return storage.Object{Key: key, Name: filename, ContentType: contentType, Size: size}, nil
}

func (s *fakeBlobStore) Download(_ context.Context, credential, key string) (io.ReadCloser, error) {
	s.credentials = append(s.credentials, credential)
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: no such object", storage.ErrStore)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, credential, key string) error {
	s.deletes = append(s.deletes, key)
	s.credentials = append(s.credentials, credential)
	if s.failDeletes[key] {
		return fmt.Errorf("%w: delete rejected", storage.ErrStore)
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeBlobStore) lastCredential() string {
	if len(s.credentials) == 0 {
		return ""
	}
	return s.credentials[len(s.credentials)-1]
}
