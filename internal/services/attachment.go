package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shiftnotes/apiserver/internal/mq"
	"github.com/shiftnotes/apiserver/internal/policy"
	"github.com/shiftnotes/apiserver/internal/storage"
	"github.com/shiftnotes/apiserver/types"
	"go.uber.org/zap"
)

// AttachmentRepository defines persistence operations for file attachments.
type AttachmentRepository interface {
	Get(ctx context.Context, id int) (types.FileAttachment, error)
	ListByNote(ctx context.Context, noteID int) ([]types.FileAttachment, error)
	Create(ctx context.Context, attachment types.FileAttachment) (types.FileAttachment, error)
	Delete(ctx context.Context, id int) error
	DeleteByNote(ctx context.Context, noteID int) error
}

// NoteGetter resolves a note for authorization checks.
type NoteGetter interface {
	Get(ctx context.Context, id int) (types.Note, error)
}

// UserGetter resolves a user, in particular the storage credential of an
// uploader at call time.
type UserGetter interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// BlobStore defines the external blob store operations the orchestrator
// drives. Every call is scoped to one user's credential.
type BlobStore interface {
	Upload(ctx context.Context, credential string, r io.Reader, size int64, filename, contentType string) (storage.Object, error)
	Download(ctx context.Context, credential, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, credential, key string) error
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// BatchResult reports the outcome of a multi-file upload. Requested minus
// len(Uploaded) is the number of files that failed.
type BatchResult struct {
	Requested int                    `json:"requested"`
	Uploaded  []types.FileAttachment `json:"uploaded"`
}

// UploadLimits bounds a single upload batch.
type UploadLimits struct {
	MaxFileBytes     int64
	MaxFilesPerBatch int
}

// OrphanEvent describes a blob whose remote delete failed. It is handed to
// the cleanup queue for an out-of-band retry.
type OrphanEvent struct {
	ObjectKey  string `json:"object_key"`
	UploaderID int    `json:"uploaded_by"`
	NoteID     int    `json:"note_id"`
	Reason     string `json:"reason"`
}

// AttachmentOrchestrator drives multi-file uploads and deletes against the
// external blob store while keeping local attachment rows consistent.
// Local metadata is authoritative: a failed remote delete never blocks the
// user-visible operation, it is logged and queued for cleanup instead.
type AttachmentOrchestrator struct {
	attachments    AttachmentRepository
	notes          NoteGetter
	users          UserGetter
	blobs          BlobStore
	queue          *mq.Queue
	cleanupChannel string
	limits         UploadLimits
	logger         *zap.Logger
}

// NewAttachmentOrchestrator constructs the orchestrator. The queue may be
// nil, in which case orphaned blobs are only logged.
func NewAttachmentOrchestrator(
	attachments AttachmentRepository,
	notes NoteGetter,
	users UserGetter,
	blobs BlobStore,
	queue *mq.Queue,
	cleanupChannel string,
	limits UploadLimits,
	logger *zap.Logger,
) *AttachmentOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentOrchestrator{
		attachments:    attachments,
		notes:          notes,
		users:          users,
		blobs:          blobs,
		queue:          queue,
		cleanupChannel: cleanupChannel,
		limits:         limits,
		logger:         logger,
	}
}

// UploadBatch uploads the files to the actor's storage namespace and
// records one attachment row per successful upload. Files fail
// independently: one failing upload skips that file and continues with the
// remainder. If the actor has no linked storage credential the whole batch
// fails before any provider call.
func (o *AttachmentOrchestrator) UploadBatch(ctx context.Context, actor types.Actor, noteID int, files []UploadFile) (BatchResult, error) {
	note, err := o.notes.Get(ctx, noteID)
	if err != nil {
		return BatchResult{}, err
	}
	if !policy.CanAttachToNote(actor, note) {
		return BatchResult{}, fmt.Errorf("%w: cannot attach files to note", ErrForbidden)
	}

	if len(files) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no files uploaded", ErrValidation)
	}
	if o.limits.MaxFilesPerBatch > 0 && len(files) > o.limits.MaxFilesPerBatch {
		return BatchResult{}, fmt.Errorf("%w: at most %d files per upload", ErrValidation, o.limits.MaxFilesPerBatch)
	}
	for _, file := range files {
		if o.limits.MaxFileBytes > 0 && file.Size > o.limits.MaxFileBytes {
			return BatchResult{}, fmt.Errorf("%w: file %q exceeds the %d byte limit", ErrValidation, file.Filename, o.limits.MaxFileBytes)
		}
	}

	uploader, err := o.users.GetByID(ctx, actor.ID)
	if err != nil {
		return BatchResult{}, err
	}
	credential, linked := uploader.Storage.Token()
	if !linked {
		return BatchResult{}, fmt.Errorf("%w: link the blob store before uploading", ErrStorageNotLinked)
	}

	result := BatchResult{
		Requested: len(files),
		Uploaded:  make([]types.FileAttachment, 0, len(files)),
	}
	for _, file := range files {
		object, err := o.blobs.Upload(ctx, credential, file.Content, file.Size, file.Filename, file.ContentType)
		if err != nil {
			o.logger.Warn("file upload failed, continuing with remaining files",
				zap.Int("note_id", note.ID),
				zap.String("filename", file.Filename),
				zap.Error(err))
			continue
		}

		attachment, err := o.attachments.Create(ctx, types.FileAttachment{
			NoteID:     note.ID,
			ObjectKey:  object.Key,
			Filename:   object.Name,
			MimeType:   object.ContentType,
			SizeBytes:  object.Size,
			UploaderID: uploader.ID,
		})
		if err != nil {
			// The blob made it out but the row did not; reclaim the
			// blob so it does not leak unreferenced.
			o.logger.Error("attachment record insert failed after upload",
				zap.Int("note_id", note.ID),
				zap.String("object_key", object.Key),
				zap.Error(err))
			if derr := o.blobs.Delete(ctx, credential, object.Key); derr != nil {
				o.reportOrphan(ctx, OrphanEvent{
					ObjectKey:  object.Key,
					UploaderID: uploader.ID,
					NoteID:     note.ID,
					Reason:     "insert failed, remote reclaim failed",
				}, derr)
			}
			continue
		}
		attachment.UploaderName = uploader.Name
		result.Uploaded = append(result.Uploaded, attachment)
	}
	return result, nil
}

// Download opens the blob of an attachment. The storage credential used is
// always the uploader's, resolved now rather than cached at upload time,
// so a revoked credential surfaces as a storage error instead of stale
// data. The caller owns the returned reader.
func (o *AttachmentOrchestrator) Download(ctx context.Context, actor types.Actor, attachmentID int) (types.FileAttachment, io.ReadCloser, error) {
	attachment, err := o.attachments.Get(ctx, attachmentID)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	note, err := o.notes.Get(ctx, attachment.NoteID)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	if !policy.CanDownloadFile(actor, note) {
		return types.FileAttachment{}, nil, fmt.Errorf("%w: cannot download file", ErrForbidden)
	}

	credential, err := o.uploaderCredential(ctx, attachment)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}

	reader, err := o.blobs.Download(ctx, credential, attachment.ObjectKey)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	return attachment, reader, nil
}

// DeleteAttachment removes one attachment. The remote delete is best
// effort; the local row is removed regardless of the remote outcome.
func (o *AttachmentOrchestrator) DeleteAttachment(ctx context.Context, actor types.Actor, attachmentID int) error {
	attachment, err := o.attachments.Get(ctx, attachmentID)
	if err != nil {
		return err
	}
	note, err := o.notes.Get(ctx, attachment.NoteID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteFile(actor, note) {
		return fmt.Errorf("%w: cannot delete file", ErrForbidden)
	}

	o.removeRemote(ctx, attachment)
	return o.attachments.Delete(ctx, attachment.ID)
}

// DeleteAllForNote removes every attachment of a note, remote best-effort
// first, then the local rows. A note without attachments is a no-op. The
// caller is responsible for the authorization check and for removing the
// note row afterwards.
func (o *AttachmentOrchestrator) DeleteAllForNote(ctx context.Context, note types.Note) error {
	attachments, err := o.attachments.ListByNote(ctx, note.ID)
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		o.removeRemote(ctx, attachment)
	}
	return o.attachments.DeleteByNote(ctx, note.ID)
}

// removeRemote attempts to delete the blob behind an attachment. Failures
// are logged and queued for out-of-band cleanup, never returned: the
// remote store is a dependent cache whose orphans are an acceptable
// residual cost.
func (o *AttachmentOrchestrator) removeRemote(ctx context.Context, attachment types.FileAttachment) {
	event := OrphanEvent{
		ObjectKey:  attachment.ObjectKey,
		UploaderID: attachment.UploaderID,
		NoteID:     attachment.NoteID,
	}

	credential, err := o.uploaderCredential(ctx, attachment)
	if err != nil {
		event.Reason = "uploader credential unavailable"
		o.reportOrphan(ctx, event, err)
		return
	}
	if err := o.blobs.Delete(ctx, credential, attachment.ObjectKey); err != nil {
		event.Reason = "remote delete failed"
		o.reportOrphan(ctx, event, err)
	}
}

func (o *AttachmentOrchestrator) uploaderCredential(ctx context.Context, attachment types.FileAttachment) (string, error) {
	if attachment.UploaderID == 0 {
		return "", fmt.Errorf("%w: uploader account removed", ErrStorageNotLinked)
	}
	uploader, err := o.users.GetByID(ctx, attachment.UploaderID)
	if err != nil {
		return "", err
	}
	credential, linked := uploader.Storage.Token()
	if !linked {
		return "", fmt.Errorf("%w: uploader has unlinked the blob store", ErrStorageNotLinked)
	}
	return credential, nil
}

func (o *AttachmentOrchestrator) reportOrphan(ctx context.Context, event OrphanEvent, cause error) {
	o.logger.Warn("orphaned remote blob",
		zap.String("object_key", event.ObjectKey),
		zap.Int("uploaded_by", event.UploaderID),
		zap.Int("note_id", event.NoteID),
		zap.String("reason", event.Reason),
		zap.Error(cause))

	if o.queue == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := o.queue.Publish(ctx, o.cleanupChannel, data, map[string]string{"object_key": event.ObjectKey}); err != nil {
		o.logger.Warn("failed to queue orphaned blob for cleanup",
			zap.String("object_key", event.ObjectKey),
			zap.Error(err))
	}
}
