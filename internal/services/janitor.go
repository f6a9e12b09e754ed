package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shiftnotes/apiserver/internal/mq"
	"github.com/shiftnotes/apiserver/internal/store"
	"go.uber.org/zap"
)

// Janitor consumes orphaned blob events and retries the remote delete with
// the uploader's current credential. It runs out of band so user-facing
// deletes never wait on the blob store.
type Janitor struct {
	users   UserGetter
	blobs   BlobStore
	queue   *mq.Queue
	channel string
	logger  *zap.Logger
}

func NewJanitor(users UserGetter, blobs BlobStore, queue *mq.Queue, channel string, logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		users:   users,
		blobs:   blobs,
		queue:   queue,
		channel: channel,
		logger:  logger,
	}
}

// Run consumes the cleanup channel until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	return j.queue.Subscribe(ctx, j.channel, j.handle)
}

func (j *Janitor) handle(ctx context.Context, msg mq.Message) error {
	var event OrphanEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Malformed events cannot succeed on redelivery; drop them.
		j.logger.Warn("dropping malformed cleanup event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	credential, err := j.resolveCredential(ctx, event.UploaderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrStorageNotLinked) {
			// Nobody holds a credential for this blob anymore; the
			// orphan is unreachable and the event is spent.
			j.logger.Info("abandoning unreachable orphaned blob",
				zap.String("object_key", event.ObjectKey),
				zap.Int("uploaded_by", event.UploaderID))
			return nil
		}
		return err
	}

	if err := j.blobs.Delete(ctx, credential, event.ObjectKey); err != nil {
		j.logger.Warn("orphaned blob delete failed, will retry",
			zap.String("object_key", event.ObjectKey),
			zap.Error(err))
		return err
	}

	j.logger.Info("orphaned blob reclaimed", zap.String("object_key", event.ObjectKey))
	return nil
}

func (j *Janitor) resolveCredential(ctx context.Context, uploaderID int) (string, error) {
	if uploaderID == 0 {
		return "", fmt.Errorf("%w: uploader account removed", ErrStorageNotLinked)
	}
	uploader, err := j.users.GetByID(ctx, uploaderID)
	if err != nil {
		return "", err
	}
	credential, linked := uploader.Storage.Token()
	if !linked {
		return "", fmt.Errorf("%w: uploader has unlinked the blob store", ErrStorageNotLinked)
	}
	return credential, nil
}
