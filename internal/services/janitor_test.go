package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shiftnotes/apiserver/internal/mq"
	"github.com/shiftnotes/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orphanMessage(t *testing.T, event OrphanEvent) mq.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return mq.Message{ID: "m1", Data: data}
}

func TestJanitorReclaimsOrphanedBlob(t *testing.T) {
	users := newMemUserRepo()
	uploader := users.add(types.User{Name: "Tess", Storage: types.LinkedCredential("tess-credential")})
	blobs := newFakeBlobStore()
	blobs.objects["blob-1/file.txt"] = []byte("x")

	janitor := NewJanitor(users, blobs, nil, "blob-cleanup", nil)
	err := janitor.handle(context.Background(), orphanMessage(t, OrphanEvent{
		ObjectKey:  "blob-1/file.txt",
		UploaderID: uploader.ID,
	}))

	require.NoError(t, err)
	assert.NotContains(t, blobs.objects, "blob-1/file.txt")
	assert.Equal(t, "tess-credential", blobs.lastCredential())
}

func TestJanitorReturnsErrorForRetryableFailure(t *testing.T) {
	users := newMemUserRepo()
	uploader := users.add(types.User{Name: "Tess", Storage: types.LinkedCredential("tess-credential")})
	blobs := newFakeBlobStore()
	blobs.objects["blob-1/file.txt"] = []byte("x")
	blobs.failDeletes["blob-1/file.txt"] = true

	janitor := NewJanitor(users, blobs, nil, "blob-cleanup", nil)
	err := janitor.handle(context.Background(), orphanMessage(t, OrphanEvent{
		ObjectKey:  "blob-1/file.txt",
		UploaderID: uploader.ID,
	}))

	assert.Error(t, err, "failed deletes are redelivered")
}

func TestJanitorAbandonsUnreachableBlobs(t *testing.T) {
	users := newMemUserRepo()
	unlinked := users.add(types.User{Name: "Uma"})
	blobs := newFakeBlobStore()
	janitor := NewJanitor(users, blobs, nil, "blob-cleanup", nil)

	// Uploader account gone.
	err := janitor.handle(context.Background(), orphanMessage(t, OrphanEvent{ObjectKey: "k", UploaderID: 999}))
	assert.NoError(t, err)

	// Uploader never relinked the store.
	err = janitor.handle(context.Background(), orphanMessage(t, OrphanEvent{ObjectKey: "k", UploaderID: unlinked.ID}))
	assert.NoError(t, err)

	// Uploader id zero means the account row was cleared.
	err = janitor.handle(context.Background(), orphanMessage(t, OrphanEvent{ObjectKey: "k", UploaderID: 0}))
	assert.NoError(t, err)

	assert.Empty(t, blobs.deletes, "no provider call without a credential")
}

func TestJanitorDropsMalformedEvents(t *testing.T) {
	janitor := NewJanitor(newMemUserRepo(), newFakeBlobStore(), nil, "blob-cleanup", nil)
	err := janitor.handle(context.Background(), mq.Message{ID: "m1", Data: []byte("not json")})
	assert.NoError(t, err, "malformed events are acked, not redelivered forever")
}
