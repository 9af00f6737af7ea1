package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightpath/casedesk/internal/config"
	"brightpath/casedesk/internal/uploads"
)

type fakeFileServer struct {
	deletes   []string
	deleteErr error
}

func (f *fakeFileServer) Upload(ctx context.Context, userID, caseID, fileType, fileName, mimeType string, data []byte) (*uploads.FileInfo, error) {
	return nil, errors.New("not used")
}

func (f *fakeFileServer) Delete(ctx context.Context, fileURL string) error {
	f.deletes = append(f.deletes, fileURL)
	return f.deleteErr
}

func TestHandleOrphanCleanupTask_DeletesRemoteFile(t *testing.T) {
	files := &fakeFileServer{}
	processor := NewTaskProcessor(&config.Config{}, files)

	payload, err := json.Marshal(OrphanCleanupPayload{FileURL: "files/orphan.pdf", CaseID: "c1", Slot: "permitLetter"})
	require.NoError(t, err)

	err = processor.HandleOrphanCleanupTask(context.Background(), asynq.NewTask(TypeOrphanCleanup, payload))
	require.NoError(t, err)
	assert.Equal(t, []string{"files/orphan.pdf"}, files.deletes)
}

func TestHandleOrphanCleanupTask_DeleteFailureIsRetryable(t *testing.T) {
	files := &fakeFileServer{deleteErr: errors.New("server down")}
	processor := NewTaskProcessor(&config.Config{}, files)

	payload, err := json.Marshal(OrphanCleanupPayload{FileURL: "files/orphan.pdf"})
	require.NoError(t, err)

	err = processor.HandleOrphanCleanupTask(context.Background(), asynq.NewTask(TypeOrphanCleanup, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry), "transport failures should be retried")
}

func TestHandleOrphanCleanupTask_MalformedPayloadSkipsRetry(t *testing.T) {
	files := &fakeFileServer{}
	processor := NewTaskProcessor(&config.Config{}, files)

	err := processor.HandleOrphanCleanupTask(context.Background(), asynq.NewTask(TypeOrphanCleanup, []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, files.deletes)
}
