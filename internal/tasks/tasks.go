package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"brightpath/casedesk/internal/config"
	"brightpath/casedesk/internal/uploads"
)

// TaskType defines the type of a background task.
const (
	// TypeOrphanCleanup deletes a remote file whose descriptor was never
	// persisted (upload succeeded, store write failed). This compensates an
	// already-failed operation; all case mutation stays synchronous.
	TypeOrphanCleanup = "attachment:orphan_cleanup"
)

// OrphanCleanupPayload identifies the remote file to remove and where it was
// meant to be attached, for the audit log.
type OrphanCleanupPayload struct {
	FileURL string `json:"file_url"`
	CaseID  string `json:"case_id"`
	Slot    string `json:"slot"`
}

// NewClient creates the Asynq client used to enqueue tasks.
func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// OrphanQueue enqueues orphan cleanup tasks. It satisfies the workflow
// package's OrphanReporter interface.
type OrphanQueue struct {
	client *asynq.Client
}

// NewOrphanQueue wraps an Asynq client for orphan reporting.
func NewOrphanQueue(client *asynq.Client) *OrphanQueue {
	return &OrphanQueue{client: client}
}

// ReportOrphan enqueues a cleanup task for an orphaned remote file. Retries
// with backoff are left to Asynq; the file server delete is idempotent enough
// to tolerate them.
func (q *OrphanQueue) ReportOrphan(ctx context.Context, fileURL, caseID, slot string) error {
	payload, err := json.Marshal(OrphanCleanupPayload{FileURL: fileURL, CaseID: caseID, Slot: slot})
	if err != nil {
		return fmt.Errorf("failed to encode orphan cleanup payload: %w", err)
	}
	task := asynq.NewTask(TypeOrphanCleanup, payload)
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue orphan cleanup for %s: %w", fileURL, err)
	}
	log.Printf("Queued orphan cleanup task %s for file %s (case %s slot %s)", info.ID, fileURL, caseID, slot)
	return nil
}

// TaskProcessor handles the processing of tasks. It holds the dependencies
// task handlers need.
type TaskProcessor struct {
	cfg   *config.Config
	files uploads.IFileServerClient
}

// NewTaskProcessor creates the processor for the background worker.
func NewTaskProcessor(cfg *config.Config, files uploads.IFileServerClient) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, files: files}
}

// HandleOrphanCleanupTask deletes the orphaned remote file. Failures are
// returned so Asynq retries with backoff.
func (p *TaskProcessor) HandleOrphanCleanupTask(ctx context.Context, task *asynq.Task) error {
	var payload OrphanCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed orphan cleanup payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.files.Delete(ctx, payload.FileURL); err != nil {
		return fmt.Errorf("orphan cleanup of %s (case %s slot %s) failed: %w", payload.FileURL, payload.CaseID, payload.Slot, err)
	}
	log.Printf("Cleaned up orphaned file %s (case %s slot %s)", payload.FileURL, payload.CaseID, payload.Slot)
	return nil
}

// SetupServer configures and returns an Asynq server instance with the
// background handlers registered.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 5,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrphanCleanup, processor.HandleOrphanCleanupTask)
	return srv, mux
}
