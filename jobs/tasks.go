package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/panelkit/panelkit/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord is the task type for writing one audit entry.
	TaskAuditRecord = "audit:record"
	// TaskAuditPrune is the task type for pruning aged audit entries.
	TaskAuditPrune = "audit:prune"
)

// NewAuditRecordTask constructs an Asynq task carrying one audit entry.
func NewAuditRecordTask(entry audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// AuditPrunePayload configures the retention window for the prune task.
type AuditPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditPruneTask constructs the retention-prune task.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}

// AuditWriterJob persists queued audit entries.
type AuditWriterJob struct {
	store  *audit.Store
	logger *slog.Logger
}

// NewAuditWriterJob constructs the job.
func NewAuditWriterJob(store *audit.Store, logger *slog.Logger) *AuditWriterJob {
	return &AuditWriterJob{store: store, logger: logger}
}

// HandleRecord processes TaskAuditRecord tasks.
func (j *AuditWriterJob) HandleRecord(ctx context.Context, t *asynq.Task) error {
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return asynq.SkipRetry
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	return j.store.Insert(ctx, entry)
}

// HandlePrune processes TaskAuditPrune tasks.
func (j *AuditWriterJob) HandlePrune(ctx context.Context, t *asynq.Task) error {
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		return asynq.SkipRetry
	}
	cutoff := time.Now().Add(-time.Duration(payload.RetentionHours) * time.Hour)
	removed, err := j.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("audit prune", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	}
	return nil
}
