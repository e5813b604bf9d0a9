package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/auditlog"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/queue"
)

// AuditProcessor consumes moderation audit jobs and persists them. Moderation
// actions are written asynchronously so the hot path never waits on Postgres.
type AuditProcessor struct {
	auditRepo *auditlog.Repository
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewAuditProcessor creates a moderation audit processor.
func NewAuditProcessor(auditRepo *auditlog.Repository, q *queue.Queue, logger *zap.Logger) *AuditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditProcessor{auditRepo: auditRepo, queue: q, logger: logger}
}

// Process executes one moderation audit job.
func (p *AuditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeModerationAudit {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ModerationAuditPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	entry := &models.AuditEntry{
		SessionID: payload.SessionID,
		ActorID:   payload.ActorID,
		TargetID:  payload.TargetID,
		Kind:      models.ModerationKind(payload.Kind),
		Detail:    payload.Detail,
	}
	if err := p.auditRepo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	p.logger.Debug("audit entry persisted",
		zap.String("session_id", payload.SessionID.String()),
		zap.String("kind", payload.Kind))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *AuditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queue.QueueAudit, queue.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("audit worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, queue.QueueAudit, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
