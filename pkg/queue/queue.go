package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueAudit is the Redis list used for moderation audit jobs.
	QueueAudit = "queue:audit"
	// QueueAuditDLQ holds audit jobs that exhausted their retries.
	QueueAuditDLQ = "queue:audit:dlq"

	// MaxAttempts is the number of times a job is processed before landing in the DLQ.
	MaxAttempts = 3

	// RetryBackoff is how long the worker sleeps after a failed dequeue or job.
	RetryBackoff = 5 * time.Second

	// DequeueTimeout is the BLPop block duration per poll.
	DequeueTimeout = 5 * time.Second
)

// Job types.
const (
	JobTypeModerationAudit = "moderation_audit"
)

// Job is the envelope pushed onto a Redis-backed queue.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// ModerationAuditPayload is the payload of a moderation_audit job.
type ModerationAuditPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	TargetID  uuid.UUID `json:"target_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
}

// Queue is a minimal Redis list-backed job queue.
type Queue struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New creates a queue backed by the given Redis client.
func New(rdb *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{rdb: rdb, logger: logger}
}

// Enqueue marshals the payload and pushes a job onto the named queue.
func (q *Queue) Enqueue(ctx context.Context, queueName, jobType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", queueName, err)
	}
	q.logger.Debug("job enqueued",
		zap.String("queue", queueName),
		zap.String("job_id", job.ID),
		zap.String("type", jobType))
	return nil
}

// Dequeue blocks up to timeout waiting for a job. Returns nil, nil on timeout.
func (q *Queue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BLPop(ctx, timeout, queueName).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop %s: %w", queueName, err)
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("blpop %s: unexpected reply length %d", queueName, len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Retry requeues the job with its attempt counter bumped, or moves it to the
// DLQ once MaxAttempts is reached.
func (q *Queue) Retry(ctx context.Context, queueName string, job *Job) error {
	job.Attempts++
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if job.Attempts >= MaxAttempts {
		q.logger.Warn("job moved to DLQ",
			zap.String("queue", queueName),
			zap.String("job_id", job.ID),
			zap.Int("attempts", job.Attempts))
		return q.rdb.RPush(ctx, queueName+":dlq", data).Err()
	}
	return q.rdb.RPush(ctx, queueName, data).Err()
}
