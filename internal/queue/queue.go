package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/redis"
)

// Job is one unit of work pulled off the stream. Jobs carry an opaque
// payload plus string metadata; the dispatcher decodes the payload itself.
type Job struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	Attempts  int
	queue     *Queue
}

// Handler processes a job. Returning nil acknowledges the job; returning an
// error leaves it pending so the reclaim loop retries it later.
type Handler func(ctx context.Context, job *Job) error

type Config struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Queue is a redis-streams work queue with consumer groups, visibility
// timeout based redelivery and an optional dead-letter stream.
type Queue struct {
	adapter redis.RedisAdapter
	config  Config
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	inwork  map[string]*Job
}

type Stats struct {
	TotalJobs     int64
	PendingJobs   int64
	ConsumerCount int64
}

func New(adapter redis.RedisAdapter, config Config) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		inwork:  make(map[string]*Job),
	}

	// BUSYGROUP from a previous run is fine.
	_ = q.adapter.XGroupCreateMkStream(q.config.Name, q.config.ConsumerGroup, "0")

	return q, nil
}

// Publish appends a job to the stream and returns its stream id.
func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
		"attempts":  0,
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := q.adapter.XAdd(q.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	if q.config.MaxLen > 0 {
		_ = q.adapter.XTrimApprox(q.config.Name, q.config.MaxLen)
	}

	return id, nil
}

// PublishJSON publishes a JSON-encoded payload.
func (q *Queue) PublishJSON(ctx context.Context, payload interface{}, metadata map[string]string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return q.Publish(ctx, data, metadata)
}

// Consume starts the consume loop. Jobs are acknowledged automatically when
// the handler returns nil.
func (q *Queue) Consume(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("job handler is required")
	}

	q.handler = handler
	q.wg.Add(1)

	go q.consumeLoop()

	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.readNewJobs()
			q.claimStuckJobs()
		}
	}
}

func (q *Queue) readNewJobs() {
	messages, err := q.adapter.XReadGroup(
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.Name,
		">",
		q.config.BatchSize,
	)
	if err != nil {
		if err != redis.NilError {
			logger.Error("queue: read failed", "queue", q.config.Name, "error", err)
		}
		return
	}

	for _, streamMsg := range messages {
		job := q.toJob(streamMsg)
		q.handleJob(job)
	}
}

// claimStuckJobs redelivers jobs whose consumer died or timed out. Attempts
// are taken from the pending entry's delivery count, so repeated redeliveries
// accumulate and eventually cross the dead-letter threshold.
func (q *Queue) claimStuckJobs() {
	pending, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := q.adapter.XPendingExt(q.config.Name, q.config.ConsumerGroup, "-", "+", 100)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	var stale []string
	deliveries := make(map[string]int64, len(pendingExt))
	for _, p := range pendingExt {
		if p.Idle >= q.config.VisibilityTimeout {
			stale = append(stale, p.ID)
			deliveries[p.ID] = p.RetryCount
		}
	}
	if len(stale) == 0 {
		return
	}

	messages, err := q.adapter.XClaim(
		q.config.Name,
		q.config.ConsumerGroup,
		q.config.ConsumerName,
		q.config.VisibilityTimeout,
		stale...,
	)
	if err != nil {
		logger.Error("queue: claim failed", "queue", q.config.Name, "error", err)
		return
	}

	for _, streamMsg := range messages {
		job := q.toJob(streamMsg)
		// The pending entry's delivery count survives redeliveries, unlike
		// the stream fields, and already includes this claim.
		if n, ok := deliveries[job.ID]; ok {
			job.Attempts = int(n)
		} else {
			job.Attempts++
		}
		q.handleJob(job)
	}
}

func (q *Queue) handleJob(job *Job) {
	q.mu.Lock()
	q.inwork[job.ID] = job
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.inwork, job.ID)
		q.mu.Unlock()
	}()

	if job.Attempts >= q.config.MaxRetries {
		q.moveToDeadLetter(job)
		_ = q.ack(job.ID)
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(ctx, job); err != nil {
		// Not acked: the job stays pending and is reclaimed after the
		// visibility timeout.
		return
	}

	_ = q.ack(job.ID)
}

func (q *Queue) ack(jobID string) error {
	return q.adapter.XAck(q.config.Name, q.config.ConsumerGroup, jobID)
}

func (q *Queue) moveToDeadLetter(job *Job) {
	if !q.config.EnableDLQ {
		return
	}

	values := map[string]interface{}{
		"data":           string(job.Data),
		"original_id":    job.ID,
		"attempts":       job.Attempts,
		"failed_at":      time.Now().Unix(),
		"original_queue": q.config.Name,
	}
	for k, v := range job.Metadata {
		values["meta_"+k] = v
	}

	if _, err := q.adapter.XAdd(q.config.Name+":dlq", values); err != nil {
		logger.Error("queue: dead-letter publish failed", "queue", q.config.Name, "job_id", job.ID, "error", err)
		return
	}

	logger.Warn("queue: job moved to dead-letter stream",
		"queue", q.config.Name, "job_id", job.ID, "attempts", job.Attempts)
}

func (q *Queue) toJob(streamMsg redis.StreamMessage) *Job {
	job := &Job{
		ID:       streamMsg.ID,
		Metadata: make(map[string]string),
		queue:    q,
	}

	for k, v := range streamMsg.Values {
		switch k {
		case "data":
			if data, ok := v.(string); ok {
				job.Data = []byte(data)
			}
		case "attempts":
			if attempts, ok := v.(string); ok {
				fmt.Sscanf(attempts, "%d", &job.Attempts)
			}
		default:
			if len(k) > 5 && k[:5] == "meta_" {
				if val, ok := v.(string); ok {
					job.Metadata[k[5:]] = val
				}
			}
		}
	}

	if job.Timestamp.IsZero() {
		job.Timestamp = time.Now()
	}

	return job
}

// Stop cancels the consume loop and waits for in-flight jobs.
func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for queue to stop")
	}
}

func (q *Queue) Stats() (*Stats, error) {
	total, err := q.adapter.XLen(q.config.Name)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalJobs: total}

	pending, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup)
	if err == nil && pending != nil {
		stats.PendingJobs = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}

	return stats, nil
}
