package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeNotificationDelivery JobType = "notification_delivery"
)

const defaultMaxTries = 3

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
	LastError string          `json:"last_error,omitempty"`
}

type JobHandler func(ctx context.Context, job *Job) error

// DelayedQueue holds jobs waiting for a retry, scored by their due time.
func DelayedQueue(queue string) string {
	return queue + ":delayed"
}

// DeadQueue holds jobs that exhausted their attempts.
func DeadQueue(queue string) string {
	return queue + ":dead"
}

type Worker struct {
	client      *redis.Client
	handlers    map[JobType]JobHandler
	queue       string
	pollTimeout time.Duration
	retryDelay  time.Duration
	jobTimeout  time.Duration
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient *redis.Client
	Queue       string
	// PollTimeout bounds each blocking pop; Redis rounds anything below a
	// second up to one.
	PollTimeout time.Duration
	RetryDelay  time.Duration
	JobTimeout  time.Duration
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if config.Queue == "" {
		config.Queue = "notifications"
	}
	if config.PollTimeout < time.Second {
		config.PollTimeout = time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}

	return &Worker{
		client:      config.RedisClient,
		handlers:    make(map[JobType]JobHandler),
		queue:       config.Queue,
		pollTimeout: config.PollTimeout,
		retryDelay:  config.RetryDelay,
		jobTimeout:  config.JobTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	log.Printf("Starting worker on queue %q with %d goroutines", w.queue, concurrency)

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}

	w.wg.Add(1)
	go w.schedulerLoop()
}

func (w *Worker) Stop() {
	log.Println("Stopping worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if err := w.ProcessNext(w.ctx); err != nil {
			if w.ctx.Err() != nil {
				return
			}
			log.Printf("Error processing job: %v", err)
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *Worker) schedulerLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.retryDelay)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := w.PromoteDue(w.ctx, now); err != nil && w.ctx.Err() == nil {
				log.Printf("Error promoting delayed jobs: %v", err)
			}
		}
	}
}

// ProcessNext waits up to the poll timeout for one job and runs it. An empty
// queue is not an error.
func (w *Worker) ProcessNext(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.pollTimeout, w.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return w.executeJob(ctx, &job)
}

func (w *Worker) executeJob(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	err := handler(jobCtx, job)
	if err == nil {
		log.Printf("Job %s completed successfully", job.ID)
		return nil
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts < job.MaxTries {
		log.Printf("Job %s failed (attempt %d/%d), retrying: %v", job.ID, job.Attempts, job.MaxTries, err)
		return w.retryJob(ctx, job)
	}

	log.Printf("Job %s failed permanently after %d attempts: %v", job.ID, job.Attempts, err)
	return w.moveToDeadQueue(ctx, job, err)
}

func (w *Worker) retryJob(ctx context.Context, job *Job) error {
	delay := w.retryDelay * time.Duration(1<<(job.Attempts-1))
	job.ProcessAt = time.Now().Add(delay)

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.ZAdd(ctx, DelayedQueue(w.queue), redis.Z{
		Score:  float64(job.ProcessAt.UnixMilli()),
		Member: jobData,
	}).Err()
}

// PromoteDue moves delayed jobs whose due time has passed back onto the queue.
func (w *Worker) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	delayed := DelayedQueue(w.queue)

	due, err := w.client.ZRangeByScore(ctx, delayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	promoted := 0
	for _, jobData := range due {
		removed, err := w.client.ZRem(ctx, delayed, jobData).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to claim delayed job: %w", err)
		}
		// Another worker claimed it first.
		if removed == 0 {
			continue
		}
		if err := w.client.RPush(ctx, w.queue, jobData).Err(); err != nil {
			return promoted, fmt.Errorf("failed to requeue job: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now().UTC(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(ctx, DeadQueue(w.queue), deadJobData).Err()
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client, maxTries: defaultMaxTries}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload interface{}) (*Job, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Payload:   data,
		MaxTries:  q.maxTries,
		CreatedAt: now,
		ProcessAt: now,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, queue, jobData).Err(); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *JobQueue) QueueSize(ctx context.Context, queue string) (int64, error) {
	return q.client.LLen(ctx, queue).Result()
}

// Stats reports the depth of the live, delayed and dead queues.
func (q *JobQueue) Stats(ctx context.Context, queue string) map[string]interface{} {
	stats := map[string]interface{}{"queue": queue}

	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, queue)
	delayed := pipe.ZCard(ctx, DelayedQueue(queue))
	dead := pipe.LLen(ctx, DeadQueue(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		stats["error"] = err.Error()
		return stats
	}

	stats["pending"] = pending.Val()
	stats["delayed"] = delayed.Val()
	stats["dead"] = dead.Val()
	return stats
}
