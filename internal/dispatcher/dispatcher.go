package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/greenwaste/collection-gateway/internal/config"
	"github.com/greenwaste/collection-gateway/internal/queue"
	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/redis"
	"github.com/greenwaste/collection-gateway/pkg/worker"
)

const ProcessingTimeout = time.Second * 10
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

const consumerInstances = 4
const workerPoolSize = 50

// Processor is one job-type handler behind the dispatch service.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
	GetType() string
}

// Service glues the queue consumers to a worker pool: consumers block per
// job while the pool fans the actual work out.
type Service struct {
	adapter   redis.RedisAdapter
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewService(adapter redis.RedisAdapter) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter: adapter,
		queues:  make([]*queue.Queue, 0),
		metrics: NewServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(10_000, workerPoolSize, nil),
	}, nil
}

func (s *Service) RegisterProcessor(processor Processor) {
	s.processor = processor
	logger.Info("dispatcher: registered processor", "type", processor.GetType())
}

func (s *Service) Start() error {
	logger.Info("starting dispatch service")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("dispatcher: worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < consumerInstances; i++ {
		queueConfig := queue.Config{
			Name:              config.Get().QueueName,
			ConsumerGroup:     config.Get().QueueConsumerGroup,
			ConsumerName:      fmt.Sprintf("%s-instance-%d", config.Get().QueueConsumerName, i),
			MaxRetries:        config.Get().QueueMaxRetries,
			VisibilityTimeout: config.Get().QueueVisibilityTimeout,
			PollInterval:      config.Get().QueuePollInterval,
			BatchSize:         config.Get().QueueBatchSize,
			MaxLen:            config.Get().QueueMaxLen,
			EnableDLQ:         config.Get().QueueEnableDLQ,
		}

		q, err := queue.New(s.adapter, queueConfig)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}

		if err := q.Consume(s.jobHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("dispatch service started",
		"consumers", len(s.queues), "workers", workerPoolSize)
	return nil
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.metrics.GetStats()
	logger.Info("dispatcher metrics",
		"total_processed", stats["total_processed"],
		"total_failed", stats["total_failed"],
		"rate_per_second", stats["rate_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range s.queues {
		if qStats, err := q.Stats(); err == nil {
			logger.Info("queue stats", "queue", i, "total", qStats.TotalJobs, "pending", qStats.PendingJobs)
		}
	}
}

func (s *Service) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("dispatcher health check: redis connection error", "error", err)
		return
	}

	for i, q := range s.queues {
		stats, err := q.Stats()
		if err != nil {
			logger.Warn("dispatcher health check: queue stats unavailable", "queue", i, "error", err)
			continue
		}

		if stats.PendingJobs > 10000 {
			logger.Warn("dispatcher health check: queue has high lag",
				"queue", i, "pending_jobs", stats.PendingJobs)
		}
	}
}

func (s *Service) Stop() {
	logger.Info("shutting down dispatch service")

	s.cancel()

	stopChan := make(chan bool, len(s.queues))
	for i, q := range s.queues {
		go func(index int, q *queue.Queue) {
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("dispatcher: error stopping queue", "queue", index, "error", err)
			}
			stopChan <- true
		}(i, q)
	}

	for range s.queues {
		select {
		case <-stopChan:
		case <-time.After(ShutdownTimeout + 5*time.Second):
			logger.Warn("dispatcher: timeout waiting for queues to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("dispatch service stopped")
}

type jobResult struct {
	job        *queue.Job
	resultChan chan error
	ctx        context.Context
}

// jobHandler hands the job to the worker pool and blocks until the pool
// reports a result, so ack/nack decisions stay with the queue.
func (s *Service) jobHandler(ctx context.Context, job *queue.Job) error {
	resultChan := make(chan error, 1)

	jobCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	s.worker.Enqueue(&jobResult{
		job:        job,
		resultChan: resultChan,
		ctx:        jobCtx,
	})

	select {
	case err := <-resultChan:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("timeout waiting for worker: %w", jobCtx.Err())
	}
}

func (s *Service) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("dispatcher: invalid job type in worker", "worker", workerIndex)
		return
	}

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("dispatcher: job context cancelled before processing", "worker", workerIndex)
		return
	default:
	}

	start := time.Now()
	var resultErr error

	if s.processor == nil {
		logger.Error("dispatcher: no processor registered", "worker", workerIndex)
		s.metrics.RecordFailure()
	} else if err := s.processor.Process(jobRes.ctx, jobRes.job); err != nil {
		s.metrics.RecordFailure()
		logger.Error("dispatcher: failed to process job", "worker", workerIndex, "error", err)
		resultErr = err
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("dispatcher: job handler timed out before result delivery", "worker", workerIndex)
	}
}
