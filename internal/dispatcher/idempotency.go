package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("notification already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// IdempotencyConfig tunes the redis keys guarding at-most-once delivery:
// a short-lived lock against concurrent consumers, a long-lived processed
// marker against redelivery, and a retry counter shared across consumers.
type IdempotencyConfig struct {
	LockTTL            time.Duration
	ProcessedTTL       time.Duration
	MaxRetries         int
	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "notify:retry:",
		LockKeyPrefix:      "notify:lock:",
		ProcessedKeyPrefix: "notify:done:",
	}
}

type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ProcessingContext struct {
	NotificationID string
	RetryCount     int
	IsRetry        bool
	lockAcquired   bool
	service        *IdempotencyService
}

func (s *IdempotencyService) AcquireProcessingLock(ctx context.Context, notificationID string) (*ProcessingContext, error) {
	processedKey := s.config.ProcessedKeyPrefix + notificationID
	exists, err := s.redis.Exist(processedKey)
	if err != nil {
		// A failed check must not block the pipeline; a duplicate send is the
		// lesser evil.
		logger.Warn("dispatcher: failed to check processed marker",
			"notification_id", notificationID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyProcessed
	}

	retryKey := s.config.RetryKeyPrefix + notificationID
	retryCount := 0
	if raw, err := s.redis.Get(retryKey); err == nil && len(raw) > 0 {
		fmt.Sscanf(string(raw), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: notification_id=%s, retries=%d", ErrMaxRetriesExceeded, notificationID, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + notificationID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &ProcessingContext{
		NotificationID: notificationID,
		RetryCount:     retryCount,
		IsRetry:        retryCount > 0,
		lockAcquired:   true,
		service:        s,
	}, nil
}

// MarkSuccess sets the processed marker and drops the lock and retry counter.
func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext) error {
	processedKey := s.config.ProcessedKeyPrefix + pc.NotificationID
	if err := s.redis.Set(processedKey, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to set processed marker: %w", err)
	}

	s.cleanup(pc)
	return nil
}

// MarkFailure bumps the retry counter and releases the lock so another
// consumer can pick the notification up.
func (s *IdempotencyService) MarkFailure(ctx context.Context, pc *ProcessingContext, reason error) error {
	retryKey := s.config.RetryKeyPrefix + pc.NotificationID
	newRetryCount := pc.RetryCount + 1

	if err := s.redis.Set(retryKey, []byte(fmt.Sprintf("%d", newRetryCount)), s.config.ProcessedTTL); err != nil {
		logger.Error("dispatcher: failed to increment retry counter",
			"notification_id", pc.NotificationID, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + pc.NotificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("dispatcher: failed to remove lock",
			"notification_id", pc.NotificationID, "error", err)
	}
	pc.lockAcquired = false

	logger.Warn("dispatcher: notification send failed, will retry",
		"notification_id", pc.NotificationID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + pc.NotificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("dispatcher: failed to release lock",
			"notification_id", pc.NotificationID, "error", err)
		return err
	}

	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) cleanup(pc *ProcessingContext) {
	lockKey := s.config.LockKeyPrefix + pc.NotificationID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("dispatcher: failed to cleanup lock",
			"notification_id", pc.NotificationID, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + pc.NotificationID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("dispatcher: failed to cleanup retry counter",
			"notification_id", pc.NotificationID, "error", err)
	}

	pc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, notificationID string) (int, error) {
	raw, err := s.redis.Get(s.config.RetryKeyPrefix + notificationID)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(raw), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsProcessed(ctx context.Context, notificationID string) (bool, error) {
	exists, err := s.redis.Exist(s.config.ProcessedKeyPrefix + notificationID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
