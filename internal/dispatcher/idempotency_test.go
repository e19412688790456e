package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/greenwaste/collection-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdempotency(t *testing.T) (*miniredis.Miniredis, *IdempotencyService) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, NewIdempotencyService(adapter, DefaultIdempotencyConfig())
}

func TestIdempotencyService_FirstAttempt(t *testing.T) {
	_, service := setupIdempotency(t)
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "41")
	require.NoError(t, err)
	require.NotNil(t, pc)

	assert.Equal(t, "41", pc.NotificationID)
	assert.Equal(t, 0, pc.RetryCount)
	assert.False(t, pc.IsRetry)
	assert.True(t, pc.lockAcquired)
}

func TestIdempotencyService_ConcurrentLock(t *testing.T) {
	_, service := setupIdempotency(t)
	ctx := context.Background()

	pc1, err := service.AcquireProcessingLock(ctx, "42")
	require.NoError(t, err)

	// Second consumer must not get the lock while the first holds it.
	_, err = service.AcquireProcessingLock(ctx, "42")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)

	require.NoError(t, service.ReleaseLock(ctx, pc1))

	pc2, err := service.AcquireProcessingLock(ctx, "42")
	require.NoError(t, err)
	assert.NotNil(t, pc2)
}

func TestIdempotencyService_AlreadyProcessed(t *testing.T) {
	_, service := setupIdempotency(t)
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "43")
	require.NoError(t, err)
	require.NoError(t, service.MarkSuccess(ctx, pc))

	processed, err := service.IsProcessed(ctx, "43")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = service.AcquireProcessingLock(ctx, "43")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestIdempotencyService_RetryCounting(t *testing.T) {
	_, service := setupIdempotency(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pc, err := service.AcquireProcessingLock(ctx, "44")
		require.NoError(t, err)
		assert.Equal(t, i, pc.RetryCount)
		assert.Equal(t, i > 0, pc.IsRetry)

		require.NoError(t, service.MarkFailure(ctx, pc, assert.AnError))
	}

	count, err := service.GetRetryCount(ctx, "44")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = service.AcquireProcessingLock(ctx, "44")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestIdempotencyService_SuccessCleansUpRetryCounter(t *testing.T) {
	_, service := setupIdempotency(t)
	ctx := context.Background()

	pc, err := service.AcquireProcessingLock(ctx, "45")
	require.NoError(t, err)
	require.NoError(t, service.MarkFailure(ctx, pc, assert.AnError))

	pc, err = service.AcquireProcessingLock(ctx, "45")
	require.NoError(t, err)
	assert.Equal(t, 1, pc.RetryCount)

	require.NoError(t, service.MarkSuccess(ctx, pc))

	count, err := service.GetRetryCount(ctx, "45")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIdempotencyService_LockExpiry(t *testing.T) {
	mr, service := setupIdempotency(t)
	ctx := context.Background()

	_, err := service.AcquireProcessingLock(ctx, "46")
	require.NoError(t, err)

	// Simulate a dead consumer: let the lock TTL lapse.
	mr.FastForward(31 * time.Second)

	pc, err := service.AcquireProcessingLock(ctx, "46")
	require.NoError(t, err)
	assert.NotNil(t, pc)
}
