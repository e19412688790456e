package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestProviderMetrics_RecordSuccess(t *testing.T) {
	metrics := &ProviderMetrics{}

	metrics.RecordSuccess(100)
	metrics.RecordSuccess(200)

	assert.Equal(t, int64(2), metrics.TotalRequests.Load())
	assert.Equal(t, int64(2), metrics.SuccessfulReqs.Load())
	assert.Equal(t, int64(0), metrics.FailedReqs.Load())
	assert.Equal(t, float64(1.0), metrics.SuccessRate())
	assert.Equal(t, int64(150), metrics.AvgLatencyMs())
}

func TestProviderMetrics_RecordFailure(t *testing.T) {
	metrics := &ProviderMetrics{}

	metrics.RecordSuccess(100)
	metrics.RecordFailure()
	metrics.RecordFailure()

	assert.Equal(t, int64(3), metrics.TotalRequests.Load())
	assert.Equal(t, int64(1), metrics.SuccessfulReqs.Load())
	assert.Equal(t, int64(2), metrics.FailedReqs.Load())
	assert.InDelta(t, 0.333, metrics.SuccessRate(), 0.01)
	assert.Equal(t, int32(2), metrics.ConsecutiveFails.Load())
}

func TestProvider_IsAvailable(t *testing.T) {
	client := &fasthttp.Client{}
	provider := NewProvider("test", "http://localhost:8080", client)

	t.Run("healthy provider is available", func(t *testing.T) {
		provider.SetState(StateHealthy)
		assert.True(t, provider.IsAvailable())
	})

	t.Run("unhealthy provider is not available", func(t *testing.T) {
		provider.SetState(StateUnhealthy)
		assert.False(t, provider.IsAvailable())
	})

	t.Run("circuit open provider becomes available after timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(-1 * time.Second).Unix())
		assert.True(t, provider.IsAvailable())
		assert.Equal(t, StateHealthy, provider.GetState())
	})

	t.Run("circuit open provider is not available before timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())
		assert.False(t, provider.IsAvailable())
	})
}

func TestClient_SelectProvider(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: "http://primary:8080"},
			{Name: "fallback", URL: "http://fallback:8080"},
		},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	t.Run("primary wins when available", func(t *testing.T) {
		provider, err := client.SelectProvider()
		require.NoError(t, err)
		assert.Equal(t, "primary", provider.name)
	})

	t.Run("fallback when primary circuit is open", func(t *testing.T) {
		client.providers[0].SetState(StateCircuitOpen)
		client.providers[0].circuitOpenUntil.Store(time.Now().Add(time.Minute).Unix())

		provider, err := client.SelectProvider()
		require.NoError(t, err)
		assert.Equal(t, "fallback", provider.name)
	})

	t.Run("no providers available", func(t *testing.T) {
		client.providers[1].SetState(StateUnhealthy)

		_, err := client.SelectProvider()
		assert.ErrorIs(t, err, ErrNoAvailableProviders)
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: "http://primary:8080"},
		},
		Timeout:                 time.Second,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   time.Minute,
	})
	require.NoError(t, err)
	defer client.Close()

	provider := client.providers[0]

	provider.metrics.RecordFailure()
	provider.metrics.RecordFailure()
	client.checkCircuitBreaker(provider)
	assert.Equal(t, StateHealthy, provider.GetState())

	provider.metrics.RecordFailure()
	client.checkCircuitBreaker(provider)
	assert.Equal(t, StateCircuitOpen, provider.GetState())
	assert.False(t, provider.IsAvailable())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
}

func TestClient_GetProviderStats(t *testing.T) {
	client, err := NewClient(&Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: "http://primary:8080"},
			{Name: "fallback", URL: "http://fallback:8080"},
		},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	client.providers[0].metrics.RecordSuccess(120)

	stats := client.GetProviderStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "primary", stats[0].Name)
	assert.Equal(t, int64(1), stats[0].TotalRequests)
	assert.Equal(t, "HEALTHY", stats[0].State)
}
