package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableProviders = errors.New("no available whatsapp providers")
)

type SendStatus string

const (
	StatusAccepted SendStatus = "ACCEPTED"
	StatusRejected SendStatus = "REJECTED"
)

// SendRequest is the payload handed to a WhatsApp provider.
type SendRequest struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to"`
	Message        string `json:"message"`
	ImageURL       string `json:"image_url,omitempty"`
}

// SendResponse is the provider's acceptance receipt. MessageID is the
// provider-side id later echoed by the delivery webhook.
type SendResponse struct {
	MessageID  string     `json:"message_id"`
	Status     SendStatus `json:"status"`
	ErrorCode  string     `json:"error_code,omitempty"`
	ErrorMsg   string     `json:"error_message,omitempty"`
	AcceptedAt time.Time  `json:"accepted_at"`
}

type ProviderMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	LastLatencyMs    atomic.Int64
	ConsecutiveFails atomic.Int32
	LastErrorTime    atomic.Int64
	LastSuccessTime  atomic.Int64
}

func (m *ProviderMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.LastLatencyMs.Store(latencyMs)
	m.ConsecutiveFails.Store(0)
	m.LastSuccessTime.Store(time.Now().Unix())
}

func (m *ProviderMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
	m.LastErrorTime.Store(time.Now().Unix())
}

func (m *ProviderMetrics) AvgLatencyMs() int64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / total
}

func (m *ProviderMetrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

type ProviderState int

const (
	StateHealthy ProviderState = iota
	StateUnhealthy
	StateCircuitOpen
)

// Provider is one WhatsApp endpoint. Providers are tried in configuration
// order: the first one is primary, the rest are fallbacks.
type Provider struct {
	name             string
	url              string
	client           *fasthttp.Client
	metrics          *ProviderMetrics
	state            atomic.Int32
	lastHealthCheck  atomic.Int64
	circuitOpenUntil atomic.Int64
}

func NewProvider(name, url string, client *fasthttp.Client) *Provider {
	p := &Provider{
		name:    name,
		url:     url,
		client:  client,
		metrics: &ProviderMetrics{},
	}
	p.state.Store(int32(StateHealthy))
	return p
}

func (p *Provider) GetState() ProviderState {
	return ProviderState(p.state.Load())
}

func (p *Provider) SetState(state ProviderState) {
	p.state.Store(int32(state))
}

func (p *Provider) IsAvailable() bool {
	state := p.GetState()
	if state == StateCircuitOpen {
		if time.Now().Unix() > p.circuitOpenUntil.Load() {
			// Half-open: let one request probe the provider.
			p.SetState(StateHealthy)
			return true
		}
		return false
	}
	return state != StateUnhealthy
}

type Config struct {
	Providers               []ProviderConfig
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	HealthCheckInterval     time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

type ProviderConfig struct {
	Name string
	URL  string
}

// Client sends WhatsApp messages through a prioritized provider list with
// per-provider circuit breaking and background health checks.
type Client struct {
	config    *Config
	providers []*Provider
	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.CircuitBreakerThreshold == 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout == 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	client := &Client{
		config:    config,
		providers: make([]*Provider, 0, len(config.Providers)),
		stopCh:    make(chan struct{}),
	}

	for _, pc := range config.Providers {
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		}

		client.providers = append(client.providers, NewProvider(pc.Name, pc.URL, httpClient))
		logger.Info("whatsapp provider initialized", "name", pc.Name, "url", pc.URL)
	}

	if config.HealthCheckInterval > 0 {
		client.wg.Add(1)
		go client.healthChecker()
	}

	return client, nil
}

// SelectProvider returns the first available provider in priority order.
func (c *Client) SelectProvider() (*Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, provider := range c.providers {
		if provider.IsAvailable() {
			return provider, nil
		}
	}
	return nil, ErrNoAvailableProviders
}

// Send delivers one message, failing over to the next provider on error.
func (c *Client) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		provider, err := c.SelectProvider()
		if err != nil {
			lastErr = err
			continue
		}

		startTime := time.Now()
		response, err := c.doRequest(ctx, provider, "POST", "/api/v1/messages", reqBody)
		latency := time.Since(startTime).Milliseconds()

		if err != nil {
			provider.metrics.RecordFailure()
			c.checkCircuitBreaker(provider)

			logger.Warn("whatsapp send failed, retrying",
				"error", err, "provider", provider.name, "attempt", attempt+1)

			lastErr = err
			continue
		}

		provider.metrics.RecordSuccess(latency)

		var resp SendResponse
		if err := json.Unmarshal(response, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if resp.Status == StatusRejected {
			return &resp, fmt.Errorf("provider rejected message: %s %s", resp.ErrorCode, resp.ErrorMsg)
		}

		logger.Info("whatsapp message accepted",
			"notification_id", req.NotificationID,
			"provider", provider.name,
			"provider_message_id", resp.MessageID,
			"latency_ms", latency)

		return &resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, provider *Provider, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(provider.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := provider.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}

func (c *Client) checkCircuitBreaker(provider *Provider) {
	consecutiveFails := provider.metrics.ConsecutiveFails.Load()
	if consecutiveFails >= int32(c.config.CircuitBreakerThreshold) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).Unix())

		logger.Warn("whatsapp provider circuit opened",
			"provider", provider.name,
			"consecutive_fails", consecutiveFails,
			"timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *Client) healthChecker() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performHealthChecks()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Client) performHealthChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	c.mu.RLock()
	providers := make([]*Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.RUnlock()

	for _, provider := range providers {
		if provider.GetState() == StateCircuitOpen {
			continue
		}

		healthy := c.checkProviderHealth(ctx, provider)
		provider.lastHealthCheck.Store(time.Now().Unix())

		oldState := provider.GetState()
		newState := oldState

		if healthy {
			if oldState == StateUnhealthy {
				newState = StateHealthy
			}
		} else {
			newState = StateUnhealthy
		}

		if newState != oldState {
			provider.SetState(newState)
			logger.Info("whatsapp provider state changed",
				"provider", provider.name,
				"old_state", stateString(oldState),
				"new_state", stateString(newState))
		}
	}
}

func (c *Client) checkProviderHealth(ctx context.Context, provider *Provider) bool {
	response, err := c.doRequest(ctx, provider, "GET", "/health", nil)
	if err != nil {
		return false
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(response, &health); err != nil {
		return false
	}

	return health.Status == "healthy"
}

// ProviderStats is a point-in-time snapshot for the admin stats endpoint.
type ProviderStats struct {
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	State            string  `json:"state"`
	TotalRequests    int64   `json:"total_requests"`
	SuccessfulReqs   int64   `json:"successful_requests"`
	FailedReqs       int64   `json:"failed_requests"`
	SuccessRate      float64 `json:"success_rate"`
	AvgLatencyMs     int64   `json:"avg_latency_ms"`
	LastLatencyMs    int64   `json:"last_latency_ms"`
	ConsecutiveFails int32   `json:"consecutive_fails"`
}

func (c *Client) GetProviderStats() []ProviderStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ProviderStats, 0, len(c.providers))
	for _, provider := range c.providers {
		stats = append(stats, ProviderStats{
			Name:             provider.name,
			URL:              provider.url,
			State:            stateString(provider.GetState()),
			TotalRequests:    provider.metrics.TotalRequests.Load(),
			SuccessfulReqs:   provider.metrics.SuccessfulReqs.Load(),
			FailedReqs:       provider.metrics.FailedReqs.Load(),
			SuccessRate:      provider.metrics.SuccessRate(),
			AvgLatencyMs:     provider.metrics.AvgLatencyMs(),
			LastLatencyMs:    provider.metrics.LastLatencyMs.Load(),
			ConsecutiveFails: provider.metrics.ConsecutiveFails.Load(),
		})
	}

	return stats
}

func (c *Client) Close() error {
	close(c.stopCh)
	c.wg.Wait()
	return nil
}

func stateString(state ProviderState) string {
	switch state {
	case StateHealthy:
		return "HEALTHY"
	case StateUnhealthy:
		return "UNHEALTHY"
	case StateCircuitOpen:
		return "CIRCUIT_OPEN"
	default:
		return "UNKNOWN"
	}
}
