package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SendStatus mirrors the provider wire protocol.
type SendStatus string

const (
	StatusAccepted SendStatus = "ACCEPTED"
	StatusRejected SendStatus = "REJECTED"
)

type SendMessageRequest struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to" binding:"required"`
	Message        string `json:"message" binding:"required"`
	ImageURL       string `json:"image_url"`
}

type SendMessageResponse struct {
	MessageID  string     `json:"message_id"`
	Status     SendStatus `json:"status"`
	ErrorCode  string     `json:"error_code,omitempty"`
	ErrorMsg   string     `json:"error_message,omitempty"`
	AcceptedAt time.Time  `json:"accepted_at"`
}

type deliveryCallback struct {
	MessageID   string `json:"message_id"`
	Status      string `json:"status"`
	DeliveredAt string `json:"delivered_at"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	ProviderID string    `json:"provider_id"`
	Timestamp  time.Time `json:"timestamp"`
	AcceptRate float64   `json:"accept_rate"`
}

// MockProvider simulates a WhatsApp Business API provider: it accepts
// messages, then fires a delivery callback at the gateway after a delay.
type MockProvider struct {
	acceptRate  float64
	minDelay    time.Duration
	maxDelay    time.Duration
	callbackURL string
	providerID  string
	rng         *rand.Rand
}

func NewMockProvider(acceptRate float64, minDelay, maxDelay time.Duration, callbackURL string) *MockProvider {
	return &MockProvider{
		acceptRate:  acceptRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		callbackURL: callbackURL,
		providerID:  "MOCK_WA_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockProvider) accept(req *SendMessageRequest) *SendMessageResponse {
	response := &SendMessageResponse{
		AcceptedAt: time.Now(),
	}

	if !m.shouldAccept() {
		response.Status = StatusRejected
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)

		log.Warn().
			Int64("notification_id", req.NotificationID).
			Str("to", req.To).
			Str("error_code", response.ErrorCode).
			Msg("message rejected")
		return response
	}

	response.MessageID = "wamid." + uuid.New().String()
	response.Status = StatusAccepted

	log.Info().
		Int64("notification_id", req.NotificationID).
		Str("to", req.To).
		Str("message_id", response.MessageID).
		Msg("message accepted")

	// Delivery confirmation arrives later, like the real thing.
	if m.callbackURL != "" {
		go m.fireDeliveryCallback(response.MessageID)
	}
	return response
}

func (m *MockProvider) fireDeliveryCallback(messageID string) {
	time.Sleep(m.randomDelay())

	deliveredAt := time.Now()
	payload, _ := json.Marshal(deliveryCallback{
		MessageID:   messageID,
		Status:      "delivered",
		DeliveredAt: deliveredAt.Format(time.RFC3339),
	})

	resp, err := http.Post(m.callbackURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Warn().Err(err).Str("message_id", messageID).Msg("delivery callback failed")
		return
	}
	defer resp.Body.Close()

	log.Info().
		Str("message_id", messageID).
		Int("status", resp.StatusCode).
		Msg("delivery callback sent")
}

func (m *MockProvider) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockProvider) shouldAccept() bool {
	return m.rng.Float64() < m.acceptRate
}

func (m *MockProvider) randomErrorCode() string {
	errorCodes := []string{
		"INVALID_NUMBER",
		"RATE_LIMITED",
		"TEMPLATE_REJECTED",
		"RECIPIENT_OPTED_OUT",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockProvider) errorMessage(code string) string {
	messages := map[string]string{
		"INVALID_NUMBER":      "The phone number is not registered on WhatsApp",
		"RATE_LIMITED":        "Too many messages sent to this recipient",
		"TEMPLATE_REJECTED":   "Message content violates template policy",
		"RECIPIENT_OPTED_OUT": "The recipient has opted out of notifications",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	response := h.provider.accept(&req)

	statusCode := http.StatusOK
	if response.Status == StatusRejected {
		statusCode = http.StatusAccepted
	}
	c.JSON(statusCode, response)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		ProviderID: h.provider.providerID,
		Timestamp:  time.Now(),
		AcceptRate: h.provider.acceptRate,
	})
}

// UpdateConfig allows changing the accept rate at runtime, to exercise the
// gateway's retry and circuit breaker paths.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		AcceptRate *float64 `json:"accept_rate"`
	}
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.AcceptRate != nil {
		if *config.AcceptRate >= 0 && *config.AcceptRate <= 1.0 {
			h.provider.acceptRate = *config.AcceptRate
			log.Info().Float64("rate", *config.AcceptRate).Msg("updated accept rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Configuration updated",
		"accept_rate": h.provider.acceptRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/messages", handler.SendMessage)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")
	acceptRate := getEnvFloat("ACCEPT_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 1*time.Second)
	maxDelay := getEnvDuration("MAX_DELAY", 5*time.Second)
	callbackURL := getEnv("DELIVERY_CALLBACK_URL", "")

	log.Info().
		Str("port", port).
		Float64("accept_rate", acceptRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Str("callback_url", callbackURL).
		Msg("starting mock WhatsApp provider")

	provider := NewMockProvider(acceptRate, minDelay, maxDelay, callbackURL)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
