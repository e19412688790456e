package e2e

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/greenwaste/collection-gateway/internal/dispatcher"
	gateway "github.com/greenwaste/collection-gateway/internal/gateways"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/queue"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/greenwaste/collection-gateway/internal/services"
	"github.com/greenwaste/collection-gateway/pkg/pg"
	"github.com/greenwaste/collection-gateway/pkg/redis"
	"github.com/greenwaste/collection-gateway/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestEnvironment struct {
	DB               *pg.DB
	Redis            *miniredis.Miniredis
	RedisAdapter     redis.RedisAdapter
	Queue            *queue.Queue
	SettlementRepo   *repository.SettlementRepository
	ContainerRepo    *repository.ContainerTypeRepository
	PricingRepo      *repository.PricingRepository
	ReportRepo       *repository.ReportRepository
	NotificationRepo *repository.NotificationRepository
	PricingService   *services.PricingService
	ReportService    *services.ReportService
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db := helpers.SetupTestDB(t)
	mr, redisAdapter := helpers.SetupTestRedis(t)

	q, err := queue.New(redisAdapter, queue.Config{
		Name:              "test:notifications",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	})
	require.NoError(t, err)

	settlementRepo := repository.NewSettlementRepository(db)
	containerRepo := repository.NewContainerTypeRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	pricingService := services.NewPricingService(pricingRepo, containerRepo)
	reportService := services.NewReportService(
		reportRepo, settlementRepo, notificationRepo, pricingService, q, 100, 1000)

	return &TestEnvironment{
		DB:               db,
		Redis:            mr,
		RedisAdapter:     redisAdapter,
		Queue:            q,
		SettlementRepo:   settlementRepo,
		ContainerRepo:    containerRepo,
		PricingRepo:      pricingRepo,
		ReportRepo:       reportRepo,
		NotificationRepo: notificationRepo,
		PricingService:   pricingService,
		ReportService:    reportService,
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	time.Sleep(100 * time.Millisecond)
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func (env *TestEnvironment) seedKfarSaba(t *testing.T) {
	helpers.CreateTestSettlement(t, env.DB, 1, "Kfar Saba", "+972501234567")
	helpers.CreateTestContainerType(t, env.DB, 2, "10 cubic tank", 10)
	helpers.CreateTestPricing(t, env.DB, 1, 2, "500", true)
}

func TestE2E_ReportCreationPricesAndEnqueues(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedKfarSaba(t)

	rep, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)
	assert.NotZero(t, rep.ID)
	assert.Equal(t, "50.00", rep.UnitPrice.StringFixed(2))
	assert.Equal(t, "160.00", rep.TotalPrice.StringFixed(2))
	assert.Equal(t, "ILS", rep.Currency)
	require.NotNil(t, rep.PricingID)

	// One pending notification addressed to the settlement contact.
	notifications, total, err := env.NotificationRepo.List(ctx, model.AdminScope(), model.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, rep.ID, notifications[0].ReportID)
	assert.Equal(t, "+972501234567", notifications[0].Destination)
	assert.Equal(t, model.NotificationStatusPending, notifications[0].Status)
	assert.Contains(t, notifications[0].Message, "160.00")

	stats, err := env.Queue.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalJobs, int64(1))
}

func TestE2E_MissingPricingRejectsReport(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	helpers.CreateTestSettlement(t, env.DB, 1, "Kfar Saba", "+972501234567")
	helpers.CreateTestContainerType(t, env.DB, 2, "10 cubic tank", 10)
	// No pricing rule seeded.

	rep, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	assert.ErrorIs(t, err, services.ErrPricingNotFound)
	assert.Nil(t, rep)

	var count int64
	env.DB.Read(ctx).Model(&repository.ReportEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_SuppliedPricingStoredVerbatim(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedKfarSaba(t)

	unit := decimal.RequireFromString("45")
	total := decimal.RequireFromString("144.00")
	rep, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
		UnitPrice:       &unit,
		TotalPrice:      &total,
		Currency:        "ILS",
	})
	require.NoError(t, err)
	assert.Equal(t, "45.00", rep.UnitPrice.StringFixed(2))
	assert.Equal(t, "144.00", rep.TotalPrice.StringFixed(2))
	assert.Nil(t, rep.PricingID)
}

func TestE2E_NotificationConsumption(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedKfarSaba(t)

	rep, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)

	received := make(chan bool, 1)
	handler := func(ctx context.Context, job *queue.Job) error {
		var n model.Notification
		err := json.Unmarshal(job.Data, &n)
		assert.NoError(t, err)
		assert.Equal(t, rep.ID, n.ReportID)
		assert.Equal(t, "+972501234567", n.Destination)
		assert.Equal(t, "whatsapp", job.Metadata["channel"])
		received <- true
		return nil
	}

	err = env.Queue.Consume(handler)
	require.NoError(t, err)

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("notification not consumed within timeout")
	}
}

// acceptingSender fakes the WhatsApp gateway for the dispatch leg.
type acceptingSender struct {
	sent chan *gateway.SendRequest
}

func (s *acceptingSender) Send(ctx context.Context, req *gateway.SendRequest) (*gateway.SendResponse, error) {
	s.sent <- req
	return &gateway.SendResponse{
		MessageID:  "wamid.e2e",
		Status:     gateway.StatusAccepted,
		AcceptedAt: time.Now(),
	}, nil
}

func TestE2E_DispatchMarksSentAndFlagsReport(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedKfarSaba(t)

	rep, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)

	sender := &acceptingSender{sent: make(chan *gateway.SendRequest, 1)}
	idempotency := dispatcher.NewIdempotencyService(env.RedisAdapter, dispatcher.DefaultIdempotencyConfig())
	processor := dispatcher.NewNotificationProcessor(sender, env.NotificationRepo, env.ReportRepo, idempotency)

	err = env.Queue.Consume(func(ctx context.Context, job *queue.Job) error {
		return processor.Process(ctx, job)
	})
	require.NoError(t, err)

	select {
	case req := <-sender.sent:
		assert.Equal(t, "+972501234567", req.To)
	case <-time.After(3 * time.Second):
		t.Fatal("notification not dispatched within timeout")
	}

	helpers.AssertEventually(t, 3*time.Second, func() bool {
		reports, _, err := env.ReportRepo.List(ctx, model.AdminScope(), model.ReportFilter{})
		if err != nil || len(reports) == 0 {
			return false
		}
		return reports[0].NotificationSent
	}, "report notification flag not set")

	notifications, _, err := env.NotificationRepo.List(ctx, model.AdminScope(), model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationStatusSent, notifications[0].Status)
	assert.Equal(t, "wamid.e2e", notifications[0].ProviderMessageID)
	assert.Equal(t, rep.ID, notifications[0].ReportID)
}

func TestE2E_SettlementScopedReads(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	env.seedKfarSaba(t)
	helpers.CreateTestSettlement(t, env.DB, 2, "Raanana", "+972527654321")
	helpers.CreateTestPricing(t, env.DB, 2, 2, "400", true)

	_, err := env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID: 1, DriverID: 100, ContainerTypeID: 2, Volume: 3.2,
	})
	require.NoError(t, err)
	_, err = env.ReportService.Create(ctx, model.ReportCreateRequest{
		SettlementID: 2, DriverID: 200, ContainerTypeID: 2, Volume: 1.5,
	})
	require.NoError(t, err)

	own, total, err := env.ReportService.List(ctx, model.SettlementScope(5, 1), model.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, own, 1)
	assert.Equal(t, int64(1), own[0].SettlementID)

	all, total, err := env.ReportService.List(ctx, model.AdminScope(), model.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}
