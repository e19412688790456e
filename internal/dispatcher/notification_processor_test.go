package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	gateway "github.com/greenwaste/collection-gateway/internal/gateways"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWhatsAppSender struct {
	mock.Mock
}

func (m *MockWhatsAppSender) Send(ctx context.Context, req *gateway.SendRequest) (*gateway.SendResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResponse), args.Error(1)
}

type MockNotificationStateRepository struct {
	mock.Mock
}

func (m *MockNotificationStateRepository) MarkSent(ctx context.Context, id int64, providerMessageID string) error {
	args := m.Called(ctx, id, providerMessageID)
	return args.Error(0)
}

func (m *MockNotificationStateRepository) MarkFailed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReportFlagRepository struct {
	mock.Mock
}

func (m *MockReportFlagRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func notificationJob(t *testing.T, n model.Notification) *queue.Job {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return &queue.Job{ID: "1-0", Data: data}
}

func TestNotificationProcessor_Process_Success(t *testing.T) {
	_, idempotency := setupIdempotency(t)
	sender := new(MockWhatsAppSender)
	notificationRepo := new(MockNotificationStateRepository)
	reportRepo := new(MockReportFlagRepository)
	processor := NewNotificationProcessor(sender, notificationRepo, reportRepo, idempotency)
	ctx := context.Background()

	n := model.Notification{
		ID:          21,
		ReportID:    11,
		Channel:     model.ChannelWhatsApp,
		Destination: "+972501234567",
		Message:     "pickup completed",
	}

	sender.On("Send", mock.Anything, mock.MatchedBy(func(req *gateway.SendRequest) bool {
		return req.NotificationID == 21 && req.To == "+972501234567"
	})).Return(&gateway.SendResponse{MessageID: "wamid.abc", Status: gateway.StatusAccepted}, nil)
	notificationRepo.On("MarkSent", mock.Anything, int64(21), "wamid.abc").Return(nil)
	reportRepo.On("MarkNotificationSent", mock.Anything, int64(11)).Return(nil)

	err := processor.Process(ctx, notificationJob(t, n))
	require.NoError(t, err)

	sender.AssertExpectations(t)
	notificationRepo.AssertExpectations(t)
	reportRepo.AssertExpectations(t)

	processed, err := idempotency.IsProcessed(ctx, "21")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestNotificationProcessor_Process_SkipsAlreadyProcessed(t *testing.T) {
	_, idempotency := setupIdempotency(t)
	sender := new(MockWhatsAppSender)
	notificationRepo := new(MockNotificationStateRepository)
	reportRepo := new(MockReportFlagRepository)
	processor := NewNotificationProcessor(sender, notificationRepo, reportRepo, idempotency)
	ctx := context.Background()

	pc, err := idempotency.AcquireProcessingLock(ctx, "22")
	require.NoError(t, err)
	require.NoError(t, idempotency.MarkSuccess(ctx, pc))

	err = processor.Process(ctx, notificationJob(t, model.Notification{ID: 22, ReportID: 11}))
	require.NoError(t, err)

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationProcessor_Process_SendFailureRetries(t *testing.T) {
	_, idempotency := setupIdempotency(t)
	sender := new(MockWhatsAppSender)
	notificationRepo := new(MockNotificationStateRepository)
	reportRepo := new(MockReportFlagRepository)
	processor := NewNotificationProcessor(sender, notificationRepo, reportRepo, idempotency)
	ctx := context.Background()

	sender.On("Send", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	err := processor.Process(ctx, notificationJob(t, model.Notification{ID: 23, ReportID: 11, Destination: "+972501234567"}))
	assert.Error(t, err)

	count, err := idempotency.GetRetryCount(ctx, "23")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	notificationRepo.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationProcessor_Process_MaxRetriesMarksFailed(t *testing.T) {
	_, idempotency := setupIdempotency(t)
	sender := new(MockWhatsAppSender)
	notificationRepo := new(MockNotificationStateRepository)
	reportRepo := new(MockReportFlagRepository)
	processor := NewNotificationProcessor(sender, notificationRepo, reportRepo, idempotency)
	ctx := context.Background()

	// Exhaust the retries.
	for i := 0; i < 3; i++ {
		pc, err := idempotency.AcquireProcessingLock(ctx, "24")
		require.NoError(t, err)
		require.NoError(t, idempotency.MarkFailure(ctx, pc, assert.AnError))
	}

	notificationRepo.On("MarkFailed", mock.Anything, int64(24)).Return(nil)

	// Ack (nil) so the queue stops redelivering a lost cause.
	err := processor.Process(ctx, notificationJob(t, model.Notification{ID: 24, ReportID: 11}))
	require.NoError(t, err)

	notificationRepo.AssertExpectations(t)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationProcessor_Process_InvalidPayload(t *testing.T) {
	_, idempotency := setupIdempotency(t)
	processor := NewNotificationProcessor(new(MockWhatsAppSender), new(MockNotificationStateRepository), new(MockReportFlagRepository), idempotency)

	err := processor.Process(context.Background(), &queue.Job{ID: "1-0", Data: []byte("not json")})
	assert.Error(t, err)
}
