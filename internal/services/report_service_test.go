package services

import (
	"context"
	"testing"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, r *model.Report) (*model.Report, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) GetByID(ctx context.Context, scope model.AccessScope, id int64) (*model.Report, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, scope model.AccessScope, f model.ReportFilter) ([]*model.Report, int64, error) {
	args := m.Called(ctx, scope, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Report), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportRepository) Update(ctx context.Context, id int64, p model.ReportUpdateRequest) (*model.Report, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

type MockSettlementReader struct {
	mock.Mock
}

func (m *MockSettlementReader) GetByID(ctx context.Context, id int64) (*model.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settlement), args.Error(1)
}

type MockNotificationWriter struct {
	mock.Mock
}

func (m *MockNotificationWriter) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

type MockPriceResolver struct {
	mock.Mock
}

func (m *MockPriceResolver) Quote(ctx context.Context, settlementID, containerTypeID int64, volume float64) (*model.PriceQuote, error) {
	args := m.Called(ctx, settlementID, containerTypeID, volume)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PriceQuote), args.Error(1)
}

func newReportService(
	reportRepo *MockReportRepository,
	settlementRepo *MockSettlementReader,
	notificationRepo *MockNotificationWriter,
	resolver *MockPriceResolver,
) *ReportService {
	return NewReportService(reportRepo, settlementRepo, notificationRepo, resolver, nil, 100, 1000)
}

func TestReportService_Create_ServerPriced(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{
		ID: 1, Name: "Kfar Saba", ContactPhone: "+972501234567",
	}, nil)

	pricingID := int64(7)
	resolver.On("Quote", ctx, int64(1), int64(2), 3.2).Return(&model.PriceQuote{
		UnitPrice:  decimal.NewFromInt(50),
		TotalPrice: decimal.RequireFromString("160.00"),
		Currency:   "ILS",
		PricingID:  pricingID,
	}, nil)

	reportRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Report) bool {
		return r.SettlementID == 1 &&
			r.TotalPrice.Equal(decimal.RequireFromString("160.00")) &&
			r.PricingID != nil && *r.PricingID == pricingID
	})).Return(&model.Report{
		ID: 11, SettlementID: 1, DriverID: 100, ContainerTypeID: 2, Volume: 3.2,
		UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.RequireFromString("160.00"),
		Currency: "ILS", PricingID: &pricingID,
	}, nil)

	notificationRepo.On("Create", ctx, mock.MatchedBy(func(n *model.Notification) bool {
		return n.ReportID == 11 &&
			n.Channel == model.ChannelWhatsApp &&
			n.Status == model.NotificationStatusPending &&
			n.Destination == "+972501234567"
	})).Return(&model.Notification{ID: 21, ReportID: 11}, nil)

	created, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
	assert.Equal(t, "160.00", created.TotalPrice.StringFixed(2))

	reportRepo.AssertExpectations(t)
	notificationRepo.AssertExpectations(t)
}

func TestReportService_Create_SuppliedPricing(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{
		ID: 1, Name: "Kfar Saba", ContactPhone: "+972501234567",
	}, nil)

	// The server calculation disagrees with the supplied values; the supplied
	// values must still be stored unchanged.
	resolver.On("Quote", ctx, int64(1), int64(2), 4.0).Return(&model.PriceQuote{
		UnitPrice:  decimal.NewFromInt(50),
		TotalPrice: decimal.RequireFromString("200.00"),
		Currency:   "ILS",
		PricingID:  7,
	}, nil)

	reportRepo.On("Create", ctx, mock.MatchedBy(func(r *model.Report) bool {
		return r.UnitPrice.Equal(decimal.NewFromInt(45)) &&
			r.TotalPrice.Equal(decimal.NewFromInt(180)) &&
			r.PricingID == nil
	})).Return(&model.Report{ID: 12, SettlementID: 1, TotalPrice: decimal.NewFromInt(180), Currency: "ILS"}, nil)

	notificationRepo.On("Create", ctx, mock.AnythingOfType("*model.Notification")).
		Return(&model.Notification{ID: 22, ReportID: 12}, nil)

	unit := decimal.NewFromInt(45)
	total := decimal.NewFromInt(180)
	created, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          4.0,
		UnitPrice:       &unit,
		TotalPrice:      &total,
		Currency:        "ILS",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), created.ID)

	resolver.AssertExpectations(t)
	reportRepo.AssertExpectations(t)
}

func TestReportService_Create_SuppliedPricingWithoutActiveRule(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{
		ID: 1, Name: "Kfar Saba", ContactPhone: "+972501234567",
	}, nil)

	// No active rule: the deviation check is skipped and intake proceeds on
	// the supplied values alone.
	resolver.On("Quote", ctx, int64(1), int64(2), 4.0).Return(nil, ErrPricingNotFound)

	reportRepo.On("Create", ctx, mock.AnythingOfType("*model.Report")).
		Return(&model.Report{ID: 13, SettlementID: 1, TotalPrice: decimal.NewFromInt(180), Currency: "ILS"}, nil)
	notificationRepo.On("Create", ctx, mock.AnythingOfType("*model.Notification")).
		Return(&model.Notification{ID: 23, ReportID: 13}, nil)

	unit := decimal.NewFromInt(45)
	total := decimal.NewFromInt(180)
	_, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          4.0,
		UnitPrice:       &unit,
		TotalPrice:      &total,
		Currency:        "ILS",
	})
	require.NoError(t, err)
}

func TestReportService_Create_NoActivePricing(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{ID: 1, Name: "Kfar Saba"}, nil)
	resolver.On("Quote", ctx, int64(1), int64(2), 3.2).Return(nil, ErrPricingNotFound)

	_, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	assert.ErrorIs(t, err, ErrPricingNotFound)
	reportRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_Create_NotificationFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{
		ID: 1, Name: "Kfar Saba", ContactPhone: "+972501234567",
	}, nil)
	resolver.On("Quote", ctx, int64(1), int64(2), 3.2).Return(&model.PriceQuote{
		UnitPrice:  decimal.NewFromInt(50),
		TotalPrice: decimal.RequireFromString("160.00"),
		Currency:   "ILS",
		PricingID:  7,
	}, nil)
	reportRepo.On("Create", ctx, mock.AnythingOfType("*model.Report")).
		Return(&model.Report{ID: 11, SettlementID: 1, TotalPrice: decimal.RequireFromString("160.00"), Currency: "ILS"}, nil)
	notificationRepo.On("Create", ctx, mock.AnythingOfType("*model.Notification")).
		Return(nil, assert.AnError)

	created, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
}

func TestReportService_Create_NoContactPhoneSkipsNotification(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	settlementRepo := new(MockSettlementReader)
	notificationRepo := new(MockNotificationWriter)
	resolver := new(MockPriceResolver)
	service := newReportService(reportRepo, settlementRepo, notificationRepo, resolver)

	settlementRepo.On("GetByID", ctx, int64(1)).Return(&model.Settlement{ID: 1, Name: "Kfar Saba"}, nil)
	resolver.On("Quote", ctx, int64(1), int64(2), 3.2).Return(&model.PriceQuote{
		UnitPrice:  decimal.NewFromInt(50),
		TotalPrice: decimal.RequireFromString("160.00"),
		Currency:   "ILS",
		PricingID:  7,
	}, nil)
	reportRepo.On("Create", ctx, mock.AnythingOfType("*model.Report")).
		Return(&model.Report{ID: 11, SettlementID: 1}, nil)

	_, err := service.Create(ctx, model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          3.2,
	})
	require.NoError(t, err)
	notificationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	service := newReportService(new(MockReportRepository), new(MockSettlementReader), new(MockNotificationWriter), new(MockPriceResolver))

	t.Run("zero volume", func(t *testing.T) {
		_, err := service.Create(ctx, model.ReportCreateRequest{
			SettlementID:    1,
			DriverID:        100,
			ContainerTypeID: 2,
			Volume:          0,
		})
		assert.Error(t, err)
	})

	t.Run("volume above maximum", func(t *testing.T) {
		_, err := service.Create(ctx, model.ReportCreateRequest{
			SettlementID:    1,
			DriverID:        100,
			ContainerTypeID: 2,
			Volume:          150,
		})
		assert.Error(t, err)
	})

	t.Run("missing settlement id", func(t *testing.T) {
		_, err := service.Create(ctx, model.ReportCreateRequest{
			DriverID:        100,
			ContainerTypeID: 2,
			Volume:          3.2,
		})
		assert.Error(t, err)
	})
}

func TestReportService_Get_Scoped(t *testing.T) {
	ctx := context.Background()
	reportRepo := new(MockReportRepository)
	service := newReportService(reportRepo, new(MockSettlementReader), new(MockNotificationWriter), new(MockPriceResolver))

	scope := model.DriverScope(100)
	reportRepo.On("GetByID", ctx, scope, int64(11)).Return(nil, repository.ErrNotFound)

	_, err := service.Get(ctx, scope, 11)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.Get(ctx, model.AccessScope{}, 11)
	assert.ErrorIs(t, err, model.ErrScopeRequired)
}

func TestReportService_List_InvalidScope(t *testing.T) {
	ctx := context.Background()
	service := newReportService(new(MockReportRepository), new(MockSettlementReader), new(MockNotificationWriter), new(MockPriceResolver))

	_, _, err := service.List(ctx, model.AccessScope{Role: "UNKNOWN"}, model.ReportFilter{})
	assert.ErrorIs(t, err, model.ErrScopeRequired)
}
