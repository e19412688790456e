package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/queue"
	"github.com/greenwaste/collection-gateway/internal/repository"
	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/prom"
)

type ReportRepository interface {
	Create(ctx context.Context, r *model.Report) (*model.Report, error)
	GetByID(ctx context.Context, scope model.AccessScope, id int64) (*model.Report, error)
	List(ctx context.Context, scope model.AccessScope, f model.ReportFilter) ([]*model.Report, int64, error)
	Update(ctx context.Context, id int64, p model.ReportUpdateRequest) (*model.Report, error)
}

type PriceResolver interface {
	Quote(ctx context.Context, settlementID, containerTypeID int64, volume float64) (*model.PriceQuote, error)
}

type SettlementReader interface {
	GetByID(ctx context.Context, id int64) (*model.Settlement, error)
}

type NotificationWriter interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

type ReportService struct {
	reportRepo       ReportRepository
	settlementRepo   SettlementReader
	notificationRepo NotificationWriter
	resolver         PriceResolver
	queue            *queue.Queue
	maxVolume        float64
	maxNotes         int
}

func NewReportService(
	reportRepo ReportRepository,
	settlementRepo SettlementReader,
	notificationRepo NotificationWriter,
	resolver PriceResolver,
	q *queue.Queue,
	maxVolume float64,
	maxNotes int,
) *ReportService {
	return &ReportService{
		reportRepo:       reportRepo,
		settlementRepo:   settlementRepo,
		notificationRepo: notificationRepo,
		resolver:         resolver,
		queue:            q,
		maxVolume:        maxVolume,
		maxNotes:         maxNotes,
	}
}

// Create runs the report intake pipeline: validate, price, persist, notify.
//
// Pricing comes from the active rule unless the caller supplied a complete
// price pair, in which case the supplied values are stored as-is and only
// compared against the server calculation for observability. Notification
// dispatch is deliberately non-fatal: a stored report is never rolled back
// because a message could not be queued.
func (s *ReportService) Create(ctx context.Context, p model.ReportCreateRequest) (*model.Report, error) {
	if err := p.Validate(s.maxVolume, s.maxNotes); err != nil {
		return nil, err
	}

	settlement, err := s.settlementRepo.GetByID(ctx, p.SettlementID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rep := &model.Report{
		SettlementID:    p.SettlementID,
		DriverID:        p.DriverID,
		ContainerTypeID: p.ContainerTypeID,
		Volume:          p.Volume,
		Notes:           strings.TrimSpace(p.Notes),
		ImageURL:        p.ImageURL,
		ImagePath:       p.ImagePath,
	}

	if p.HasSuppliedPricing() {
		rep.UnitPrice = *p.UnitPrice
		rep.TotalPrice = *p.TotalPrice
		rep.Currency = p.Currency
		s.checkSuppliedDeviation(ctx, p)
	} else {
		quote, err := s.resolver.Quote(ctx, p.SettlementID, p.ContainerTypeID, p.Volume)
		if err != nil {
			return nil, err
		}
		rep.UnitPrice = quote.UnitPrice
		rep.TotalPrice = quote.TotalPrice
		rep.Currency = quote.Currency
		rep.PricingID = &quote.PricingID
	}

	created, err := s.reportRepo.Create(ctx, rep)
	if err != nil {
		return nil, err
	}

	s.dispatchNotification(ctx, created, settlement)

	return created, nil
}

// checkSuppliedDeviation compares caller-supplied pricing against the
// server-side calculation. Mismatches are reported but never rejected; the
// caller-supplied value is authoritative for offline-capable clients.
func (s *ReportService) checkSuppliedDeviation(ctx context.Context, p model.ReportCreateRequest) {
	quote, err := s.resolver.Quote(ctx, p.SettlementID, p.ContainerTypeID, p.Volume)
	if err != nil {
		return
	}

	if !quote.TotalPrice.Equal(*p.TotalPrice) {
		logger.Warn("report: supplied price deviates from calculated price",
			"settlement_id", p.SettlementID,
			"container_type_id", p.ContainerTypeID,
			"supplied_total", p.TotalPrice.String(),
			"calculated_total", quote.TotalPrice.String())
		prom.IncrementCounter(prom.SystemPricing, prom.MetricPricingSuppliedDeviation)
	}
}

// dispatchNotification records a pending notification for the settlement and
// hands it to the dispatcher via the queue. Any failure here is logged and
// swallowed: the report itself has already been stored.
func (s *ReportService) dispatchNotification(ctx context.Context, rep *model.Report, settlement *model.Settlement) {
	if settlement.ContactPhone == "" {
		logger.Warn("report: settlement has no contact phone, skipping notification",
			"report_id", rep.ID, "settlement_id", settlement.ID)
		return
	}

	n, err := s.notificationRepo.Create(ctx, &model.Notification{
		ReportID:    rep.ID,
		Channel:     model.ChannelWhatsApp,
		Status:      model.NotificationStatusPending,
		Destination: settlement.ContactPhone,
		Message:     composePickupMessage(rep, settlement),
		ImageURL:    rep.ImageURL,
	})
	if err != nil {
		logger.Error("report: failed to record notification",
			"report_id", rep.ID, "error", err)
		return
	}

	if s.queue == nil {
		return
	}

	if _, err := s.queue.PublishJSON(ctx, n, map[string]string{"channel": string(n.Channel)}); err != nil {
		logger.Error("report: failed to enqueue notification",
			"report_id", rep.ID, "notification_id", n.ID, "error", err)
	}
}

func composePickupMessage(rep *model.Report, settlement *model.Settlement) string {
	return fmt.Sprintf(
		"Green waste pickup completed at %s. Collected volume: %.2f m3. Charge: %s %s.",
		settlement.Name,
		rep.Volume,
		rep.TotalPrice.StringFixed(2),
		rep.Currency,
	)
}

func (s *ReportService) Get(ctx context.Context, scope model.AccessScope, id int64) (*model.Report, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	rep, err := s.reportRepo.GetByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (s *ReportService) List(ctx context.Context, scope model.AccessScope, f model.ReportFilter) ([]*model.Report, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}
	return s.reportRepo.List(ctx, scope, f)
}

func (s *ReportService) Update(ctx context.Context, id int64, p model.ReportUpdateRequest) (*model.Report, error) {
	rep, err := s.reportRepo.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}
