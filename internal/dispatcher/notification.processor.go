package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	gateway "github.com/greenwaste/collection-gateway/internal/gateways"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/queue"
	"github.com/greenwaste/collection-gateway/pkg/logger"
	"github.com/greenwaste/collection-gateway/pkg/prom"
)

type WhatsAppSender interface {
	Send(ctx context.Context, req *gateway.SendRequest) (*gateway.SendResponse, error)
}

type NotificationStateRepository interface {
	MarkSent(ctx context.Context, id int64, providerMessageID string) error
	MarkFailed(ctx context.Context, id int64) error
}

type ReportFlagRepository interface {
	MarkNotificationSent(ctx context.Context, id int64) error
}

// NotificationProcessor consumes queued notifications and pushes them to the
// WhatsApp gateway exactly once per notification id.
type NotificationProcessor struct {
	sender           WhatsAppSender
	notificationRepo NotificationStateRepository
	reportRepo       ReportFlagRepository
	idempotency      *IdempotencyService
}

func NewNotificationProcessor(
	sender WhatsAppSender,
	notificationRepo NotificationStateRepository,
	reportRepo ReportFlagRepository,
	idempotency *IdempotencyService,
) *NotificationProcessor {
	return &NotificationProcessor{
		sender:           sender,
		notificationRepo: notificationRepo,
		reportRepo:       reportRepo,
		idempotency:      idempotency,
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification"
}

// Process handles one queued notification. Returning nil acks the job;
// returning an error leaves it pending for redelivery.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	var notification model.Notification
	if err := json.Unmarshal(job.Data, &notification); err != nil {
		logger.Error("dispatcher: failed to unmarshal notification", "error", err)
		return err
	}

	notificationID := strconv.FormatInt(notification.ID, 10)

	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, notificationID)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// Redelivered after a successful send: ack and move on.
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("dispatcher: giving up on notification",
				"notification_id", notificationID)
			if markErr := p.notificationRepo.MarkFailed(ctx, notification.ID); markErr != nil {
				logger.Error("dispatcher: failed to mark notification failed",
					"notification_id", notificationID, "error", markErr)
			}
			prom.IncrementCounter(prom.SystemNotifications, prom.MetricNotificationsFailed)
			return nil
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			return errors.New("lock held by another consumer")
		}
		return err
	}

	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	logger.Info("dispatcher: sending notification",
		"notification_id", notificationID,
		"destination", notification.Destination,
		"retry_count", procCtx.RetryCount)

	start := time.Now()
	res, err := p.sender.Send(ctx, &gateway.SendRequest{
		NotificationID: notification.ID,
		To:             notification.Destination,
		Message:        notification.Message,
		ImageURL:       notification.ImageURL,
	})
	if err != nil {
		logger.Error("dispatcher: send failed",
			"notification_id", notificationID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("dispatcher: failed to mark failure",
				"notification_id", notificationID, "error", markErr)
		}
		return err
	}

	prom.ObserveHistogramVec(
		prom.SystemNotifications,
		prom.MetricNotificationDispatchSeconds,
		time.Since(start).Seconds(),
		string(notification.Channel),
	)

	if err := p.notificationRepo.MarkSent(ctx, notification.ID, res.MessageID); err != nil {
		// The provider already accepted the message; a bookkeeping failure
		// must not cause a resend.
		logger.Error("dispatcher: failed to mark notification sent",
			"notification_id", notificationID, "error", err)
	}

	if err := p.reportRepo.MarkNotificationSent(ctx, notification.ReportID); err != nil {
		logger.Error("dispatcher: failed to flag report",
			"report_id", notification.ReportID, "error", err)
	}

	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		logger.Error("dispatcher: failed to mark success",
			"notification_id", notificationID, "error", markErr)
	}

	prom.IncrementCounter(prom.SystemNotifications, prom.MetricNotificationsProcessed)

	logger.Info("dispatcher: notification sent",
		"notification_id", notificationID,
		"provider_message_id", res.MessageID,
		"retry_count", procCtx.RetryCount)

	return nil
}
