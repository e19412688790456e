package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/greenwaste/collection-gateway/internal/model"
	"github.com/greenwaste/collection-gateway/internal/services"
	xhttp "github.com/greenwaste/collection-gateway/pkg/http"
)

type NotificationService interface {
	Get(ctx context.Context, id int64) (*model.Notification, error)
	List(ctx context.Context, scope model.AccessScope, f model.NotificationFilter) ([]*model.Notification, int64, error)
	ConfirmDelivery(ctx context.Context, providerMessageID string, deliveredAt time.Time) (*model.Notification, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func RegisterNotificationRoutes(e *router.Group, h *NotificationHandler) {
	e.GET("/notifications", h.ListNotifications)
	e.GET("/notifications/{id}", h.GetNotification)
	e.POST("/webhooks/whatsapp/delivery", h.DeliveryWebhook)
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{
		svc: svc,
	}
}

type notificationListResponse struct {
	Items []*model.Notification `json:"items"`
	Total int64                 `json:"total"`
}

// deliveryWebhookRequest is the provider's delivery confirmation payload.
type deliveryWebhookRequest struct {
	MessageID   string `json:"message_id"`
	Status      string `json:"status"`
	DeliveredAt string `json:"delivered_at"`
}

func (h *NotificationHandler) GetNotification(ctx *xhttp.RequestCtx) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid notification id")
		return
	}

	n, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, 404, "notification not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, n)
}

func (h *NotificationHandler) ListNotifications(ctx *xhttp.RequestCtx) {
	scope, ok := requireScope(ctx)
	if !ok {
		return
	}

	var f model.NotificationFilter
	f.ReportID = queryInt64(ctx, "report_id")
	if v := query(ctx, "status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				f.Statuses = append(f.Statuses, model.NotificationStatus(part))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if query(ctx, "order") == "desc" {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, scope, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, notificationListResponse{Items: items, Total: total})
}

// DeliveryWebhook receives delivery confirmations from the WhatsApp
// provider. It is unauthenticated from the identity-header point of view;
// network policy restricts who can reach it.
func (h *NotificationHandler) DeliveryWebhook(ctx *xhttp.RequestCtx) {
	var req deliveryWebhookRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if req.MessageID == "" {
		writeError(ctx, 400, "message_id is required")
		return
	}

	deliveredAt := time.Now()
	if req.DeliveredAt != "" {
		if t, err := time.Parse(time.RFC3339, req.DeliveredAt); err == nil {
			deliveredAt = t
		}
	}

	n, err := h.svc.ConfirmDelivery(ctx, req.MessageID, deliveredAt)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// 200 on unknown ids: the provider retries anything else and the
			// message is genuinely gone.
			writeJSON(ctx, 200, map[string]string{"status": "ignored"})
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, n)
}
