package settlement

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"consultpay/internal/api"
	"consultpay/internal/logger"
	"consultpay/internal/metrics"
	"consultpay/internal/payment"
)

const maxWebhookBody = 64 << 10

// EventLog short-circuits redeliveries of events that were already applied.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, eventType payment.EventType) (bool, error)
}

type WebhookHandler struct {
	engine    *Engine
	events    EventLog
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookHandler(engine *Engine, events EventLog, secret string) *WebhookHandler {
	return &WebhookHandler{
		engine:    engine,
		events:    events,
		secret:    secret,
		tolerance: payment.DefaultTolerance,
		now:       time.Now,
	}
}

type WebhookResponse struct {
	Status string `json:"status" example:"processed"`
}

// @Summary      Payment gateway webhook
// @Description  Applies payment.succeeded, payment.failed and checkout.created events. Requires a valid Payment-Signature header.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Payment-Signature header string true "t=<unix>,v1=<hex hmac-sha256>"
// @Success      200 {object} settlement.WebhookResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /webhooks/payment [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable body"})
		return
	}

	if err := payment.Verify(h.secret, c.GetHeader(payment.SignatureHeader), body, h.now(), h.tolerance); err != nil {
		logger.Warn("Webhook signature rejected", "error", err, "ip", c.ClientIP())
		metrics.RecordWebhookEvent("unknown", "bad_signature")
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid signature"})
		return
	}

	ev, data, err := payment.ParseEvent(body)
	if err != nil {
		if errors.Is(err, payment.ErrUnsupportedEvent) {
			metrics.RecordWebhookEvent("unsupported", "ignored")
			c.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
			return
		}
		metrics.RecordWebhookEvent("unknown", "malformed")
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	eventType := string(ev.Type)

	if h.events != nil {
		seen, err := h.events.Seen(ctx, ev.ID)
		if err != nil {
			logger.Warn("Webhook event log unavailable", "event_id", ev.ID, "error", err)
		} else if seen {
			metrics.RecordWebhookEvent(eventType, "duplicate")
			c.JSON(http.StatusOK, WebhookResponse{Status: "duplicate"})
			return
		}
	}

	switch ev.Type {
	case payment.EventPaymentSucceeded:
		_, err = h.engine.ConfirmBookingPayment(ctx, data.BookingID, data.ChargeID)
	case payment.EventPaymentFailed:
		_, err = h.engine.FailBookingPayment(ctx, data.BookingID)
	case payment.EventCheckoutCreated:
		_, err = h.engine.RecordCheckoutSession(ctx, data.BookingID, data.SessionID)
	}

	if err != nil {
		var invalidState *InvalidStateError
		switch {
		case errors.As(err, &invalidState), errors.Is(err, ErrBookingNotFound):
			// acknowledged: retrying cannot make this event apply
			logger.Error("Webhook event does not match booking state",
				"event_id", ev.ID, "type", eventType, "booking_id", data.BookingID, "error", err)
			metrics.RecordWebhookEvent(eventType, "ignored")
			h.markProcessed(ctx, ev)
			c.JSON(http.StatusOK, WebhookResponse{Status: "ignored"})
		default:
			logger.Error("Webhook event failed", "event_id", ev.ID, "type", eventType, "booking_id", data.BookingID, "error", err)
			metrics.RecordWebhookEvent(eventType, "error")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "event processing failed"})
		}
		return
	}

	h.markProcessed(ctx, ev)
	metrics.RecordWebhookEvent(eventType, "processed")
	logger.Info("Webhook event processed", "event_id", ev.ID, "type", eventType, "booking_id", data.BookingID)
	c.JSON(http.StatusOK, WebhookResponse{Status: "processed"})
}

func (h *WebhookHandler) markProcessed(ctx context.Context, ev *payment.Event) {
	if h.events == nil {
		return
	}
	if _, err := h.events.MarkProcessed(ctx, ev.ID, ev.Type); err != nil {
		logger.Warn("Failed to record webhook event", "event_id", ev.ID, "error", err)
	}
}
