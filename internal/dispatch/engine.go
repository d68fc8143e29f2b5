package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"microforge/pulse/internal/domain"
	"microforge/pulse/internal/events"
	"microforge/pulse/internal/provider"
	"microforge/pulse/internal/store"

	"github.com/google/uuid"
)

// serviceLabel is recorded on notifications the engine creates on its own
// behalf.
const serviceLabel = "pulse"

// Engine validates and routes notification requests to the registered
// provider for their channel, persists the resulting record, and reports
// per-item outcomes for batches. A request gets at most one delivery
// attempt; retries are the caller's responsibility.
type Engine struct {
	providers map[domain.Channel]provider.Provider
	store     store.NotificationStore
	events    events.Publisher
	log       *slog.Logger
}

func NewEngine(st store.NotificationStore, publisher events.Publisher, log *slog.Logger) *Engine {
	return &Engine{
		providers: make(map[domain.Channel]provider.Provider),
		store:     st,
		events:    publisher,
		log:       log,
	}
}

// RegisterProvider wires one delivery channel. The channel set is closed at
// startup; dispatching to an unregistered channel is an enumerable failure,
// not a crash.
func (e *Engine) RegisterProvider(p provider.Provider) {
	e.providers[p.Channel()] = p
	e.log.Debug("provider registered", "channel", p.Channel())
}

// Dispatch handles a single request: all-or-nothing, a provider failure is
// the call's own failure. The notification id is generated before the
// provider attempt so it stays stable even when delivery fails.
func (e *Engine) Dispatch(ctx context.Context, req domain.NotificationRequest) (domain.DeliveryResult, error) {
	if verr := validateRequest(req); verr != nil {
		return domain.DeliveryResult{}, verr
	}

	return e.dispatchOne(ctx, uuid.NewString(), req)
}

// DispatchEmail handles the dedicated email endpoint with its stricter
// validation.
func (e *Engine) DispatchEmail(ctx context.Context, req domain.EmailRequest) (domain.DeliveryResult, error) {
	if verr := validateEmailRequest(req); verr != nil {
		return domain.DeliveryResult{}, verr
	}

	return e.dispatchOne(ctx, uuid.NewString(), domain.NotificationRequest{
		Type:      domain.ChannelEmail,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Message:   req.Message,
		HTML:      req.HTML,
	})
}

// DispatchBatch attempts every item independently and concurrently,
// settle-all: one item's failure never prevents the others from completing,
// and the report preserves submission order regardless of completion order.
func (e *Engine) DispatchBatch(ctx context.Context, reqs []domain.NotificationRequest) (domain.BatchResult, error) {
	if len(reqs) == 0 {
		return domain.BatchResult{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "notifications", Message: "batch must contain at least one notification"},
		}}
	}
	if len(reqs) > maxBatchSize {
		return domain.BatchResult{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "notifications", Message: fmt.Sprintf("batch must not exceed %d notifications", maxBatchSize)},
		}}
	}

	batchID := uuid.NewString()
	items := make([]domain.BatchItemResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req domain.NotificationRequest) {
			defer wg.Done()

			id := fmt.Sprintf("%s-%d", batchID, i)

			if verr := validateRequest(req); verr != nil {
				items[i] = domain.BatchItemResult{
					Index:  i,
					Status: domain.BatchItemRejected,
					Error:  verr.Error(),
				}
				return
			}

			result, err := e.dispatchOne(ctx, id, req)
			if err != nil {
				items[i] = domain.BatchItemResult{
					Index:  i,
					Status: domain.BatchItemRejected,
					Error:  err.Error(),
				}
				return
			}

			items[i] = domain.BatchItemResult{
				Index:  i,
				Status: domain.BatchItemFulfilled,
				Result: &result,
			}
		}(i, req)
	}
	wg.Wait()

	summary := domain.BatchSummary{Total: len(reqs)}
	for _, item := range items {
		if item.Status == domain.BatchItemFulfilled {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	e.log.Info("batch processed",
		"batch_id", batchID,
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)

	return domain.BatchResult{
		BatchID: batchID,
		Summary: summary,
		Results: items,
	}, nil
}

// dispatchOne routes one validated request to its channel's provider and,
// on success, persists the record and emits a delivery event.
func (e *Engine) dispatchOne(ctx context.Context, id string, req domain.NotificationRequest) (domain.DeliveryResult, error) {
	if req.Priority == "" {
		req.Priority = domain.PriorityNormal
	}

	p, ok := e.providers[req.Type]
	if !ok {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   req.Type,
			Recipient: req.Recipient,
			Err:       fmt.Errorf("no provider registered for channel %q", req.Type),
		}
	}

	result, err := p.Send(ctx, domain.DeliveryRequest{
		NotificationID: id,
		Channel:        req.Type,
		Recipient:      req.Recipient,
		Subject:        req.Subject,
		Message:        req.Message,
		HTML:           req.HTML,
		Priority:       req.Priority,
	})
	if err != nil {
		e.log.Error("delivery failed",
			"notification_id", id,
			"channel", req.Type,
			"error", err,
		)
		return domain.DeliveryResult{}, err
	}

	record := domain.NotificationRecord{
		ID:        id,
		Type:      req.Classification,
		Title:     recordTitle(req),
		Message:   req.Message,
		Service:   req.Service,
		Timestamp: time.Now(),
	}
	if record.Type == "" {
		record.Type = domain.RecordSuccess
	}
	if record.Service == "" {
		record.Service = serviceLabel
	}

	if err := e.store.Create(ctx, record); err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("failed to persist notification %s: %w", id, err)
	}

	e.events.PublishDelivery(ctx, result)

	return result, nil
}

func recordTitle(req domain.NotificationRequest) string {
	if req.Subject != "" {
		return req.Subject
	}

	switch req.Type {
	case domain.ChannelSMS:
		return "SMS Notification"
	case domain.ChannelPush:
		return "Push Notification"
	case domain.ChannelChat:
		return "Chat Notification"
	case domain.ChannelWebhook:
		return "Webhook Notification"
	default:
		return "Notification"
	}
}

// HandleUserRegistration records the registration event and sends a
// best-effort welcome email. Only the record creation decides the webhook's
// outcome; an email failure is logged and reported in the outcome, never
// returned as an error.
func (e *Engine) HandleUserRegistration(ctx context.Context, ev domain.UserEvent) (domain.WebhookOutcome, error) {
	record := domain.NotificationRecord{
		ID:        uuid.NewString(),
		Type:      domain.RecordSuccess,
		Title:     "User Registration",
		Message:   fmt.Sprintf("New user %s has registered successfully", ev.Username),
		Service:   "login-service",
		Timestamp: time.Now(),
	}

	if err := e.store.Create(ctx, record); err != nil {
		return domain.WebhookOutcome{}, fmt.Errorf("failed to persist registration notification: %w", err)
	}

	outcome := domain.WebhookOutcome{Record: record}

	if ev.Email != "" {
		name := ev.FirstName
		if name == "" {
			name = ev.Username
		}

		result, err := e.sendWelcomeEmail(ctx, ev.Email, name)
		if err != nil {
			e.log.Error("welcome email failed",
				"recipient", ev.Email,
				"error", err,
			)
			outcome.EmailError = err.Error()
		} else {
			outcome.Email = &result
		}
	}

	return outcome, nil
}

func (e *Engine) sendWelcomeEmail(ctx context.Context, recipient, name string) (domain.DeliveryResult, error) {
	p, ok := e.providers[domain.ChannelEmail]
	if !ok {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   domain.ChannelEmail,
			Recipient: recipient,
			Err:       fmt.Errorf("no provider registered for channel %q", domain.ChannelEmail),
		}
	}

	return p.Send(ctx, domain.DeliveryRequest{
		NotificationID: uuid.NewString(),
		Channel:        domain.ChannelEmail,
		Recipient:      recipient,
		Subject:        "Welcome to MicroForge",
		Message: fmt.Sprintf("Hello %s,\n\nWelcome to our MicroForge! "+
			"Your account has been successfully created.\n\nBest regards,\nThe Team", name),
	})
}

// HandleUserLogin records the login event.
func (e *Engine) HandleUserLogin(ctx context.Context, ev domain.UserEvent) (domain.NotificationRecord, error) {
	record := domain.NotificationRecord{
		ID:        uuid.NewString(),
		Type:      domain.RecordInfo,
		Title:     "User Login",
		Message:   fmt.Sprintf("User %s logged in successfully", ev.Username),
		Service:   "auth-service",
		Timestamp: time.Now(),
	}

	if err := e.store.Create(ctx, record); err != nil {
		return domain.NotificationRecord{}, fmt.Errorf("failed to persist login notification: %w", err)
	}

	return record, nil
}

// Status looks up one notification by id.
func (e *Engine) Status(ctx context.Context, id string) (domain.NotificationRecord, error) {
	return e.store.Get(ctx, id)
}

// MarkRead flips the read flag. Idempotent: marking twice succeeds.
func (e *Engine) MarkRead(ctx context.Context, id string) (domain.NotificationRecord, error) {
	return e.store.MarkRead(ctx, id)
}

// Recent returns up to limit records, newest first. Limit defaults to 50.
func (e *Engine) Recent(ctx context.Context, limit int) ([]domain.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.store.Recent(ctx, limit)
}
