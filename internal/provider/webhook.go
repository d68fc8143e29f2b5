package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"microforge/pulse/internal/domain"
)

// WebhookProvider delivers to an arbitrary HTTP endpoint: the request's
// recipient is the target URL.
type WebhookProvider struct {
	client *http.Client
	log    *slog.Logger
}

func NewWebhookProvider(sendTimeout time.Duration, log *slog.Logger) *WebhookProvider {
	return &WebhookProvider{
		client: newSendClient(sendTimeout),
		log:    log,
	}
}

func (p *WebhookProvider) Channel() domain.Channel {
	return domain.ChannelWebhook
}

func (p *WebhookProvider) Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error) {
	target, err := url.Parse(req.Recipient)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   domain.ChannelWebhook,
			Recipient: req.Recipient,
			Err:       fmt.Errorf("recipient is not an absolute URL"),
		}
	}

	payload := map[string]string{
		"notification_id": req.NotificationID,
		"subject":         req.Subject,
		"message":         req.Message,
		"priority":        string(req.Priority),
	}

	if err := postJSON(ctx, p.client, target.String(), payload); err != nil {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   domain.ChannelWebhook,
			Recipient: req.Recipient,
			Err:       err,
		}
	}

	p.log.Info("webhook delivered",
		"notification_id", req.NotificationID,
		"url", target.String(),
	)

	return domain.DeliveryResult{
		NotificationID: req.NotificationID,
		Status:         domain.DeliverySent,
		Provider:       "webhook",
		Timestamp:      time.Now(),
		Recipient:      req.Recipient,
	}, nil
}
