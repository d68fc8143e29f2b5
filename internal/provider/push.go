package provider

import (
	"context"
	"log/slog"
	"time"

	"microforge/pulse/internal/domain"
)

// PushProvider simulates a mobile push gateway (FCM/APNs shaped).
type PushProvider struct {
	log *slog.Logger
}

func NewPushProvider(log *slog.Logger) *PushProvider {
	return &PushProvider{log: log}
}

func (p *PushProvider) Channel() domain.Channel {
	return domain.ChannelPush
}

func (p *PushProvider) Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error) {
	p.log.Info("push notification sent",
		"notification_id", req.NotificationID,
		"recipient", req.Recipient,
		"title", req.Subject,
	)

	return domain.DeliveryResult{
		NotificationID: req.NotificationID,
		Status:         domain.DeliverySent,
		Provider:       "push-simulated",
		Timestamp:      time.Now(),
		Recipient:      req.Recipient,
		Title:          req.Subject,
		Body:           req.Message,
	}, nil
}
