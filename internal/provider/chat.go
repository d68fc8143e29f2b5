package provider

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"microforge/pulse/internal/domain"
)

// ChatProvider posts messages to a fixed chat webhook (Slack-shaped). When
// no webhook URL is configured the send is simulated.
type ChatProvider struct {
	webhookURL string
	client     *http.Client
	log        *slog.Logger
}

func NewChatProvider(webhookURL string, sendTimeout time.Duration, log *slog.Logger) *ChatProvider {
	return &ChatProvider{
		webhookURL: webhookURL,
		client:     newSendClient(sendTimeout),
		log:        log,
	}
}

func (p *ChatProvider) Channel() domain.Channel {
	return domain.ChannelChat
}

func (p *ChatProvider) Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error) {
	if p.webhookURL == "" {
		p.log.Info("chat webhook not configured, simulating send",
			"notification_id", req.NotificationID,
			"channel", req.Recipient,
		)
		return domain.DeliveryResult{
			NotificationID: req.NotificationID,
			Status:         domain.DeliverySimulated,
			Provider:       "chat-simulated",
			Timestamp:      time.Now(),
			Recipient:      req.Recipient,
			Message:        req.Message,
		}, nil
	}

	payload := map[string]string{
		"channel": req.Recipient,
		"text":    req.Message,
	}

	if err := postJSON(ctx, p.client, p.webhookURL, payload); err != nil {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   domain.ChannelChat,
			Recipient: req.Recipient,
			Err:       err,
		}
	}

	p.log.Info("chat message sent",
		"notification_id", req.NotificationID,
		"channel", req.Recipient,
	)

	return domain.DeliveryResult{
		NotificationID: req.NotificationID,
		Status:         domain.DeliverySent,
		Provider:       "chat-webhook",
		Timestamp:      time.Now(),
		Recipient:      req.Recipient,
		Message:        req.Message,
	}, nil
}
