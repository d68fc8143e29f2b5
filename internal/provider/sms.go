package provider

import (
	"context"
	"log/slog"
	"time"

	"microforge/pulse/internal/domain"
)

// smsMaxLen is the single-segment SMS character limit. Truncation happens
// here, at the provider boundary; request validation allows longer messages.
const smsMaxLen = 160

// SMSProvider simulates an SMS gateway. A real integration (Twilio, SNS)
// would slot in behind the same Send contract.
type SMSProvider struct {
	log *slog.Logger
}

func NewSMSProvider(log *slog.Logger) *SMSProvider {
	return &SMSProvider{log: log}
}

func (p *SMSProvider) Channel() domain.Channel {
	return domain.ChannelSMS
}

func (p *SMSProvider) Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error) {
	message := truncate(req.Message, smsMaxLen)

	p.log.Info("sms sent",
		"notification_id", req.NotificationID,
		"recipient", req.Recipient,
	)

	return domain.DeliveryResult{
		NotificationID: req.NotificationID,
		Status:         domain.DeliverySent,
		Provider:       "sms-simulated",
		Timestamp:      time.Now(),
		Recipient:      req.Recipient,
		Message:        message,
	}, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
