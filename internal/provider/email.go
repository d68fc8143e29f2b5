package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"microforge/pulse/internal/domain"
)

// SMTPConfig carries the email transport settings. An empty Host means no
// transport is configured and sends are simulated instead of failing.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type EmailProvider struct {
	cfg SMTPConfig
	log *slog.Logger
}

func NewEmailProvider(cfg SMTPConfig, log *slog.Logger) *EmailProvider {
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return &EmailProvider{cfg: cfg, log: log}
}

func (p *EmailProvider) Channel() domain.Channel {
	return domain.ChannelEmail
}

func (p *EmailProvider) Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error) {
	if p.cfg.Host == "" {
		p.log.Info("email not configured, simulating send",
			"notification_id", req.NotificationID,
			"recipient", req.Recipient,
		)
		return domain.DeliveryResult{
			NotificationID: req.NotificationID,
			Status:         domain.DeliverySimulated,
			Provider:       "smtp-simulated",
			Timestamp:      time.Now(),
			Recipient:      req.Recipient,
			Subject:        req.Subject,
		}, nil
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}

	msg := buildMessage(p.cfg.From, req)

	if err := smtp.SendMail(addr, auth, p.cfg.From, []string{req.Recipient}, msg); err != nil {
		return domain.DeliveryResult{}, &domain.DeliveryError{
			Channel:   domain.ChannelEmail,
			Recipient: req.Recipient,
			Err:       err,
		}
	}

	p.log.Info("email sent",
		"notification_id", req.NotificationID,
		"recipient", req.Recipient,
	)

	return domain.DeliveryResult{
		NotificationID: req.NotificationID,
		Status:         domain.DeliverySent,
		Provider:       "smtp",
		Timestamp:      time.Now(),
		Recipient:      req.Recipient,
		Subject:        req.Subject,
	}, nil
}

func buildMessage(from string, req domain.DeliveryRequest) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", req.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", req.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if req.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(req.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(req.Message)
	}

	return []byte(b.String())
}
