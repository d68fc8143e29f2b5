package domain

import "time"

// Channel is a notification delivery mechanism.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelPush    Channel = "push"
	ChannelChat    Channel = "chat"
	ChannelWebhook Channel = "webhook"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelChat, ChannelWebhook:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// RecordType classifies a persisted notification for dashboard display. It
// is unrelated to the delivery channel.
type RecordType string

const (
	RecordSuccess RecordType = "success"
	RecordError   RecordType = "error"
	RecordWarning RecordType = "warning"
	RecordInfo    RecordType = "info"
)

// NotificationRequest is one inbound send request. Subject is required for
// email. Classification and Service are optional and default to "success"
// and the dispatching service's own label.
type NotificationRequest struct {
	Type           Channel    `json:"type"`
	Recipient      string     `json:"recipient"`
	Subject        string     `json:"subject,omitempty"`
	Message        string     `json:"message"`
	Priority       Priority   `json:"priority,omitempty"`
	HTML           string     `json:"html,omitempty"`
	Classification RecordType `json:"classification,omitempty"`
	Service        string     `json:"service,omitempty"`
}

// EmailRequest is the dedicated email endpoint's payload, validated with
// stricter limits than the generic request.
type EmailRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	HTML      string `json:"html,omitempty"`
}

// NotificationRecord is the persisted entity. Created once, mutated only to
// flip Read, never deleted.
type NotificationRecord struct {
	ID        string     `json:"id" db:"id"`
	Type      RecordType `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Service   string     `json:"service" db:"service"`
	Read      bool       `json:"read" db:"read"`
	Timestamp time.Time  `json:"timestamp" db:"timestamp"`
}

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "SENT"
	DeliverySimulated DeliveryStatus = "SIMULATED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// DeliveryRequest is what a provider receives. The notification id is
// generated before dispatch so it is stable even when the provider fails.
type DeliveryRequest struct {
	NotificationID string
	Channel        Channel
	Recipient      string
	Subject        string
	Message        string
	HTML           string
	Priority       Priority
}

// DeliveryResult is one provider's outcome, folded into the API response.
type DeliveryResult struct {
	NotificationID string         `json:"notificationId"`
	Status         DeliveryStatus `json:"status"`
	Provider       string         `json:"provider"`
	Timestamp      time.Time      `json:"timestamp"`
	Recipient      string         `json:"recipient,omitempty"`
	Subject        string         `json:"subject,omitempty"`
	Message        string         `json:"message,omitempty"`
	Title          string         `json:"title,omitempty"`
	Body           string         `json:"body,omitempty"`
}

// Batch item settlement states, mirroring a settle-all gather.
const (
	BatchItemFulfilled = "fulfilled"
	BatchItemRejected  = "rejected"
)

// BatchItemResult reports one item's outcome at its original submission
// index, regardless of completion order.
type BatchItemResult struct {
	Index  int             `json:"index"`
	Status string          `json:"status"`
	Result *DeliveryResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BatchResult struct {
	BatchID string            `json:"batchId"`
	Summary BatchSummary      `json:"summary"`
	Results []BatchItemResult `json:"results"`
}

// UserEvent is a trusted webhook payload from the user-management services.
type UserEvent struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
}

// WebhookOutcome separates the primary record creation, which decides the
// webhook's success, from the best-effort welcome email, which never does.
type WebhookOutcome struct {
	Record     NotificationRecord `json:"record"`
	Email      *DeliveryResult    `json:"email,omitempty"`
	EmailError string             `json:"emailError,omitempty"`
}
