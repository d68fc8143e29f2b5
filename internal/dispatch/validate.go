package dispatch

import (
	"fmt"
	"net/mail"
	"unicode/utf8"

	"microforge/pulse/internal/domain"
)

const (
	maxMessageLen      = 1000
	maxEmailSubjectLen = 255
	maxEmailMessageLen = 5000
	maxBatchSize       = 100
)

// validateRequest checks a send request against the engine's contract and
// reports every offending field, not just the first.
func validateRequest(req domain.NotificationRequest) *domain.ValidationError {
	var fields []domain.FieldError

	if req.Type == "" {
		fields = append(fields, domain.FieldError{Field: "type", Message: "type is required"})
	} else if !req.Type.Valid() {
		fields = append(fields, domain.FieldError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported notification type: %s", req.Type),
		})
	}

	if req.Recipient == "" {
		fields = append(fields, domain.FieldError{Field: "recipient", Message: "recipient is required"})
	}

	if req.Type == domain.ChannelEmail && req.Subject == "" {
		fields = append(fields, domain.FieldError{Field: "subject", Message: "subject is required for email notifications"})
	}

	if req.Message == "" {
		fields = append(fields, domain.FieldError{Field: "message", Message: "message is required"})
	} else if utf8.RuneCountInString(req.Message) > maxMessageLen {
		fields = append(fields, domain.FieldError{
			Field:   "message",
			Message: fmt.Sprintf("message must not exceed %d characters", maxMessageLen),
		})
	}

	switch req.Priority {
	case "", domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh:
	default:
		fields = append(fields, domain.FieldError{
			Field:   "priority",
			Message: "priority must be one of: low, normal, high",
		})
	}

	if req.Classification != "" {
		switch req.Classification {
		case domain.RecordSuccess, domain.RecordError, domain.RecordWarning, domain.RecordInfo:
		default:
			fields = append(fields, domain.FieldError{
				Field:   "classification",
				Message: "classification must be one of: success, error, warning, info",
			})
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// validateEmailRequest enforces the dedicated email endpoint's stricter
// limits.
func validateEmailRequest(req domain.EmailRequest) *domain.ValidationError {
	var fields []domain.FieldError

	if req.Recipient == "" {
		fields = append(fields, domain.FieldError{Field: "recipient", Message: "recipient is required"})
	} else if _, err := mail.ParseAddress(req.Recipient); err != nil {
		fields = append(fields, domain.FieldError{Field: "recipient", Message: "recipient must be a valid email address"})
	}

	if req.Subject == "" {
		fields = append(fields, domain.FieldError{Field: "subject", Message: "subject is required"})
	} else if utf8.RuneCountInString(req.Subject) > maxEmailSubjectLen {
		fields = append(fields, domain.FieldError{
			Field:   "subject",
			Message: fmt.Sprintf("subject must not exceed %d characters", maxEmailSubjectLen),
		})
	}

	if req.Message == "" {
		fields = append(fields, domain.FieldError{Field: "message", Message: "message is required"})
	} else if utf8.RuneCountInString(req.Message) > maxEmailMessageLen {
		fields = append(fields, domain.FieldError{
			Field:   "message",
			Message: fmt.Sprintf("message must not exceed %d characters", maxEmailMessageLen),
		})
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
