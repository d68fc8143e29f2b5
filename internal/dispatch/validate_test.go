package dispatch

import (
	"strings"
	"testing"

	"microforge/pulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(verr *domain.ValidationError) []string {
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateRequestReportsEveryOffendingField(t *testing.T) {
	verr := validateRequest(domain.NotificationRequest{
		Type:     "fax",
		Priority: "urgent",
	})

	require.NotNil(t, verr)
	assert.ElementsMatch(t, []string{"type", "recipient", "message", "priority"}, fieldNames(verr))
}

func TestValidateRequestSubjectRequiredForEmailOnly(t *testing.T) {
	verr := validateRequest(domain.NotificationRequest{
		Type:      domain.ChannelEmail,
		Recipient: "user@example.com",
		Message:   "hi",
	})
	require.NotNil(t, verr)
	assert.Equal(t, []string{"subject"}, fieldNames(verr))

	assert.Nil(t, validateRequest(domain.NotificationRequest{
		Type:      domain.ChannelSMS,
		Recipient: "+15550001111",
		Message:   "hi",
	}))
}

func TestValidateRequestMessageTooLong(t *testing.T) {
	verr := validateRequest(domain.NotificationRequest{
		Type:      domain.ChannelPush,
		Recipient: "device-1",
		Subject:   "s",
		Message:   strings.Repeat("x", maxMessageLen+1),
	})

	require.NotNil(t, verr)
	assert.Equal(t, []string{"message"}, fieldNames(verr))
}

func TestValidateRequestAcceptsAllPriorities(t *testing.T) {
	for _, p := range []domain.Priority{"", domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh} {
		assert.Nil(t, validateRequest(domain.NotificationRequest{
			Type:      domain.ChannelSMS,
			Recipient: "r",
			Message:   "m",
			Priority:  p,
		}), "priority %q should be accepted", p)
	}
}

func TestValidateEmailRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.EmailRequest
		invalid []string
	}{
		{
			name: "valid",
			req:  domain.EmailRequest{Recipient: "user@example.com", Subject: "hello", Message: "body"},
		},
		{
			name:    "bad address",
			req:     domain.EmailRequest{Recipient: "not-an-address", Subject: "hello", Message: "body"},
			invalid: []string{"recipient"},
		},
		{
			name:    "everything missing",
			req:     domain.EmailRequest{},
			invalid: []string{"recipient", "subject", "message"},
		},
		{
			name: "subject too long",
			req: domain.EmailRequest{
				Recipient: "user@example.com",
				Subject:   strings.Repeat("s", maxEmailSubjectLen+1),
				Message:   "body",
			},
			invalid: []string{"subject"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verr := validateEmailRequest(tc.req)
			if len(tc.invalid) == 0 {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.ElementsMatch(t, tc.invalid, fieldNames(verr))
		})
	}
}
