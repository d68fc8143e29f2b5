package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"microforge/pulse/internal/domain"
)

// Provider performs a single send attempt for one delivery channel. Each
// variant decides for itself whether the send was real (SENT) or stubbed
// (SIMULATED); failures are wrapped into domain.DeliveryError so callers
// never handle channel-specific errors.
type Provider interface {
	Send(ctx context.Context, req domain.DeliveryRequest) (domain.DeliveryResult, error)
	Channel() domain.Channel
}

// newSendClient builds the shared outbound HTTP client. Unlike probes, sends
// carry a longer budget: a delivery may legitimately outlast a liveness
// check.
func newSendClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		if len(b) == 0 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	return nil
}
