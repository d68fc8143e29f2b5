package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"microforge/pulse/internal/domain"
)

// Prober executes one bounded-timeout health check against a single target.
type Prober interface {
	Probe(ctx context.Context, target domain.ServiceTarget) domain.ProbeResult
}

type HTTPProber struct {
	timeout time.Duration
	client  *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPProber{
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Probe issues one GET to the target's health URL. A 2xx response is
// healthy; any other response is unhealthy with "HTTP <code>"; a timeout is
// unhealthy with no latency recorded; any other transport failure is
// unhealthy with the underlying message. Probe never returns an error: every
// failure is folded into the result.
func (p *HTTPProber) Probe(ctx context.Context, target domain.ServiceTarget) domain.ProbeResult {
	result := domain.ProbeResult{
		Service:    target.Name,
		Technology: target.Technology,
		Port:       target.Port,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.HealthURL, nil)
	if err != nil {
		result.Status = domain.ProbeStatusUnhealthy
		result.Error = fmt.Sprintf("invalid url: %v", err)
		result.CheckedAt = time.Now()
		return result
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	result.CheckedAt = time.Now()

	if err != nil {
		result.Status = domain.ProbeStatusUnhealthy
		if isTimeout(err) {
			result.TimedOut = true
			result.Error = "Timeout"
		} else {
			result.Error = unwrapTransportError(err)
		}
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	ms := elapsed.Milliseconds()
	result.ResponseTimeMs = &ms

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		result.Status = domain.ProbeStatusHealthy
	} else {
		result.Status = domain.ProbeStatusUnhealthy
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	return result
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

// unwrapTransportError strips the "Get <url>:" prefix url.Error adds, which
// only repeats what the result already carries.
func unwrapTransportError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
