package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"microforge/pulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProberHealthyOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(2 * time.Second)
	result := p.Probe(context.Background(), domain.ServiceTarget{Name: "svc", HealthURL: srv.URL})

	assert.Equal(t, domain.ProbeStatusHealthy, result.Status)
	require.NotNil(t, result.ResponseTimeMs)
	assert.GreaterOrEqual(t, *result.ResponseTimeMs, int64(0))
	assert.False(t, result.TimedOut)
	assert.Empty(t, result.Error)
	assert.False(t, result.CheckedAt.IsZero())
}

func TestHTTPProberUnhealthyOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProber(2 * time.Second)
	result := p.Probe(context.Background(), domain.ServiceTarget{Name: "svc", HealthURL: srv.URL})

	assert.Equal(t, domain.ProbeStatusUnhealthy, result.Status)
	assert.Equal(t, "HTTP 500", result.Error)
	require.NotNil(t, result.ResponseTimeMs, "a received response records its latency")
}

func TestHTTPProberTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewHTTPProber(50 * time.Millisecond)
	result := p.Probe(context.Background(), domain.ServiceTarget{Name: "slow", HealthURL: srv.URL})

	assert.Equal(t, domain.ProbeStatusUnhealthy, result.Status)
	assert.True(t, result.TimedOut)
	assert.Equal(t, "Timeout", result.Error)
	assert.Nil(t, result.ResponseTimeMs, "a timed-out probe records no latency")
}

func TestHTTPProberTransportError(t *testing.T) {
	// Grab a port that nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewHTTPProber(time.Second)
	result := p.Probe(context.Background(), domain.ServiceTarget{Name: "gone", HealthURL: url})

	assert.Equal(t, domain.ProbeStatusUnhealthy, result.Status)
	assert.False(t, result.TimedOut)
	assert.NotEmpty(t, result.Error)
	assert.NotEqual(t, "Timeout", result.Error)
	assert.Nil(t, result.ResponseTimeMs)
}
