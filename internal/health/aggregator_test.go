package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"microforge/pulse/internal/domain"
	"microforge/pulse/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubProber returns canned results and optionally blocks until released,
// to exercise the overlap guard.
type stubProber struct {
	results map[string]domain.ProbeResult
	block   chan struct{}
	mu      sync.Mutex
	calls   int
}

func (s *stubProber) Probe(ctx context.Context, target domain.ServiceTarget) domain.ProbeResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
	}

	r := s.results[target.Name]
	r.Service = target.Name
	r.CheckedAt = time.Now()
	return r
}

func ms(v int64) *int64 { return &v }

func targets(names ...string) []domain.ServiceTarget {
	out := make([]domain.ServiceTarget, len(names))
	for i, n := range names {
		out[i] = domain.ServiceTarget{Name: n, HealthURL: "http://example.invalid/" + n}
	}
	return out
}

func TestInitialSnapshotIsUnknown(t *testing.T) {
	a := NewAggregator(&stubProber{}, targets("a", "b"), time.Minute, events.NopPublisher{}, testLogger())

	snapshot := a.Snapshot()
	assert.Equal(t, domain.OverallWarning, snapshot.Summary.OverallStatus)
	assert.Equal(t, 2, snapshot.Summary.TotalCount)
	assert.Zero(t, snapshot.Summary.HealthyCount)
	require.Len(t, snapshot.Results, 2)
	for _, r := range snapshot.Results {
		assert.Equal(t, domain.ProbeStatusUnknown, r.Status)
	}
}

func TestCycleAgainstRealServers(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	tgts := []domain.ServiceTarget{
		{Name: "up", HealthURL: healthy.URL},
		{Name: "down", HealthURL: broken.URL},
	}

	a := NewAggregator(NewHTTPProber(2*time.Second), tgts, time.Minute, events.NopPublisher{}, testLogger())
	require.True(t, a.Refresh(context.Background()))

	snapshot := a.Snapshot()
	assert.Equal(t, 1, snapshot.Summary.HealthyCount)
	assert.Equal(t, 1, snapshot.Summary.UnhealthyCount)
	assert.Equal(t, domain.OverallWarning, snapshot.Summary.OverallStatus)
	require.Len(t, snapshot.Results, 2)
	assert.Equal(t, "up", snapshot.Results[0].Service)
	assert.Equal(t, domain.ProbeStatusHealthy, snapshot.Results[0].Status)
	assert.Equal(t, "HTTP 503", snapshot.Results[1].Error)
	assert.False(t, snapshot.Summary.LastUpdated.IsZero())
}

func TestAllHealthyIsOverallHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tgts := []domain.ServiceTarget{{Name: "only", HealthURL: srv.URL}}

	a := NewAggregator(NewHTTPProber(2*time.Second), tgts, time.Minute, events.NopPublisher{}, testLogger())
	a.Refresh(context.Background())

	assert.Equal(t, domain.OverallHealthy, a.Snapshot().Summary.OverallStatus)
}

func TestAverageExcludesTimeouts(t *testing.T) {
	prober := &stubProber{results: map[string]domain.ProbeResult{
		"fast": {Status: domain.ProbeStatusHealthy, ResponseTimeMs: ms(100)},
		"dead": {Status: domain.ProbeStatusUnhealthy, TimedOut: true, Error: "Timeout"},
		"slow": {Status: domain.ProbeStatusHealthy, ResponseTimeMs: ms(200)},
	}}

	a := NewAggregator(prober, targets("fast", "dead", "slow"), time.Minute, events.NopPublisher{}, testLogger())
	a.Refresh(context.Background())

	summary := a.Snapshot().Summary
	require.NotNil(t, summary.AverageResponseTimeMs)
	assert.Equal(t, int64(150), *summary.AverageResponseTimeMs)
	assert.Equal(t, 2, summary.HealthyCount)
	assert.Equal(t, 1, summary.UnhealthyCount)
}

func TestAverageAbsentWhenNoResponses(t *testing.T) {
	prober := &stubProber{results: map[string]domain.ProbeResult{
		"dead": {Status: domain.ProbeStatusUnhealthy, TimedOut: true, Error: "Timeout"},
	}}

	a := NewAggregator(prober, targets("dead"), time.Minute, events.NopPublisher{}, testLogger())
	a.Refresh(context.Background())

	assert.Nil(t, a.Snapshot().Summary.AverageResponseTimeMs)
}

func TestZeroTargetsNeverHealthy(t *testing.T) {
	a := NewAggregator(&stubProber{}, nil, time.Minute, events.NopPublisher{}, testLogger())
	a.Refresh(context.Background())

	summary := a.Snapshot().Summary
	assert.Equal(t, domain.OverallWarning, summary.OverallStatus)
	assert.Zero(t, summary.TotalCount)
}

func TestRefreshSkippedWhileCycleInFlight(t *testing.T) {
	prober := &stubProber{
		results: map[string]domain.ProbeResult{"svc": {Status: domain.ProbeStatusHealthy, ResponseTimeMs: ms(1)}},
		block:   make(chan struct{}),
	}

	a := NewAggregator(prober, targets("svc"), time.Minute, events.NopPublisher{}, testLogger())

	first := make(chan bool)
	go func() {
		first <- a.Refresh(context.Background())
	}()

	// Wait until the in-flight cycle is actually blocked inside the probe.
	require.Eventually(t, func() bool {
		prober.mu.Lock()
		defer prober.mu.Unlock()
		return prober.calls == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, a.Refresh(context.Background()), "overlapping refresh must be skipped")

	close(prober.block)
	assert.True(t, <-first)

	prober.mu.Lock()
	assert.Equal(t, 1, prober.calls, "the skipped refresh must not have probed")
	prober.mu.Unlock()
}

func TestRefreshIgnoresCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tgts := []domain.ServiceTarget{{Name: "svc", HealthURL: srv.URL}}
	a := NewAggregator(NewHTTPProber(2*time.Second), tgts, time.Minute, events.NopPublisher{}, testLogger())

	require.True(t, a.Refresh(context.Background()))
	require.Equal(t, domain.OverallHealthy, a.Snapshot().Summary.OverallStatus)

	// A caller that has already disconnected still gets a real cycle, and the
	// cancellation must not leak into the probes.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, a.Refresh(cancelled))

	snapshot := a.Snapshot()
	assert.Equal(t, domain.OverallHealthy, snapshot.Summary.OverallStatus)
	require.Len(t, snapshot.Results, 1)
	assert.Equal(t, domain.ProbeStatusHealthy, snapshot.Results[0].Status)
	assert.Empty(t, snapshot.Results[0].Error)
}

func TestNewCycleReplacesPreviousResults(t *testing.T) {
	prober := &stubProber{results: map[string]domain.ProbeResult{
		"svc": {Status: domain.ProbeStatusHealthy, ResponseTimeMs: ms(10)},
	}}
	a := NewAggregator(prober, targets("svc"), time.Minute, events.NopPublisher{}, testLogger())

	a.Refresh(context.Background())
	assert.Equal(t, domain.OverallHealthy, a.Snapshot().Summary.OverallStatus)

	prober.results["svc"] = domain.ProbeResult{Status: domain.ProbeStatusUnhealthy, Error: "HTTP 500", ResponseTimeMs: ms(20)}
	a.Refresh(context.Background())

	snapshot := a.Snapshot()
	assert.Equal(t, domain.OverallWarning, snapshot.Summary.OverallStatus)
	require.Len(t, snapshot.Results, 1)
	assert.Equal(t, int64(20), *snapshot.Results[0].ResponseTimeMs)
}
