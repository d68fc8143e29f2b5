package health

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"microforge/pulse/internal/domain"
	"microforge/pulse/internal/events"
)

// Aggregator runs probe cycles over a fixed target set and publishes the
// reduction as an immutable snapshot. Readers always observe a complete
// cycle; a cycle in flight blocks the next one from starting (the trigger is
// skipped, never queued).
type Aggregator struct {
	prober   Prober
	targets  []domain.ServiceTarget
	interval time.Duration
	events   events.Publisher
	log      *slog.Logger

	snapshot atomic.Pointer[domain.HealthSnapshot]
	cycleMu  sync.Mutex
}

func NewAggregator(prober Prober, targets []domain.ServiceTarget, interval time.Duration, publisher events.Publisher, log *slog.Logger) *Aggregator {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	a := &Aggregator{
		prober:   prober,
		targets:  targets,
		interval: interval,
		events:   publisher,
		log:      log,
	}
	a.snapshot.Store(a.initialSnapshot())

	return a
}

// initialSnapshot is the pre-first-cycle view: every target unknown, overall
// warning, no average.
func (a *Aggregator) initialSnapshot() *domain.HealthSnapshot {
	results := make([]domain.ProbeResult, len(a.targets))
	for i, t := range a.targets {
		results[i] = domain.ProbeResult{
			Service:    t.Name,
			Technology: t.Technology,
			Port:       t.Port,
			Status:     domain.ProbeStatusUnknown,
		}
	}

	return &domain.HealthSnapshot{
		Summary: domain.HealthSummary{
			TotalCount:    len(a.targets),
			OverallStatus: domain.OverallWarning,
		},
		Results: results,
	}
}

// Start runs an immediate cycle and then one per interval until ctx is
// cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.log.Info("health aggregator started",
		"targets", len(a.targets),
		"interval", a.interval.String(),
	)

	a.Refresh(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.Refresh(ctx) {
				a.log.Warn("previous cycle still running, tick skipped")
			}
		case <-ctx.Done():
			a.log.Info("health aggregator stopped")
			return nil
		}
	}
}

// Refresh runs one cycle synchronously. It returns false without probing when
// another cycle is already in flight, so two cycles never race on the same
// target set or the snapshot. A started cycle is detached from the caller's
// cancellation: only the per-probe timeout can fail a probe, so a caller that
// goes away mid-cycle never poisons the published snapshot.
func (a *Aggregator) Refresh(ctx context.Context) bool {
	if !a.cycleMu.TryLock() {
		return false
	}
	defer a.cycleMu.Unlock()

	a.runCycle(context.WithoutCancel(ctx))
	return true
}

// runCycle fans out one probe per target and joins them all: a cycle
// completes only after every probe returned, errored, or timed out. One
// target's failure never aborts the cycle.
func (a *Aggregator) runCycle(ctx context.Context) {
	results := make([]domain.ProbeResult, len(a.targets))

	var wg sync.WaitGroup
	for i, target := range a.targets {
		wg.Add(1)
		go func(i int, target domain.ServiceTarget) {
			defer wg.Done()
			results[i] = a.prober.Probe(ctx, target)
		}(i, target)
	}
	wg.Wait()

	snapshot := &domain.HealthSnapshot{
		Summary: reduce(results, time.Now()),
		Results: results,
	}
	a.snapshot.Store(snapshot)

	a.log.Info("health cycle completed",
		"healthy", snapshot.Summary.HealthyCount,
		"unhealthy", snapshot.Summary.UnhealthyCount,
		"overall", snapshot.Summary.OverallStatus,
	)

	a.events.PublishHealth(ctx, *snapshot)
}

// reduce computes the cycle summary. The average excludes probes without a
// recorded response time and is absent when no probe recorded one; overall
// status is healthy only when nothing is unhealthy and at least one target
// is healthy.
func reduce(results []domain.ProbeResult, now time.Time) domain.HealthSummary {
	summary := domain.HealthSummary{
		TotalCount:  len(results),
		LastUpdated: now,
	}

	var latencySum, latencyCount int64
	for _, r := range results {
		switch r.Status {
		case domain.ProbeStatusHealthy:
			summary.HealthyCount++
		case domain.ProbeStatusUnhealthy:
			summary.UnhealthyCount++
		}
		if r.ResponseTimeMs != nil {
			latencySum += *r.ResponseTimeMs
			latencyCount++
		}
	}

	if latencyCount > 0 {
		avg := latencySum / latencyCount
		summary.AverageResponseTimeMs = &avg
	}

	if summary.UnhealthyCount == 0 && summary.HealthyCount > 0 {
		summary.OverallStatus = domain.OverallHealthy
	} else {
		summary.OverallStatus = domain.OverallWarning
	}

	return summary
}

// Snapshot returns the most recently published cycle view.
func (a *Aggregator) Snapshot() domain.HealthSnapshot {
	return *a.snapshot.Load()
}
