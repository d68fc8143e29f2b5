package domain

import "time"

type ProbeStatus string

const (
	ProbeStatusHealthy   ProbeStatus = "healthy"
	ProbeStatusUnhealthy ProbeStatus = "unhealthy"
	ProbeStatusUnknown   ProbeStatus = "unknown"
)

type OverallStatus string

const (
	OverallHealthy OverallStatus = "healthy"
	OverallWarning OverallStatus = "warning"
)

// ServiceTarget describes one dependent service to probe. Loaded once from
// configuration at startup and never mutated afterwards.
type ServiceTarget struct {
	Name       string `mapstructure:"name" json:"name"`
	HealthURL  string `mapstructure:"health_url" json:"health_url"`
	Port       int    `mapstructure:"port" json:"port"`
	Technology string `mapstructure:"technology" json:"technology"`
}

// ProbeResult is the outcome of a single health probe. ResponseTimeMs is nil
// when no response was received (timeout or transport failure).
type ProbeResult struct {
	Service        string      `json:"service"`
	Technology     string      `json:"technology,omitempty"`
	Port           int         `json:"port,omitempty"`
	Status         ProbeStatus `json:"status"`
	ResponseTimeMs *int64      `json:"response_time_ms,omitempty"`
	TimedOut       bool        `json:"timed_out,omitempty"`
	CheckedAt      time.Time   `json:"checked_at"`
	Error          string      `json:"error,omitempty"`
}

// HealthSummary is the reduction of one completed probe cycle.
// AverageResponseTimeMs covers only probes that received a response; it is
// nil when none did.
type HealthSummary struct {
	HealthyCount          int           `json:"healthy_count"`
	UnhealthyCount        int           `json:"unhealthy_count"`
	TotalCount            int           `json:"total_count"`
	AverageResponseTimeMs *int64        `json:"average_response_time_ms,omitempty"`
	OverallStatus         OverallStatus `json:"overall_status"`
	LastUpdated           time.Time     `json:"last_updated"`
}

// HealthSnapshot is a complete view of the most recent cycle. A new snapshot
// replaces the previous one atomically; results are never merged across
// cycles.
type HealthSnapshot struct {
	Summary HealthSummary `json:"summary"`
	Results []ProbeResult `json:"services"`
}
