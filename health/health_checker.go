// Package health provides health checking for the server and scheduled modes.
package health

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/trialsites/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker interface
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	runStore   interfaces.RunStore
	staleAfter time.Duration
}

// NewHealthChecker creates a health checker. When staleAfter is positive a
// missing or old successful conversion degrades the status; the HTTP server
// passes zero since failed uploads say nothing about its own health.
func NewHealthChecker(runStore interfaces.RunStore, staleAfter time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		runStore:   runStore,
		staleAfter: staleAfter,
	}
}

// HealthCheck returns the status, its details and the HTTP status to answer with
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	succeeded, failed := h.runStore.GetConversionCount()
	lastSuccess := h.runStore.GetLastSuccess()
	last, hasLast := h.runStore.GetLastConversion()

	status = "healthy"
	httpStatus = http.StatusOK

	if h.staleAfter > 0 {
		switch {
		case lastSuccess.IsZero() && hasLast:
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		case !lastSuccess.IsZero() && time.Since(lastSuccess) > 2*h.staleAfter:
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		case !lastSuccess.IsZero() && time.Since(lastSuccess) > h.staleAfter:
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	data = map[string]any{
		"uptime":                formatUptimeHuman(time.Since(h.runStore.GetStartTime())),
		"conversions_succeeded": succeeded,
		"conversions_failed":    failed,
		"is_running":            h.runStore.IsRunning(),
	}

	if !lastSuccess.IsZero() {
		data["last_success"] = lastSuccess.Format(time.RFC3339)
		data["last_success_age_hours"] = math.Round(time.Since(lastSuccess).Hours()*10) / 10
	}

	if hasLast {
		data["last_analysis"] = last.Analysis
		data["last_studies"] = last.Studies
		if last.Err != nil {
			data["last_error"] = last.Err.Error()
		}
	}

	return status, data, httpStatus
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
