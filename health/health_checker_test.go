package health

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/trialsites/data"
	"github.com/giygas/trialsites/interfaces"
)

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		staleAfter time.Duration
		record     []interfaces.ConversionSummary
		wantStatus string
		wantHTTP   int
	}{
		{
			name:       "no conversions yet",
			staleAfter: time.Hour,
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "recent success",
			staleAfter: time.Hour,
			record:     []interfaces.ConversionSummary{{At: time.Now()}},
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "stale success degrades",
			staleAfter: time.Hour,
			record:     []interfaces.ConversionSummary{{At: time.Now().Add(-90 * time.Minute)}},
			wantStatus: "degraded",
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:       "very stale success is unhealthy",
			staleAfter: time.Hour,
			record:     []interfaces.ConversionSummary{{At: time.Now().Add(-3 * time.Hour)}},
			wantStatus: "unhealthy",
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:       "only failures is unhealthy",
			staleAfter: time.Hour,
			record:     []interfaces.ConversionSummary{{Err: errors.New("missing column")}},
			wantStatus: "unhealthy",
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:       "staleness ignored when disabled",
			staleAfter: 0,
			record:     []interfaces.ConversionSummary{{Err: errors.New("missing column")}},
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := data.NewRunContainer()
			for _, s := range tt.record {
				store.RecordConversion(s)
			}

			status, details, httpStatus := NewHealthChecker(store, tt.staleAfter).HealthCheck()
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if httpStatus != tt.wantHTTP {
				t.Errorf("http status = %d, want %d", httpStatus, tt.wantHTTP)
			}
			if _, ok := details["uptime"]; !ok {
				t.Error("details should include uptime")
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	store := data.NewRunContainer()
	store.RecordConversion(interfaces.ConversionSummary{Analysis: "study-locations", Studies: 12})
	store.RecordConversion(interfaces.ConversionSummary{Analysis: "location-studies", Err: errors.New("empty input")})

	_, details, _ := NewHealthChecker(store, 0).HealthCheck()

	if details["conversions_succeeded"] != int64(1) || details["conversions_failed"] != int64(1) {
		t.Errorf("counts = %v / %v", details["conversions_succeeded"], details["conversions_failed"])
	}
	if details["last_analysis"] != "location-studies" {
		t.Errorf("last_analysis = %v", details["last_analysis"])
	}
	if details["last_error"] != "empty input" {
		t.Errorf("last_error = %v", details["last_error"])
	}
	if _, ok := details["last_success"]; !ok {
		t.Error("last_success should be reported")
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{time.Hour, "1h 0m 0s"},
		{49*time.Hour + 30*time.Minute, "2d 1h 30m 0s"},
	}

	for _, tt := range tests {
		if got := formatUptimeHuman(tt.d); got != tt.want {
			t.Errorf("formatUptimeHuman(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
