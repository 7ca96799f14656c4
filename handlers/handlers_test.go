package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/trialsites/converter"
	"github.com/giygas/trialsites/data"
	"github.com/giygas/trialsites/sheet"
)

const sampleExport = "NCT Number\tLocations\nNCT001\tSite A, USA|Site B, France\n"

type stubHealthChecker struct {
	status     string
	httpStatus int
}

func (s stubHealthChecker) HealthCheck() (string, map[string]any, int) {
	return s.status, map[string]any{"uptime": "1s"}, s.httpStatus
}

func TestConvert(t *testing.T) {
	store := data.NewRunContainer()
	handler := Convert(converter.NewDefault(), store, converter.LocationStudies, "Sheet1")

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(sampleExport))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != sheet.ContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, WorkbookFileName) {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rr.Body.Len() == 0 {
		t.Error("empty workbook body")
	}

	last, ok := store.GetLastConversion()
	if !ok || last.Studies != 1 || last.Locations != 2 || last.Analysis != string(converter.LocationStudies) {
		t.Errorf("recorded conversion = %+v", last)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   io.Reader
		status int
	}{
		{"bad analysis", "?analysis=nope", strings.NewReader(sampleExport), http.StatusBadRequest},
		{"missing column", "", strings.NewReader("NCT Number\nNCT001\n"), http.StatusUnprocessableEntity},
		{"empty", "", strings.NewReader(""), http.StatusUnprocessableEntity},
		{"read failure", "", errReader{}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := data.NewRunContainer()
			handler := Convert(converter.NewDefault(), store, converter.LocationStudies, "")

			req := httptest.NewRequest(http.MethodPost, "/convert"+tt.query, tt.body)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("expected a JSON error body, got %q", rr.Body.String())
			}
		})
	}
}

func TestConvertTooLarge(t *testing.T) {
	handler := Convert(converter.NewDefault(), data.NewRunContainer(), converter.LocationStudies, "")

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(sampleExport))
	rr := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rr, req.Body, 8)
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestHealthCheckHandler(t *testing.T) {
	tests := []struct {
		checker stubHealthChecker
	}{
		{stubHealthChecker{"healthy", http.StatusOK}},
		{stubHealthChecker{"degraded", http.StatusServiceUnavailable}},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		HealthCheck(tt.checker).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rr.Code != tt.checker.httpStatus {
			t.Errorf("status = %d, want %d", rr.Code, tt.checker.httpStatus)
		}

		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body["status"] != tt.checker.status {
			t.Errorf("status field = %v, want %s", body["status"], tt.checker.status)
		}
	}
}

func TestRespondWithJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusCreated, map[string]int{"studies": 3})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	rr = httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, make(chan int))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("unmarshalable payload status = %d, want 500", rr.Code)
	}
}
