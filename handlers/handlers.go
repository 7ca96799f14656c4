// Package handlers provides the HTTP handlers of the conversion server:
// TSV upload to workbook conversion and health reporting.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/giygas/trialsites/converter"
	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/sheet"
	"github.com/giygas/trialsites/trialsparser"
)

// WorkbookFileName is the attachment name of converted workbooks
const WorkbookFileName = "trialsites.xlsx"

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logging.Warn("Failed to write JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error body
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Convert handles POST /convert: the request body is a registry export, the
// response the pivoted workbook. The analysis query parameter selects the
// layout and falls back to defaultAnalysis.
func Convert(conv *converter.Converter, store interfaces.RunStore, defaultAnalysis converter.Analysis, sheetName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysis := defaultAnalysis
		if name := r.URL.Query().Get("analysis"); name != "" {
			parsed, err := converter.ParseAnalysis(name)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			analysis = parsed
		}

		var buf bytes.Buffer
		result, err := conv.Convert(r.Body, &buf, converter.Options{Analysis: analysis, SheetName: sheetName})

		summary := interfaces.ConversionSummary{Analysis: string(analysis), Err: err, At: time.Now()}
		if result != nil {
			summary.Studies = result.Studies
			summary.Locations = result.Locations
			summary.Rows = result.Rows
		}
		store.RecordConversion(summary)

		if err != nil {
			var maxBytesErr *http.MaxBytesError
			switch {
			case errors.Is(err, trialsparser.ErrMissingColumn), errors.Is(err, trialsparser.ErrEmptyInput):
				RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.As(err, &maxBytesErr):
				RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			default:
				logging.Error("Conversion failed", "error", err, "analysis", string(analysis))
				RespondWithError(w, http.StatusInternalServerError, "conversion failed")
			}
			return
		}

		w.Header().Set("Content-Type", sheet.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+WorkbookFileName+`"`)
		w.Header().Set("X-Studies", strconv.Itoa(result.Studies))
		w.Header().Set("X-Locations", strconv.Itoa(result.Locations))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logging.Warn("Failed to write workbook response", "error", err)
		}
	}
}

// HealthCheck handles GET /health
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details, httpStatus := checker.HealthCheck()
		details["status"] = status
		RespondWithJSON(w, httpStatus, details)
	}
}
