// Package interfaces defines core abstractions for the trial sites converter
// to keep the reader, the writers and the surfaces around them swappable in tests.
package interfaces

import (
	"io"
	"time"

	"github.com/giygas/trialsites/trialsparser/entities"
)

// CountryConflict lists the distinct countries seen for one site name, in input order
type CountryConflict struct {
	Site      string
	Countries []string
}

// DataQualityReport provides a summary of data quality issues in a registry export
type DataQualityReport struct {
	StudyCount              int
	LocationEntries         int
	MalformedLocations      int      // Entries whose location string had no ", " separator
	StudiesWithoutLocations []string // Study IDs whose Locations cell was empty
	DuplicateStudyIDs       []string
	CountryConflicts        []CountryConflict // Sites seen with more than one country
}

// Parser defines the contract for reading study records from a registry export.
type Parser interface {
	// ReadStudies reads every study record from a TSV export
	ReadStudies(r io.Reader) ([]entities.StudyRecord, error)

	// ReadStudiesFile reads every study record from the TSV export at path
	ReadStudiesFile(path string) ([]entities.StudyRecord, error)
}

// SheetWriter is the tabular sheet collaborator the layouts are written to.
// Rows and columns are 1-based.
type SheetWriter interface {
	SetCellValue(row, col int, value string) error
	MergeCells(startRow, startCol, endRow, endCol int) error
}

// DataValidator defines the contract for input checks and data quality reporting.
type DataValidator interface {
	// ValidateInputPath checks that the input file exists and returns its absolute path
	ValidateInputPath(path string) (string, error)

	// ValidateOutputPath checks that the output directory exists and returns the absolute path
	ValidateOutputPath(path string) (string, error)

	// ReportDataQuality generates a data quality report for the parsed records
	ReportDataQuality(records []entities.StudyRecord) *DataQualityReport
}

// Scheduler defines the contract for periodic re-conversion jobs.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// ConversionSummary is what the run store remembers about one conversion
type ConversionSummary struct {
	Analysis  string
	Studies   int
	Locations int
	Rows      int
	Err       error
	At        time.Time
}

// RunStore defines the contract for the shared state of long-running modes.
// It keeps the last conversion and guards against overlapping runs.
type RunStore interface {
	RecordConversion(summary ConversionSummary)
	GetLastConversion() (ConversionSummary, bool)
	GetLastSuccess() time.Time
	GetConversionCount() (succeeded, failed int64)
	GetStartTime() time.Time

	BeginRun() bool
	EndRun()
	IsRunning() bool
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, the details to report and the HTTP status to use
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
