// Package validation checks converter inputs and reports data quality issues in registry exports.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/trialsparser/entities"
)

var (
	// ErrInputNotFound is returned when the input file does not exist
	ErrInputNotFound = errors.New("input file does not exist")
	// ErrInputNotRegular is returned when the input path is a directory or a device
	ErrInputNotRegular = errors.New("input path is not a regular file")
	// ErrOutputDirNotFound is returned when the output directory does not exist
	ErrOutputDirNotFound = errors.New("output directory does not exist")
)

// Compile-time check to ensure DataValidatorImpl implements DataValidator interface
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateInputPath checks that the input file exists and returns its absolute path
func (v *DataValidatorImpl) ValidateInputPath(path string) (string, error) {
	abs, err := absPath(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, abs)
		}
		return "", fmt.Errorf("failed to stat input %s: %w", abs, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrInputNotRegular, abs)
	}

	return abs, nil
}

// ValidateOutputPath checks that the directory of the output file exists and returns the absolute path
func (v *DataValidatorImpl) ValidateOutputPath(path string) (string, error) {
	abs, err := absPath(path)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(abs)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrOutputDirNotFound, dir)
	}

	return abs, nil
}

// absPath expands a leading ~ and makes path absolute
func absPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// ReportDataQuality generates a data quality report for the parsed records.
// It only reports: conflicting countries are still resolved last-write-wins by the pivot.
func (v *DataValidatorImpl) ReportDataQuality(records []entities.StudyRecord) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		StudyCount: len(records),
	}

	seenStudies := make(map[string]int)
	siteCountries := make(map[string][]string)
	var siteOrder []string

	for _, record := range records {
		seenStudies[record.StudyID]++
		if seenStudies[record.StudyID] == 2 {
			report.DuplicateStudyIDs = append(report.DuplicateStudyIDs, record.StudyID)
		}

		if len(record.Locations) == 0 || (len(record.Locations) == 1 && record.Locations[0].IsEmpty()) {
			report.StudiesWithoutLocations = append(report.StudiesWithoutLocations, record.StudyID)
		}

		for _, location := range record.Locations {
			report.LocationEntries++

			if location.IsEmpty() {
				report.MalformedLocations++
				continue
			}

			countries, exists := siteCountries[location.Site]
			if !exists {
				siteOrder = append(siteOrder, location.Site)
			}
			if !slices.Contains(countries, location.Country) {
				siteCountries[location.Site] = append(countries, location.Country)
			}
		}
	}

	for _, site := range siteOrder {
		if countries := siteCountries[site]; len(countries) > 1 {
			report.CountryConflicts = append(report.CountryConflicts, interfaces.CountryConflict{
				Site:      site,
				Countries: countries,
			})
		}
	}

	return report
}

// LogReport writes the issues of report through the global logger
func LogReport(report *interfaces.DataQualityReport) {
	if report == nil {
		return
	}

	if report.MalformedLocations > 0 {
		logging.Warn("Location entries without a country separator",
			"count", report.MalformedLocations,
			"total_entries", report.LocationEntries,
		)
	}

	if len(report.StudiesWithoutLocations) > 0 {
		logging.Info("Studies without locations",
			"count", len(report.StudiesWithoutLocations),
			"study_ids", report.StudiesWithoutLocations,
		)
	}

	if len(report.DuplicateStudyIDs) > 0 {
		logging.Warn("Duplicate study IDs detected",
			"count", len(report.DuplicateStudyIDs),
			"study_ids", report.DuplicateStudyIDs,
		)
	}

	// Last-write-wins is accepted; these only go to the file log
	for _, conflict := range report.CountryConflicts {
		logging.Debug("Site listed with several countries",
			"site", conflict.Site,
			"countries", conflict.Countries,
		)
	}
}
