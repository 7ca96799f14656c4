// Package trialsparser reads clinical-trials registry exports and parses their location cells.
package trialsparser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/trialsparser/entities"
	"golang.org/x/text/encoding/charmap"
)

const (
	// StudyIDColumn is the header of the study identifier column
	StudyIDColumn = "NCT Number"
	// LocationsColumn is the header of the pipe-delimited locations column
	LocationsColumn = "Locations"

	fieldSeparator = "\t"
	utf8BOM        = "\ufeff"
	maxLineSize    = 16 * 1024 * 1024
)

var (
	// ErrMissingColumn is matched by every MissingColumnError
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyInput is returned when the input has no header line
	ErrEmptyInput = errors.New("empty input")
)

// MissingColumnError reports a required header that is absent from the header row
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q in header row", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Columns holds the positions of the required fields, resolved once from the header row
type Columns struct {
	StudyID   int
	Locations int
}

// ResolveColumns finds the required columns by exact header name
func ResolveColumns(header []string) (Columns, error) {
	cols := Columns{StudyID: -1, Locations: -1}

	for i, name := range header {
		switch name {
		case StudyIDColumn:
			if cols.StudyID == -1 {
				cols.StudyID = i
			}
		case LocationsColumn:
			if cols.Locations == -1 {
				cols.Locations = i
			}
		}
	}

	if cols.StudyID == -1 {
		return cols, &MissingColumnError{Column: StudyIDColumn}
	}
	if cols.Locations == -1 {
		return cols, &MissingColumnError{Column: LocationsColumn}
	}

	return cols, nil
}

// ReadStudiesFile opens path and reads every study record from it
func ReadStudiesFile(path string) ([]entities.StudyRecord, error) {
	tsvFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := tsvFile.Close(); err != nil {
			logging.Warn("Failed to close input TSV file", "error", err, "path", path)
		}
	}()

	return ReadStudies(tsvFile)
}

// ReadStudies reads a header-driven TSV export and returns one StudyRecord per data line.
// The whole input is loaded into memory; non UTF-8 input is decoded as ISO-8859-1.
func ReadStudies(r io.Reader) ([]entities.StudyRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	// Registry exports saved from spreadsheet tools are sometimes latin-1
	var reader io.Reader
	if utf8.Valid(body) {
		reader = bytes.NewReader(body)
	} else {
		logging.Debug("Input is not valid UTF-8, decoding as ISO-8859-1")
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header row: %w", err)
		}
		return nil, ErrEmptyInput
	}

	header := strings.Split(trimLine(strings.TrimPrefix(scanner.Text(), utf8BOM)), fieldSeparator)
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}
	minFields := max(cols.StudyID, cols.Locations) + 1

	var records []entities.StudyRecord
	lineCount := 1
	skippedEmptyLines := 0
	skippedMissingColumns := 0

	for scanner.Scan() {
		lineCount++
		line := trimLine(scanner.Text())

		if len(line) == 0 {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, fieldSeparator)
		if len(fields) < minFields {
			skippedMissingColumns++
			continue
		}

		records = append(records, entities.StudyRecord{
			StudyID:   fields[cols.StudyID],
			Locations: ParseLocations(fields[cols.Locations]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error at line %d: %w", lineCount+1, err)
	}

	if skippedEmptyLines > 0 || skippedMissingColumns > 0 {
		logging.Info("Registry export skip statistics",
			"empty_lines", skippedEmptyLines,
			"missing_columns", skippedMissingColumns,
			"total_lines", lineCount,
			"records_parsed", len(records))
	}

	logging.Debug("Registry export parsed", "records_count", len(records))
	return records, nil
}

func trimLine(line string) string {
	return strings.TrimRight(line, "\r\n")
}
