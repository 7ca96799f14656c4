// Package converter turns a registry export into a pivoted workbook:
// read the TSV, pivot it, lay it out and write it with excelize.
package converter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/giygas/trialsites/config"
	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/metrics"
	"github.com/giygas/trialsites/pivot"
	"github.com/giygas/trialsites/sheet"
	"github.com/giygas/trialsites/trialsparser"
	"github.com/giygas/trialsites/trialsparser/entities"
	"github.com/giygas/trialsites/validation"
)

// Analysis selects the layout of the output sheet
type Analysis string

const (
	// LocationStudies pivots by institution: one group of rows per site
	LocationStudies Analysis = config.AnalysisLocationStudies
	// StudyLocations lists the locations of every study in a column pair
	StudyLocations Analysis = config.AnalysisStudyLocations
)

// DefaultAnalysis is used when no analysis is requested
const DefaultAnalysis = LocationStudies

// Analyses returns the accepted analysis names
func Analyses() []Analysis {
	return []Analysis{StudyLocations, LocationStudies}
}

// ParseAnalysis validates an analysis name; an empty name selects DefaultAnalysis
func ParseAnalysis(name string) (Analysis, error) {
	switch Analysis(name) {
	case "":
		return DefaultAnalysis, nil
	case LocationStudies, StudyLocations:
		return Analysis(name), nil
	}
	return "", fmt.Errorf("unknown analysis %q, must be one of %v", name, Analyses())
}

// Options configures a conversion
type Options struct {
	Analysis  Analysis
	SheetName string
}

// Result summarizes a conversion
type Result struct {
	Analysis  Analysis
	Studies   int
	Locations int // Distinct site names
	Rows      int // Rows written below the header
	Merges    int
	Report    *interfaces.DataQualityReport
	Duration  time.Duration
}

// Converter wires the parser and validator used by a conversion
type Converter struct {
	parser    interfaces.Parser
	validator interfaces.DataValidator
}

// New creates a converter with injected dependencies
func New(parser interfaces.Parser, validator interfaces.DataValidator) *Converter {
	return &Converter{parser: parser, validator: validator}
}

// NewDefault creates a converter with the TSV parser and the default validator
func NewDefault() *Converter {
	return New(trialsparser.NewTrialsParser(), validation.NewDataValidator())
}

// Convert reads an export from r and writes the xlsx workbook to w.
// Nothing is written to w when reading or laying out fails.
func (c *Converter) Convert(r io.Reader, w io.Writer, opts Options) (*Result, error) {
	start := time.Now()

	analysis, err := ParseAnalysis(string(opts.Analysis))
	if err != nil {
		return nil, err
	}

	records, err := c.parser.ReadStudies(r)
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues(string(analysis), "failed").Inc()
		return nil, fmt.Errorf("failed to read registry export: %w", err)
	}

	result, writer, err := c.build(records, analysis, opts.SheetName)
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues(string(analysis), "failed").Inc()
		return nil, err
	}
	defer closeWriter(writer)

	if _, err := writer.WriteTo(w); err != nil {
		metrics.ConversionsTotal.WithLabelValues(string(analysis), "failed").Inc()
		return nil, err
	}

	result.Duration = time.Since(start)
	observe(result)
	return result, nil
}

// ConvertFile converts the export at inPath into a workbook at outPath.
// Both paths are checked before anything is read; the output file is only
// created once the workbook has been built.
func (c *Converter) ConvertFile(inPath, outPath string, opts Options) (*Result, error) {
	in, err := c.validator.ValidateInputPath(inPath)
	if err != nil {
		return nil, err
	}
	out, err := c.validator.ValidateOutputPath(outPath)
	if err != nil {
		return nil, err
	}

	logging.Info("Converting registry export", "input", in, "output", out, "analysis", string(opts.Analysis))

	var buf bytes.Buffer
	file, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", in, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close input TSV file", "error", err, "path", in)
		}
	}()

	result, err := c.Convert(file, &buf, opts)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write workbook %s: %w", out, err)
	}

	logging.Info("Workbook written",
		"output", out,
		"analysis", string(result.Analysis),
		"studies", result.Studies,
		"locations", result.Locations,
		"rows", result.Rows,
		"merges", result.Merges,
		"duration", result.Duration.String(),
	)

	return result, nil
}

// build pivots records, lays out the selected analysis and fills a workbook
func (c *Converter) build(records []entities.StudyRecord, analysis Analysis, sheetName string) (*Result, *sheet.ExcelWriter, error) {
	report := c.validator.ReportDataQuality(records)
	validation.LogReport(report)

	index, studyMap := pivot.Reverse(records)

	var layout sheet.Layout
	rows := 0
	switch analysis {
	case StudyLocations:
		layout = sheet.StudyLocationsLayout(records)
		rows = max(layout.LastRow()-1, 0)
	default:
		layout = sheet.LocationStudiesLayout(index, studyMap)
		rows = studyMap.Rows()
	}

	writer, err := sheet.NewExcelWriter(sheetName)
	if err != nil {
		return nil, nil, err
	}

	if err := sheet.Apply(writer, layout); err != nil {
		closeWriter(writer)
		return nil, nil, fmt.Errorf("failed to lay out %s sheet: %w", analysis, err)
	}

	return &Result{
		Analysis:  analysis,
		Studies:   len(records),
		Locations: studyMap.Len(),
		Rows:      rows,
		Merges:    len(layout.Merges),
		Report:    report,
	}, writer, nil
}

func observe(result *Result) {
	analysis := string(result.Analysis)
	metrics.ConversionsTotal.WithLabelValues(analysis, "success").Inc()
	metrics.ConversionDuration.WithLabelValues(analysis).Observe(result.Duration.Seconds())
	metrics.StudiesRead.Add(float64(result.Studies))
	if result.Report != nil {
		metrics.LocationsParsed.Add(float64(result.Report.LocationEntries))
		metrics.MalformedLocations.Add(float64(result.Report.MalformedLocations))
	}
}

func closeWriter(w *sheet.ExcelWriter) {
	if err := w.Close(); err != nil {
		logging.Warn("Failed to close workbook", "error", err)
	}
}
