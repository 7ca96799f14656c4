// Package sheet lays out pivoted study data as a grid of cells and merge ranges
// and writes it through a tabular sheet writer.
package sheet

import (
	"fmt"

	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/pivot"
	"github.com/giygas/trialsites/trialsparser/entities"
)

// Header cells of the location-pivoted sheet
const (
	InstitutionHeader = "Institution"
	CountryHeader     = "Country"
	StudyIDHeader     = "Study ID"
)

// Cell is a single value at a 1-based row and column
type Cell struct {
	Row   int
	Col   int
	Value string
}

// MergeRange is an inclusive, 1-based rectangle of merged cells
type MergeRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Layout is the full content of a sheet, ready to be written
type Layout struct {
	Cells  []Cell
	Merges []MergeRange
}

func (l *Layout) set(row, col int, value string) {
	l.Cells = append(l.Cells, Cell{Row: row, Col: col, Value: value})
}

func (l *Layout) merge(startRow, startCol, endRow, endCol int) {
	l.Merges = append(l.Merges, MergeRange{StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol})
}

// LastRow returns the highest row holding a value
func (l *Layout) LastRow() int {
	last := 0
	for _, c := range l.Cells {
		if c.Row > last {
			last = c.Row
		}
	}
	return last
}

// LocationStudiesLayout puts one row per (location, study) pair under the
// Institution/Country/Study ID header. The institution and country cells of a
// location are merged over its rows when it has more than one study. Groups are
// separated by an empty row.
func LocationStudiesLayout(index *pivot.LocationIndex, studyMap *pivot.LocationStudyMap) Layout {
	var layout Layout

	layout.set(1, 1, InstitutionHeader)
	layout.set(1, 2, CountryHeader)
	layout.set(1, 3, StudyIDHeader)

	row := 2
	for _, site := range studyMap.Sites() {
		startRow := row
		country, _ := index.Country(site)

		layout.set(row, 1, site)
		layout.set(row, 2, country)

		for _, studyID := range studyMap.Studies(site) {
			layout.set(row, 3, studyID)
			row++
		}

		if endRow := row - 1; endRow > startRow {
			layout.merge(startRow, 1, endRow, 1)
			layout.merge(startRow, 2, endRow, 2)
		}

		// spacer
		row++
	}

	return layout
}

// StudyLocationsLayout gives every study a two-column block: the study ID
// merged over both columns in row 1, then one site/country row per location.
// Study i (1-based) uses columns 2i-1 and 2i.
func StudyLocationsLayout(records []entities.StudyRecord) Layout {
	var layout Layout

	for i, record := range records {
		siteCol := 2*(i+1) - 1
		countryCol := siteCol + 1

		layout.set(1, siteCol, record.StudyID)
		layout.merge(1, siteCol, 1, countryCol)

		for j, location := range record.Locations {
			layout.set(j+2, siteCol, location.Site)
			layout.set(j+2, countryCol, location.Country)
		}
	}

	return layout
}

// Apply writes every cell then every merge range of layout to w
func Apply(w interfaces.SheetWriter, layout Layout) error {
	for _, c := range layout.Cells {
		if err := w.SetCellValue(c.Row, c.Col, c.Value); err != nil {
			return fmt.Errorf("failed to set cell (%d,%d): %w", c.Row, c.Col, err)
		}
	}

	for _, m := range layout.Merges {
		if err := w.MergeCells(m.StartRow, m.StartCol, m.EndRow, m.EndCol); err != nil {
			return fmt.Errorf("failed to merge (%d,%d)-(%d,%d): %w", m.StartRow, m.StartCol, m.EndRow, m.EndCol, err)
		}
	}

	return nil
}
