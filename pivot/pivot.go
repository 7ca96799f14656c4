// Package pivot inverts study records into per-location mappings.
// Both mappings keep their keys in first-insertion order so the writers
// emit locations in the order they appear in the export.
package pivot

import "github.com/giygas/trialsites/trialsparser/entities"

// LocationIndex maps a site name to its country. When a site shows up with
// different countries the last one in input order wins.
type LocationIndex struct {
	sites     []string
	countries map[string]string
}

// NewLocationIndex creates an empty index
func NewLocationIndex() *LocationIndex {
	return &LocationIndex{countries: make(map[string]string)}
}

// Set records the country of a site, overwriting any earlier value
func (i *LocationIndex) Set(site, country string) {
	if _, exists := i.countries[site]; !exists {
		i.sites = append(i.sites, site)
	}
	i.countries[site] = country
}

// Country returns the country recorded for site
func (i *LocationIndex) Country(site string) (string, bool) {
	country, ok := i.countries[site]
	return country, ok
}

// Sites returns the site names in first-insertion order
func (i *LocationIndex) Sites() []string {
	return i.sites
}

func (i *LocationIndex) Len() int {
	return len(i.sites)
}

// LocationStudyMap maps a site name to the study IDs conducted there,
// in input order and with duplicates kept.
type LocationStudyMap struct {
	sites   []string
	studies map[string][]string
}

// NewLocationStudyMap creates an empty mapping
func NewLocationStudyMap() *LocationStudyMap {
	return &LocationStudyMap{studies: make(map[string][]string)}
}

// Add appends studyID to the list of site, creating it on first encounter
func (m *LocationStudyMap) Add(site, studyID string) {
	list, exists := m.studies[site]
	if !exists {
		m.sites = append(m.sites, site)
	}
	m.studies[site] = append(list, studyID)
}

// Studies returns the study IDs recorded for site
func (m *LocationStudyMap) Studies(site string) []string {
	return m.studies[site]
}

// Sites returns the site names in first-insertion order
func (m *LocationStudyMap) Sites() []string {
	return m.sites
}

func (m *LocationStudyMap) Len() int {
	return len(m.sites)
}

// Rows returns the number of (site, study) pairs
func (m *LocationStudyMap) Rows() int {
	rows := 0
	for _, site := range m.sites {
		rows += len(m.studies[site])
	}
	return rows
}

// BuildLocationIndex visits every (study, location) pair in input order
func BuildLocationIndex(records []entities.StudyRecord) *LocationIndex {
	index := NewLocationIndex()
	for _, record := range records {
		for _, location := range record.Locations {
			index.Set(location.Site, location.Country)
		}
	}
	return index
}

// BuildLocationStudyMap visits every (study, location) pair in input order
func BuildLocationStudyMap(records []entities.StudyRecord) *LocationStudyMap {
	studyMap := NewLocationStudyMap()
	for _, record := range records {
		for _, location := range record.Locations {
			studyMap.Add(location.Site, record.StudyID)
		}
	}
	return studyMap
}

// Reverse builds both mappings from the same records
func Reverse(records []entities.StudyRecord) (*LocationIndex, *LocationStudyMap) {
	return BuildLocationIndex(records), BuildLocationStudyMap(records)
}
