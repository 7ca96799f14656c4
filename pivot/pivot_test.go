package pivot

import (
	"testing"

	"github.com/giygas/trialsites/trialsparser/entities"
	"github.com/google/go-cmp/cmp"
)

func record(id string, locations ...entities.LocationEntry) entities.StudyRecord {
	return entities.StudyRecord{StudyID: id, Locations: locations}
}

func loc(site, country string) entities.LocationEntry {
	return entities.LocationEntry{Site: site, Country: country}
}

func TestBuildLocationIndexLastWriteWins(t *testing.T) {
	records := []entities.StudyRecord{
		record("NCT001", loc("Site X", "A")),
		record("NCT002", loc("Site Y", "C"), loc("Site X", "B")),
	}

	index := BuildLocationIndex(records)

	if country, ok := index.Country("Site X"); !ok || country != "B" {
		t.Errorf("Country(Site X) = %q, %v, want B, true", country, ok)
	}
	if diff := cmp.Diff([]string{"Site X", "Site Y"}, index.Sites()); diff != "" {
		t.Errorf("Sites() not in first-insertion order (-want +got):\n%s", diff)
	}
	if index.Len() != 2 {
		t.Errorf("Len() = %d, want 2", index.Len())
	}
	if _, ok := index.Country("Site Z"); ok {
		t.Error("unknown site should not be found")
	}
}

func TestBuildLocationStudyMap(t *testing.T) {
	records := []entities.StudyRecord{
		record("NCT001", loc("Site A", "USA"), loc("Site B", "France")),
		record("NCT002", loc("Site A", "USA")),
		record("NCT003", loc("Site B", "France"), loc("Site B", "France")),
	}

	studyMap := BuildLocationStudyMap(records)

	if diff := cmp.Diff([]string{"Site A", "Site B"}, studyMap.Sites()); diff != "" {
		t.Errorf("Sites() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"NCT001", "NCT002"}, studyMap.Studies("Site A")); diff != "" {
		t.Errorf("Studies(Site A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"NCT001", "NCT003", "NCT003"}, studyMap.Studies("Site B")); diff != "" {
		t.Errorf("Studies(Site B) mismatch, duplicates must be kept (-want +got):\n%s", diff)
	}
	if studyMap.Rows() != 5 {
		t.Errorf("Rows() = %d, want 5", studyMap.Rows())
	}
	if studyMap.Studies("Site C") != nil {
		t.Error("unknown site should have no studies")
	}
}

func TestReverseCoversEveryPair(t *testing.T) {
	records := []entities.StudyRecord{
		record("NCT001", loc("Site A", "USA"), loc("", ""), loc("Site B", "France")),
		record("NCT002", loc("Site A", "USA")),
		record("NCT003"),
	}

	index, studyMap := Reverse(records)

	pairs := 0
	for _, r := range records {
		pairs += len(r.Locations)
		for _, l := range r.Locations {
			if _, ok := index.Country(l.Site); !ok {
				t.Errorf("site %q missing from index", l.Site)
			}
			found := false
			for _, id := range studyMap.Studies(l.Site) {
				if id == r.StudyID {
					found = true
				}
			}
			if !found {
				t.Errorf("study %s missing under site %q", r.StudyID, l.Site)
			}
		}
	}

	if studyMap.Rows() != pairs {
		t.Errorf("Rows() = %d, want %d", studyMap.Rows(), pairs)
	}
	if diff := cmp.Diff(index.Sites(), studyMap.Sites()); diff != "" {
		t.Errorf("index and study map disagree on site order (-index +studyMap):\n%s", diff)
	}
}

func TestReverseEmpty(t *testing.T) {
	index, studyMap := Reverse(nil)
	if index.Len() != 0 || studyMap.Len() != 0 || studyMap.Rows() != 0 {
		t.Error("empty input should produce empty mappings")
	}
}
