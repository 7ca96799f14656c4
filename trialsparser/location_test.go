package trialsparser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/giygas/trialsites/trialsparser/entities"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want entities.LocationEntry
	}{
		{
			name: "site with city and country",
			raw:  "Mayo Clinic, Rochester, Minnesota, United States",
			want: entities.LocationEntry{Site: "Mayo Clinic, Rochester, Minnesota", Country: "United States"},
		},
		{
			name: "site and country only",
			raw:  "Site A, USA",
			want: entities.LocationEntry{Site: "Site A", Country: "USA"},
		},
		{
			name: "korea keeps its comma",
			raw:  "Seoul National University Hospital, Seoul, Korea, Republic of",
			want: entities.LocationEntry{Site: "Seoul National University Hospital, Seoul", Country: "Korea, Republic of"},
		},
		{
			name: "korea suffix removed everywhere",
			raw:  "A, Korea, Republic of, B, Korea, Republic of",
			want: entities.LocationEntry{Site: "A, B", Country: "Korea, Republic of"},
		},
		{
			name: "no separator degrades to empty entry",
			raw:  "Hospital",
			want: entities.LocationEntry{},
		},
		{
			name: "empty string",
			raw:  "",
			want: entities.LocationEntry{},
		},
		{
			name: "comma without space is not a separator",
			raw:  "Site,Country",
			want: entities.LocationEntry{},
		},
		{
			name: "leading separator leaves an empty site",
			raw:  ", France",
			want: entities.LocationEntry{Site: "", Country: "France"},
		},
		{
			name: "trailing separator leaves an empty country",
			raw:  "Site B, ",
			want: entities.LocationEntry{Site: "Site B", Country: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLocation(tt.raw)
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLocationNonKoreaSplitsOnLastSeparator(t *testing.T) {
	inputs := []string{
		"a, b",
		"a, b, c",
		"Institut Curie, Paris, France",
		"x, y, z, w, v",
	}

	for _, raw := range inputs {
		got := ParseLocation(raw)
		if got.Site+countrySplit+got.Country != raw {
			t.Errorf("ParseLocation(%q) = %+v does not rebuild the input", raw, got)
		}
		if strings.Contains(got.Country, countrySplit) {
			t.Errorf("ParseLocation(%q) country %q contains the separator", raw, got.Country)
		}
	}
}

func TestParseLocations(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []entities.LocationEntry
	}{
		{
			name: "two entries in order",
			cell: "Site A, USA|Site B, France",
			want: []entities.LocationEntry{
				{Site: "Site A", Country: "USA"},
				{Site: "Site B", Country: "France"},
			},
		},
		{
			name: "empty cell yields one empty entry",
			cell: "",
			want: []entities.LocationEntry{{}},
		},
		{
			name: "malformed entry kept in place",
			cell: "Site A, USA|Unknown|Site C, Korea, Republic of",
			want: []entities.LocationEntry{
				{Site: "Site A", Country: "USA"},
				{},
				{Site: "Site C", Country: "Korea, Republic of"},
			},
		},
		{
			name: "duplicate entries kept",
			cell: "Site A, USA|Site A, USA",
			want: []entities.LocationEntry{
				{Site: "Site A", Country: "USA"},
				{Site: "Site A", Country: "USA"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLocations(tt.cell)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLocations(%q) = %+v, want %+v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestParseLocationsCountMatchesPipes(t *testing.T) {
	for _, cell := range []string{"", "a", "a|b", "|", "a, b|c, d|e, f|"} {
		got := ParseLocations(cell)
		if want := strings.Count(cell, LocationSeparator) + 1; len(got) != want {
			t.Errorf("ParseLocations(%q) returned %d entries, want %d", cell, len(got), want)
		}
	}
}

func TestLocationEntryIsEmpty(t *testing.T) {
	if !(entities.LocationEntry{}).IsEmpty() {
		t.Error("zero entry should be empty")
	}
	if (entities.LocationEntry{Country: "France"}).IsEmpty() {
		t.Error("entry with a country should not be empty")
	}
}
