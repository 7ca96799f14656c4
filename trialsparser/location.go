package trialsparser

import (
	"strings"

	"github.com/giygas/trialsites/trialsparser/entities"
)

const (
	// LocationSeparator separates the entries of a Locations cell
	LocationSeparator = "|"

	koreaSuffix  = ", Korea, Republic of"
	koreaCountry = "Korea, Republic of"
	countrySplit = ", "
)

// ParseLocations splits a Locations cell on "|" and parses every entry in order.
// Empty segments produce an empty LocationEntry.
func ParseLocations(cell string) []entities.LocationEntry {
	parts := strings.Split(cell, LocationSeparator)
	locations := make([]entities.LocationEntry, 0, len(parts))
	for _, part := range parts {
		locations = append(locations, ParseLocation(part))
	}
	return locations
}

// ParseLocation turns "Site, City, State, Country" into a site/country pair.
// The country is whatever follows the last ", ", except for Korea whose
// registry name contains a comma itself. Strings without ", " yield an empty
// entry rather than an error.
func ParseLocation(raw string) entities.LocationEntry {
	if strings.Contains(raw, koreaSuffix) {
		return entities.LocationEntry{
			Site:    strings.ReplaceAll(raw, koreaSuffix, ""),
			Country: koreaCountry,
		}
	}

	idx := strings.LastIndex(raw, countrySplit)
	if idx == -1 {
		return entities.LocationEntry{}
	}

	return entities.LocationEntry{
		Site:    raw[:idx],
		Country: raw[idx+len(countrySplit):],
	}
}
