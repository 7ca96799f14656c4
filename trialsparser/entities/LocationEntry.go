package entities

type LocationEntry struct {
	Site    string `json:"site"`
	Country string `json:"country"`
}

// IsEmpty reports whether the entry came from a location string that could not be split
func (l LocationEntry) IsEmpty() bool {
	return l.Site == "" && l.Country == ""
}
