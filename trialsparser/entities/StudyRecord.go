package entities

// StudyRecord is one data line of the registry export
type StudyRecord struct {
	StudyID   string          `json:"studyId"`
	Locations []LocationEntry `json:"locations"`
}
