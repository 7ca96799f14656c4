package trialsparser

import (
	"io"

	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/trialsparser/entities"
)

// Compile-time check to ensure TrialsParser implements Parser interface
var _ interfaces.Parser = (*TrialsParser)(nil)

// TrialsParser implements the Parser interface
type TrialsParser struct{}

// NewTrialsParser creates a new TrialsParser instance
func NewTrialsParser() *TrialsParser {
	return &TrialsParser{}
}

// ReadStudies implements the Parser interface
func (p *TrialsParser) ReadStudies(r io.Reader) ([]entities.StudyRecord, error) {
	return ReadStudies(r)
}

// ReadStudiesFile implements the Parser interface
func (p *TrialsParser) ReadStudiesFile(path string) ([]entities.StudyRecord, error) {
	return ReadStudiesFile(path)
}
