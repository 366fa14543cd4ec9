// Package textextractor holds helpers shared by the document extractors.
package textextractor

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// Detector sniffs resume formats from their leading bytes rather than
// trusting the client's file name or Content-Type.
type Detector struct{}

// Detect returns the resume format of data or ErrUnsupportedFileType.
func (Detector) Detect(data []byte) (domain.FileType, error) {
	m := mimetype.Detect(data)
	switch {
	case m.Is("application/pdf"):
		return domain.FilePDF, nil
	case m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return domain.FileDOCX, nil
	}
	return "", fmt.Errorf("op=detect: %w: %s", domain.ErrUnsupportedFileType, m.String())
}
