// Package extract pulls plain text out of uploaded reviewer files.
package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Extractor turns a stored file into plain text for question synthesis.
type Extractor interface {
	Extract(path string) (string, error)
}

// FileExtractor handles PDFs via the pdftotext command and reads
// plain-text formats directly. Unknown formats yield empty text.
type FileExtractor struct{}

func New() *FileExtractor {
	return &FileExtractor{}
}

// Extract returns the text content of the file at path. Failures are
// returned to the caller, which treats extraction as best-effort: a
// reviewer with no extracted text still gets an exam, just a synthetic one.
func (e *FileExtractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	default:
		return "", nil
	}
}

func extractPDF(path string) (string, error) {
	cmd := exec.Command("pdftotext", path, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(output), nil
}
