// Package content prepares extracted document text for question synthesis.
package content

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrUnavailable signals that no usable source text exists, so synthesis
// should be skipped entirely in favor of the fallback generator.
var ErrUnavailable = errors.New("source content unavailable")

// maxPromptRunes bounds the payload sent to the model. Extracted text from
// large PDFs can run to hundreds of pages; anything past this adds cost
// without improving the questions.
const maxPromptRunes = 12000

// Normalize turns raw extracted text into a bounded prompt payload.
// Empty or whitespace-only input returns ErrUnavailable rather than an
// empty string so callers cannot accidentally prompt on nothing.
func Normalize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrUnavailable
	}

	// Strip stray code fences so document text cannot terminate the
	// fenced block we ask the model to respond with.
	text = strings.ReplaceAll(text, "```", "")

	// Collapse runs of blank lines left behind by PDF extraction.
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	if utf8.RuneCountInString(text) > maxPromptRunes {
		runes := []rune(text)
		text = string(runes[:maxPromptRunes])
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnavailable
	}
	return text, nil
}
