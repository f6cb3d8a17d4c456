package content

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "", true},
		{"whitespace only", "  \n\t  ", "", true},
		{"plain text", "The mitochondria is the powerhouse of the cell.", "The mitochondria is the powerhouse of the cell.", false},
		{"trims surrounding space", "  chapter one  ", "chapter one", false},
		{"strips code fences", "before ```go\ncode\n``` after", "before go\ncode\n after", false},
		{"only fences", "``````", "", true},
		{"collapses blank lines", "a\n\n\n\n\nb", "a\n\nb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("expected ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeTruncatesLongText(t *testing.T) {
	in := strings.Repeat("ü", maxPromptRunes+500)
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != maxPromptRunes {
		t.Errorf("expected %d runes, got %d", maxPromptRunes, n)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a multi-byte rune")
	}
}
