// Package prompts builds question-generation prompts from embedded
// templates, one variant per exam difficulty.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sync"
	"text/template"

	"github.com/gwenythashlie/examgenie/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[model.Difficulty]*template.Template
)

// GenerateData holds template data for generation prompts.
type GenerateData struct {
	Count   int
	Content string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[model.Difficulty]*template.Template)
		for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
			name := "templates/generate_" + string(d) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New("generate").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[d] = tmpl
		}
	})
	return loadErr
}

// BuildGeneratePrompt builds a question-generation prompt for the given
// difficulty. Unknown difficulties fall back to medium.
func BuildGeneratePrompt(difficulty model.Difficulty, count int, content string) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[difficulty]
	if !ok {
		tmpl = templates[model.DifficultyMedium]
	}
	if tmpl == nil {
		return "", errors.New("no prompt template available")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, GenerateData{Count: count, Content: content}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
