package prompts

import (
	"strings"
	"testing"

	"github.com/gwenythashlie/examgenie/internal/model"
)

func TestBuildGeneratePrompt(t *testing.T) {
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		t.Run(string(d), func(t *testing.T) {
			prompt, err := BuildGeneratePrompt(d, 7, "photosynthesis converts light into energy")
			if err != nil {
				t.Fatalf("BuildGeneratePrompt: %v", err)
			}
			if !strings.Contains(prompt, "7") {
				t.Error("prompt should contain the question count")
			}
			if !strings.Contains(prompt, "photosynthesis converts light into energy") {
				t.Error("prompt should contain the source content")
			}
			if !strings.Contains(prompt, "JSON") {
				t.Error("prompt should demand JSON output")
			}
			if !strings.Contains(prompt, "correct_answer") {
				t.Error("prompt should name the expected answer field")
			}
		})
	}
}

func TestBuildGeneratePromptUnknownDifficulty(t *testing.T) {
	known, err := BuildGeneratePrompt(model.DifficultyMedium, 3, "content")
	if err != nil {
		t.Fatalf("BuildGeneratePrompt: %v", err)
	}
	unknown, err := BuildGeneratePrompt("extreme", 3, "content")
	if err != nil {
		t.Fatalf("BuildGeneratePrompt unknown: %v", err)
	}
	if unknown != known {
		t.Error("unknown difficulty should fall back to the medium template")
	}
}
