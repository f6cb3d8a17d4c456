// Package generator turns raw model output into a valid, fixed-size
// question set, falling back to synthetic questions when it cannot.
package generator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gwenythashlie/examgenie/internal/model"
)

// placeholderOptions is the fixed option set used whenever a candidate
// arrives without a usable options list, and for all fallback questions.
var placeholderOptions = []string{"Option A", "Option B", "Option C", "Option D"}

// candidate mirrors the shape we ask the model for. QuestionAlt catches the
// "question" key some models emit instead of "question_text".
type candidate struct {
	ID            string
	QuestionText  string
	QuestionAlt   string
	Options       []string
	CorrectAnswer string
}

// parseCandidate decodes one raw entry field by field. Only non-objects are
// rejected; a field of the wrong JSON type is treated as absent so the entry
// still gets the per-field substitutions instead of sinking the whole batch.
func parseCandidate(entry json.RawMessage) (candidate, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
		return candidate{}, false
	}
	var c candidate
	decodeString(fields["id"], &c.ID)
	decodeString(fields["question_text"], &c.QuestionText)
	decodeString(fields["question"], &c.QuestionAlt)
	decodeString(fields["correct_answer"], &c.CorrectAnswer)
	if raw, ok := fields["options"]; ok {
		_ = json.Unmarshal(raw, &c.Options)
	}
	return c, true
}

// decodeString fills dst only when raw holds a JSON string.
func decodeString(raw json.RawMessage, dst *string) {
	if raw == nil {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// Normalize converts raw candidate entries into exactly count well-formed
// multiple-choice questions. Entries that are not JSON objects are skipped;
// missing or mis-typed fields are substituted per entry. If fewer than count candidates
// survive, the whole batch is discarded and Fallback supplies the full set:
// exams never mix generated and synthetic questions, so difficulty and
// provenance stay uniform.
func Normalize(raw []json.RawMessage, count int) []model.Question {
	if count < 1 {
		return nil
	}

	questions := make([]model.Question, 0, len(raw))
	for i, entry := range raw {
		c, ok := parseCandidate(entry)
		if !ok {
			continue
		}
		questions = append(questions, normalizeCandidate(c, i+1))
	}

	if len(questions) < count {
		return Fallback(count)
	}
	return questions[:count]
}

func normalizeCandidate(c candidate, n int) model.Question {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	opts := distinctOptions(c.Options)
	if len(opts) < 2 {
		opts = append([]string(nil), placeholderOptions...)
	} else if len(opts) > 4 {
		opts = opts[:4]
	}

	text := c.QuestionText
	if text == "" {
		text = c.QuestionAlt
	}
	if text == "" {
		text = fmt.Sprintf("Question %d?", n)
	}

	correct := c.CorrectAnswer
	if !contains(opts, correct) {
		correct = opts[0]
	}

	return model.Question{
		ID:            id,
		Text:          text,
		Type:          model.QuestionMultipleChoice,
		Options:       opts,
		CorrectAnswer: correct,
	}
}

// Fallback deterministically produces count valid multiple-choice questions.
// It never fails and is the terminal stage of the generation pipeline.
func Fallback(count int) []model.Question {
	if count < 1 {
		return nil
	}
	questions := make([]model.Question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, model.Question{
			ID:            uuid.NewString(),
			Text:          fmt.Sprintf("Sample question %d?", i+1),
			Type:          model.QuestionMultipleChoice,
			Options:       append([]string(nil), placeholderOptions...),
			CorrectAnswer: placeholderOptions[0],
		})
	}
	return questions
}

// distinctOptions keeps the first occurrence of each non-empty option,
// preserving order.
func distinctOptions(opts []string) []string {
	seen := make(map[string]bool, len(opts))
	var out []string
	for _, o := range opts {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}
