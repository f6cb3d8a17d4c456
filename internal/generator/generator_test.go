package generator

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gwenythashlie/examgenie/internal/model"
)

func rawEntries(t *testing.T, entries ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, json.RawMessage(e))
	}
	return out
}

// checkWellFormed asserts the invariants every emitted question must hold.
func checkWellFormed(t *testing.T, qs []model.Question, count int) {
	t.Helper()
	if len(qs) != count {
		t.Fatalf("expected exactly %d questions, got %d", count, len(qs))
	}
	for i, q := range qs {
		if q.ID == "" {
			t.Errorf("question %d has empty id", i)
		}
		if q.Text == "" {
			t.Errorf("question %d has empty text", i)
		}
		if q.Type != model.QuestionMultipleChoice {
			t.Errorf("question %d has type %q", i, q.Type)
		}
		if len(q.Options) < 2 || len(q.Options) > 4 {
			t.Errorf("question %d has %d options", i, len(q.Options))
		}
		seen := make(map[string]bool)
		found := false
		for _, o := range q.Options {
			if seen[o] {
				t.Errorf("question %d has duplicate option %q", i, o)
			}
			seen[o] = true
			if o == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			t.Errorf("question %d: correct answer %q not among options %v", i, q.CorrectAnswer, q.Options)
		}
	}
}

func TestNormalizeGoodCandidates(t *testing.T) {
	raw := rawEntries(t,
		`{"question_text":"What is ATP?","options":["Energy","Protein","Lipid"],"correct_answer":"Energy"}`,
		`{"question_text":"What is DNA?","options":["Acid","Base"],"correct_answer":"Acid"}`,
	)
	qs := Normalize(raw, 2)
	checkWellFormed(t, qs, 2)
	if qs[0].Text != "What is ATP?" {
		t.Errorf("expected question text preserved, got %q", qs[0].Text)
	}
	if qs[0].CorrectAnswer != "Energy" {
		t.Errorf("expected correct answer 'Energy', got %q", qs[0].CorrectAnswer)
	}
}

func TestNormalizeSubstitutesMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		check func(t *testing.T, q model.Question)
	}{
		{
			"missing text gets positional placeholder",
			`{"options":["A","B"],"correct_answer":"B"}`,
			func(t *testing.T, q model.Question) {
				if q.Text != "Question 1?" {
					t.Errorf("expected 'Question 1?', got %q", q.Text)
				}
			},
		},
		{
			"alternate question key accepted",
			`{"question":"Alt key?","options":["A","B"],"correct_answer":"A"}`,
			func(t *testing.T, q model.Question) {
				if q.Text != "Alt key?" {
					t.Errorf("expected 'Alt key?', got %q", q.Text)
				}
			},
		},
		{
			"too few options replaced with placeholders",
			`{"question_text":"Q?","options":["only one"],"correct_answer":"only one"}`,
			func(t *testing.T, q model.Question) {
				if len(q.Options) != 4 || q.Options[0] != "Option A" {
					t.Errorf("expected placeholder options, got %v", q.Options)
				}
				if q.CorrectAnswer != "Option A" {
					t.Errorf("expected correct answer reset to first option, got %q", q.CorrectAnswer)
				}
			},
		},
		{
			"excess options truncated to four",
			`{"question_text":"Q?","options":["1","2","3","4","5","6"],"correct_answer":"2"}`,
			func(t *testing.T, q model.Question) {
				if len(q.Options) != 4 {
					t.Errorf("expected 4 options, got %d", len(q.Options))
				}
			},
		},
		{
			"duplicate options collapsed",
			`{"question_text":"Q?","options":["A","A","B","B","C"],"correct_answer":"C"}`,
			func(t *testing.T, q model.Question) {
				if len(q.Options) != 3 {
					t.Errorf("expected 3 distinct options, got %v", q.Options)
				}
			},
		},
		{
			"correct answer outside options defaults to first",
			`{"question_text":"Q?","options":["A","B","C"],"correct_answer":"Z"}`,
			func(t *testing.T, q model.Question) {
				if q.CorrectAnswer != "A" {
					t.Errorf("expected 'A', got %q", q.CorrectAnswer)
				}
			},
		},
		{
			"empty correct answer defaults to first",
			`{"question_text":"Q?","options":["A","B"]}`,
			func(t *testing.T, q model.Question) {
				if q.CorrectAnswer != "A" {
					t.Errorf("expected 'A', got %q", q.CorrectAnswer)
				}
			},
		},
		{
			"options of wrong type replaced with placeholders",
			`{"question_text":"Real question?","options":"A,B,C","correct_answer":"A"}`,
			func(t *testing.T, q model.Question) {
				if q.Text != "Real question?" {
					t.Errorf("expected question text kept, got %q", q.Text)
				}
				if len(q.Options) != 4 || q.Options[0] != "Option A" {
					t.Errorf("expected placeholder options, got %v", q.Options)
				}
			},
		},
		{
			"id of wrong type gets minted id",
			`{"id":7,"question_text":"Q?","options":["A","B"],"correct_answer":"B"}`,
			func(t *testing.T, q model.Question) {
				if q.ID == "" || q.ID == "7" {
					t.Errorf("expected minted id, got %q", q.ID)
				}
				if q.CorrectAnswer != "B" {
					t.Errorf("expected 'B', got %q", q.CorrectAnswer)
				}
			},
		},
		{
			"correct answer of wrong type defaults to first option",
			`{"question_text":"Q?","options":["A","B"],"correct_answer":2}`,
			func(t *testing.T, q model.Question) {
				if q.CorrectAnswer != "A" {
					t.Errorf("expected 'A', got %q", q.CorrectAnswer)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := Normalize(rawEntries(t, tt.entry), 1)
			checkWellFormed(t, qs, 1)
			tt.check(t, qs[0])
		})
	}
}

func TestNormalizeKeepsMisTypedFields(t *testing.T) {
	// A mis-typed field in one entry must not sink an otherwise-good batch:
	// the entry stays record-shaped, so it gets substitutions, not a skip.
	raw := rawEntries(t,
		`{"question_text":"First?","options":["A","B"],"correct_answer":"A"}`,
		`{"question_text":"Second?","options":"A,B,C","correct_answer":"A"}`,
	)
	qs := Normalize(raw, 2)
	checkWellFormed(t, qs, 2)
	if qs[0].Text != "First?" || qs[1].Text != "Second?" {
		t.Errorf("expected real question texts kept, got %q and %q", qs[0].Text, qs[1].Text)
	}
}

func TestNormalizeSkipsNonObjects(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"string", `"not an object"`},
		{"number", `42`},
		{"array", `[1,2,3]`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The lone entry is dropped, so the batch falls short and the
			// fallback fills the count.
			qs := Normalize(rawEntries(t, tt.entry), 1)
			checkWellFormed(t, qs, 1)
			if qs[0].Text != "Sample question 1?" {
				t.Errorf("expected fallback question, got %q", qs[0].Text)
			}
		})
	}
}

func TestNormalizeAllOrNothing(t *testing.T) {
	// Two good entries and one unparseable: with count 3 only two survive,
	// so the whole batch is replaced by fallback questions.
	raw := rawEntries(t,
		`{"question_text":"Q1?","options":["A","B"],"correct_answer":"A"}`,
		`"not an object"`,
		`{"question_text":"Q2?","options":["A","B"],"correct_answer":"B"}`,
	)
	qs := Normalize(raw, 3)
	checkWellFormed(t, qs, 3)
	for i, q := range qs {
		want := fmt.Sprintf("Sample question %d?", i+1)
		if q.Text != want {
			t.Errorf("expected fallback question %q, got %q", want, q.Text)
		}
	}
}

func TestNormalizeTruncatesExcess(t *testing.T) {
	var entries []string
	for i := 0; i < 8; i++ {
		entries = append(entries, fmt.Sprintf(`{"question_text":"Q%d?","options":["A","B"],"correct_answer":"A"}`, i))
	}
	qs := Normalize(rawEntries(t, entries...), 5)
	checkWellFormed(t, qs, 5)
	if qs[0].Text != "Q0?" || qs[4].Text != "Q4?" {
		t.Errorf("expected first five candidates in order, got %q..%q", qs[0].Text, qs[4].Text)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	qs := Normalize(nil, 5)
	checkWellFormed(t, qs, 5)

	if got := Normalize(nil, 0); got != nil {
		t.Errorf("expected nil for count 0, got %v", got)
	}
}

func TestFallback(t *testing.T) {
	qs := Fallback(5)
	checkWellFormed(t, qs, 5)
	for i, q := range qs {
		want := fmt.Sprintf("Sample question %d?", i+1)
		if q.Text != want {
			t.Errorf("expected %q, got %q", want, q.Text)
		}
		if q.CorrectAnswer != "Option A" {
			t.Errorf("expected correct answer 'Option A', got %q", q.CorrectAnswer)
		}
	}

	// IDs must be unique across the set.
	ids := make(map[string]bool)
	for _, q := range qs {
		if ids[q.ID] {
			t.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
	}

	if got := Fallback(0); got != nil {
		t.Errorf("expected nil for count 0, got %v", got)
	}
}
