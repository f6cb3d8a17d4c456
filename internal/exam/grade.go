package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/gwenythashlie/examgenie/internal/model"
)

// placeholderExplanation is attached to every graded answer. Per-question
// rationale is a future extension of the synthesis call.
const placeholderExplanation = "Generated placeholder explanation."

// Grade scores a submitted answer map against an exam's answer key.
// Comparison is exact string equality, case-sensitive, no trimming.
// Every question gets exactly one answer record; questions the learner
// skipped grade as incorrect with a nil user answer. Malformed or missing
// answers never produce an error, only lost points.
func Grade(e model.Exam, submitted map[string]string, timeTakenSeconds int) model.Attempt {
	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}

	answers := make(map[string]model.AnswerRecord, len(e.Questions))
	correct := 0
	for _, q := range e.Questions {
		value, ok := submitted[q.ID]
		isCorrect := ok && value == q.CorrectAnswer
		if isCorrect {
			correct++
		}

		var userAnswer *string
		if ok && value != "" {
			v := value
			userAnswer = &v
		}
		answers[q.ID] = model.AnswerRecord{
			UserAnswer:    userAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   placeholderExplanation,
		}
	}

	score := 0.0
	if len(e.Questions) > 0 {
		score = float64(correct) / float64(len(e.Questions)) * 100
	}

	return model.Attempt{
		ID:               uuid.NewString(),
		ExamID:           e.ID,
		Score:            score,
		TimeTakenSeconds: timeTakenSeconds,
		Answers:          answers,
		CreatedAt:        time.Now().UTC(),
	}
}
