package store

import (
	"fmt"

	"github.com/gwenythashlie/examgenie/internal/model"
)

// ExportExamResults builds an export-ready view of every attempt against
// one exam, with per-question outcomes in the exam's stored order.
func (s *Store) ExportExamResults(ownerID int64, examID string) (*model.ExamResultsExport, error) {
	exam, err := s.GetExam(ownerID, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, fmt.Errorf("exam %s not found", examID)
	}

	attempts, err := s.ListAttempts(ownerID, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	export := &model.ExamResultsExport{
		ExamID:         exam.ID,
		Title:          exam.Title,
		Difficulty:     exam.Difficulty,
		TotalQuestions: exam.TotalQuestions,
	}

	// ListAttempts returns newest first; number attempts oldest first so
	// attempt_number reflects the order they were taken.
	for i := len(attempts) - 1; i >= 0; i-- {
		a := attempts[i]
		result := model.AttemptResult{
			AttemptID:        a.ID,
			AttemptNumber:    len(attempts) - i,
			Score:            a.Score,
			TimeTakenSeconds: a.TimeTakenSeconds,
			CreatedAt:        a.CreatedAt,
		}
		for _, q := range exam.Questions {
			rec, ok := a.Answers[q.ID]
			if !ok {
				rec = model.AnswerRecord{CorrectAnswer: q.CorrectAnswer}
			}
			result.Questions = append(result.Questions, model.QuestionResult{
				QuestionText:  q.Text,
				UserAnswer:    rec.UserAnswer,
				CorrectAnswer: rec.CorrectAnswer,
				IsCorrect:     rec.IsCorrect,
				Explanation:   rec.Explanation,
			})
		}
		export.Attempts = append(export.Attempts, result)
	}

	return export, nil
}
