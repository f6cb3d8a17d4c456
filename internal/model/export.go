package model

import "time"

// ExamResultsExport is the top-level JSON structure for exam results export.
type ExamResultsExport struct {
	ExamID         string          `json:"exam_id"`
	Title          string          `json:"title"`
	Difficulty     Difficulty      `json:"difficulty"`
	TotalQuestions int             `json:"total_questions"`
	Attempts       []AttemptResult `json:"attempts"`
}

// AttemptResult holds one attempt's data for export.
type AttemptResult struct {
	AttemptID        string           `json:"attempt_id"`
	AttemptNumber    int              `json:"attempt_number"`
	Score            float64          `json:"score"`
	TimeTakenSeconds int              `json:"time_taken"`
	CreatedAt        time.Time        `json:"created_at"`
	Questions        []QuestionResult `json:"questions"`
}

// QuestionResult holds per-question data for export.
type QuestionResult struct {
	QuestionText  string  `json:"question_text"`
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
	Explanation   string  `json:"explanation"`
}
