package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleLearner is a regular learner account.
	UserRoleLearner UserRole = "learner"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user. The user id is the opaque owner key
// every reviewer, exam, and attempt is scoped by.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents exam difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ValidDifficulty reports whether d is one of the known difficulty levels.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuestionType represents the kind of question. Only multiple_choice and
// true_false are graded automatically.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// Question is a single scoreable question inside an exam. Questions are
// owned by their exam and immutable once the exam is created.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// Reviewer is an uploaded source document an exam is generated from.
type Reviewer struct {
	ID            string    `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	FileName      string    `json:"file_name"`
	FilePath      string    `json:"file_path"`
	ContentHash   string    `json:"content_hash"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Exam is an immutable set of questions plus metadata. The question slice
// always has exactly TotalQuestions entries.
type Exam struct {
	ID               string     `json:"id"`
	ReviewerID       string     `json:"reviewer_id"`
	OwnerID          int64      `json:"owner_id"`
	Title            string     `json:"title"`
	Difficulty       Difficulty `json:"difficulty"`
	TotalQuestions   int        `json:"total_questions"`
	TimeLimitMinutes int        `json:"time_limit"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AnswerRecord is the graded outcome for one question in an attempt.
// UserAnswer is nil when the learner left the question unanswered.
type AnswerRecord struct {
	UserAnswer    *string `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
	Explanation   string  `json:"explanation"`
}

// Attempt is one graded submission against an exam. An exam may have many
// attempts; each is created once and never modified.
type Attempt struct {
	ID               string                  `json:"id"`
	ExamID           string                  `json:"exam_id"`
	Score            float64                 `json:"score"`
	TimeTakenSeconds int                     `json:"time_taken"`
	Answers          map[string]AnswerRecord `json:"answers"`
	CreatedAt        time.Time               `json:"created_at"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	DataDir       string // base directory for uploaded reviewer files
	Lang          string // language for API messages
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	MaxUploadMB   int64  // multipart upload cap in MiB
}
