// Package exam assembles exams from uploaded source material and grades
// submitted attempts.
package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gwenythashlie/examgenie/internal/content"
	"github.com/gwenythashlie/examgenie/internal/generator"
	"github.com/gwenythashlie/examgenie/internal/model"
	"github.com/gwenythashlie/examgenie/internal/store"
)

// Synthesizer produces raw question candidates from source content.
// Implementations return nil instead of an error on any failure.
type Synthesizer interface {
	Synthesize(ctx context.Context, content string, difficulty model.Difficulty, count int) []json.RawMessage
}

// Service orchestrates exam assembly and attempt grading.
type Service struct {
	store *store.Store
	synth Synthesizer
}

// NewService creates a new exam service. synth may be nil, in which case
// every exam is built from fallback questions.
func NewService(s *store.Store, synth Synthesizer) *Service {
	return &Service{store: s, synth: synth}
}

// CreateExamRequest holds the parameters for exam assembly.
type CreateExamRequest struct {
	ReviewerID       string
	Title            string
	Difficulty       model.Difficulty
	TotalQuestions   int
	TimeLimitMinutes int
}

// CreateExam builds and persists an exam from the referenced reviewer.
// It fails on bad input, a missing reviewer, or a storage failure — never
// on generation problems: an unusable synthesis result silently degrades
// to deterministic fallback questions.
func (s *Service) CreateExam(ctx context.Context, ownerID int64, req CreateExamRequest) (*model.Exam, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.TotalQuestions < 1 {
		return nil, &ValidationError{Field: "total_questions", Reason: "must be at least 1"}
	}
	if req.TimeLimitMinutes < 1 {
		return nil, &ValidationError{Field: "time_limit", Reason: "must be at least 1 minute"}
	}
	if !model.ValidDifficulty(req.Difficulty) {
		return nil, &ValidationError{Field: "difficulty", Reason: "must be easy, medium, or hard"}
	}

	reviewer, err := s.store.GetReviewer(ownerID, req.ReviewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, fmt.Errorf("reviewer %s: %w", req.ReviewerID, ErrNotFound)
	}

	questions := s.generateQuestions(ctx, reviewer, req.Difficulty, req.TotalQuestions)

	exam := model.Exam{
		ID:               uuid.NewString(),
		ReviewerID:       reviewer.ID,
		OwnerID:          ownerID,
		Title:            strings.TrimSpace(req.Title),
		Difficulty:       req.Difficulty,
		TotalQuestions:   req.TotalQuestions,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        questions,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.InsertExam(exam); err != nil {
		return nil, fmt.Errorf("insert exam: %w", err)
	}

	slog.Info("created exam",
		"exam_id", exam.ID,
		"reviewer_id", reviewer.ID,
		"questions", len(exam.Questions),
		"difficulty", exam.Difficulty,
	)
	return &exam, nil
}

// generateQuestions runs the normalize → synthesize → validate pipeline and
// always returns exactly count questions.
func (s *Service) generateQuestions(ctx context.Context, reviewer *model.Reviewer, difficulty model.Difficulty, count int) []model.Question {
	payload, err := content.Normalize(reviewer.ExtractedText)
	if err != nil {
		if errors.Is(err, content.ErrUnavailable) {
			slog.Info("no source text for reviewer, using fallback questions", "reviewer_id", reviewer.ID)
		}
		return generator.Fallback(count)
	}

	var raw []json.RawMessage
	if s.synth != nil {
		raw = s.synth.Synthesize(ctx, payload, difficulty, count)
	}
	return generator.Normalize(raw, count)
}

// GetExam returns an owner's exam by id.
func (s *Service) GetExam(ownerID int64, examID string) (*model.Exam, error) {
	exam, err := s.store.GetExam(ownerID, examID)
	if err != nil {
		return nil, fmt.Errorf("fetch exam: %w", err)
	}
	if exam == nil {
		return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}
	return exam, nil
}

// ListExams returns all of an owner's exams, newest first.
func (s *Service) ListExams(ownerID int64) ([]model.Exam, error) {
	return s.store.ListExams(ownerID)
}

// SubmitExam grades a submitted answer map and persists the attempt.
// Missing or malformed answers grade as incorrect; submission only fails
// when the exam itself is gone or storage fails. Each call creates a new
// independent attempt — retakes are first-class.
func (s *Service) SubmitExam(ownerID int64, examID string, answers map[string]string, timeTakenSeconds int) (*model.Attempt, error) {
	exam, err := s.GetExam(ownerID, examID)
	if err != nil {
		return nil, err
	}

	attempt := Grade(*exam, answers, timeTakenSeconds)
	if err := s.store.InsertAttempt(ownerID, attempt); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	slog.Info("graded attempt",
		"attempt_id", attempt.ID,
		"exam_id", exam.ID,
		"score", attempt.Score,
		"time_taken", attempt.TimeTakenSeconds,
	)
	return &attempt, nil
}

// ListAttempts returns all attempts for an owner's exam, newest first.
func (s *Service) ListAttempts(ownerID int64, examID string) ([]model.Attempt, error) {
	exam, err := s.store.GetExam(ownerID, examID)
	if err != nil {
		return nil, fmt.Errorf("fetch exam: %w", err)
	}
	if exam == nil {
		return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}
	return s.store.ListAttempts(ownerID, examID)
}

// GetAttempt returns one of the owner's attempts by id.
func (s *Service) GetAttempt(ownerID int64, attemptID string) (*model.Attempt, error) {
	attempt, err := s.store.GetAttempt(ownerID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("fetch attempt: %w", err)
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	return attempt, nil
}
