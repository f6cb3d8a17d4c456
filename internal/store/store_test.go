package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gwenythashlie/examgenie/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Role:         model.UserRoleLearner,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

func insertTestReviewer(t *testing.T, s *Store, ownerID int64, name, hash string) model.Reviewer {
	t.Helper()
	r := model.Reviewer{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		FileName:      name,
		FilePath:      "files/" + name,
		ContentHash:   hash,
		ExtractedText: "text of " + name,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.InsertReviewer(r); err != nil {
		t.Fatalf("insertTestReviewer: %v", err)
	}
	return r
}

func insertTestExam(t *testing.T, s *Store, ownerID int64, reviewerID string) model.Exam {
	t.Helper()
	e := model.Exam{
		ID:               uuid.NewString(),
		ReviewerID:       reviewerID,
		OwnerID:          ownerID,
		Title:            "Midterm",
		Difficulty:       model.DifficultyMedium,
		TotalQuestions:   2,
		TimeLimitMinutes: 30,
		Questions: []model.Question{
			{ID: "q1", Text: "Q1?", Type: model.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "A"},
			{ID: "q2", Text: "Q2?", Type: model.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "B"},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.InsertExam(e); err != nil {
		t.Fatalf("insertTestExam: %v", err)
	}
	return e
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := insertTestUser(t, s, "alice")
	u, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user with id %d, got %+v", id, u)
	}
	if u.Role != model.UserRoleLearner {
		t.Errorf("expected learner role, got %q", u.Role)
	}

	byID, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Fatalf("expected alice, got %+v", byID)
	}

	// Not found returns nil, nil.
	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}

	// Usernames are unique.
	if _, err := s.CreateUser(model.User{Username: "alice", PasswordHash: "x", Role: model.UserRoleLearner}); err == nil {
		t.Error("expected error inserting duplicate username")
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice")

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("expected session for user %d, got %+v", userID, sess)
	}

	// Unknown tokens return nil, nil.
	missing, err := s.GetAuthSession("bogus")
	if err != nil {
		t.Fatalf("GetAuthSession bogus: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown token, got %+v", missing)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, _ = s.GetAuthSession(token)
	if sess != nil {
		t.Error("expected session gone after delete")
	}

	if err := s.CleanupExpiredSessions(); err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
}

func TestReviewerCRUD(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "alice")

	r := insertTestReviewer(t, s, owner, "bio.pdf", "hash-1")

	got, err := s.GetReviewer(owner, r.ID)
	if err != nil {
		t.Fatalf("GetReviewer: %v", err)
	}
	if got == nil || got.FileName != "bio.pdf" {
		t.Fatalf("expected bio.pdf, got %+v", got)
	}
	if got.ExtractedText != "text of bio.pdf" {
		t.Errorf("expected extracted text preserved, got %q", got.ExtractedText)
	}

	// Scoped by owner.
	foreign, err := s.GetReviewer(owner+1, r.ID)
	if err != nil {
		t.Fatalf("GetReviewer foreign: %v", err)
	}
	if foreign != nil {
		t.Error("expected nil for foreign owner")
	}

	// Hash lookup finds the duplicate, also owner-scoped.
	dup, err := s.FindReviewerByHash(owner, "hash-1")
	if err != nil {
		t.Fatalf("FindReviewerByHash: %v", err)
	}
	if dup == nil || dup.ID != r.ID {
		t.Fatalf("expected duplicate match, got %+v", dup)
	}
	noDup, _ := s.FindReviewerByHash(owner+1, "hash-1")
	if noDup != nil {
		t.Error("expected no duplicate for other owner")
	}

	// Listing omits the extracted text.
	insertTestReviewer(t, s, owner, "chem.txt", "hash-2")
	list, err := s.ListReviewers(owner)
	if err != nil {
		t.Fatalf("ListReviewers: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reviewers, got %d", len(list))
	}
	for _, item := range list {
		if item.ExtractedText != "" {
			t.Errorf("expected extracted text omitted from listing, got %q", item.ExtractedText)
		}
	}

	deleted, err := s.DeleteReviewer(owner, r.ID)
	if err != nil {
		t.Fatalf("DeleteReviewer: %v", err)
	}
	if !deleted {
		t.Error("expected deletion to report true")
	}
	deleted, _ = s.DeleteReviewer(owner, r.ID)
	if deleted {
		t.Error("expected second deletion to report false")
	}
}

func TestExamRoundTrip(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "alice")
	rev := insertTestReviewer(t, s, owner, "bio.pdf", "h1")
	e := insertTestExam(t, s, owner, rev.ID)

	got, err := s.GetExam(owner, e.ID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if got == nil {
		t.Fatal("expected exam")
	}
	if got.Title != "Midterm" || got.Difficulty != model.DifficultyMedium {
		t.Errorf("unexpected exam metadata: %+v", got)
	}
	if len(got.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got.Questions))
	}
	if got.Questions[1].CorrectAnswer != "B" {
		t.Errorf("expected question round-tripped, got %+v", got.Questions[1])
	}

	// Owner scoping.
	foreign, err := s.GetExam(owner+1, e.ID)
	if err != nil {
		t.Fatalf("GetExam foreign: %v", err)
	}
	if foreign != nil {
		t.Error("expected nil for foreign owner")
	}

	// Listing omits question sets.
	list, err := s.ListExams(owner)
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 exam, got %d", len(list))
	}
	if list[0].Questions != nil {
		t.Error("expected questions omitted from listing")
	}

	count, err := s.ExamCount(owner)
	if err != nil {
		t.Fatalf("ExamCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestAttemptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "alice")
	rev := insertTestReviewer(t, s, owner, "bio.pdf", "h1")
	e := insertTestExam(t, s, owner, rev.ID)

	answer := "A"
	a := model.Attempt{
		ID:               uuid.NewString(),
		ExamID:           e.ID,
		Score:            50,
		TimeTakenSeconds: 90,
		Answers: map[string]model.AnswerRecord{
			"q1": {UserAnswer: &answer, CorrectAnswer: "A", IsCorrect: true, Explanation: "ok"},
			"q2": {UserAnswer: nil, CorrectAnswer: "B", IsCorrect: false, Explanation: "ok"},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.InsertAttempt(owner, a); err != nil {
		t.Fatalf("InsertAttempt: %v", err)
	}

	got, err := s.GetAttempt(owner, a.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if got == nil {
		t.Fatal("expected attempt")
	}
	if got.Score != 50 || got.TimeTakenSeconds != 90 {
		t.Errorf("unexpected attempt metadata: %+v", got)
	}
	r1 := got.Answers["q1"]
	if r1.UserAnswer == nil || *r1.UserAnswer != "A" || !r1.IsCorrect {
		t.Errorf("unexpected q1 record: %+v", r1)
	}
	// A nil user answer survives the JSON round trip as nil.
	r2 := got.Answers["q2"]
	if r2.UserAnswer != nil {
		t.Errorf("expected nil user answer for q2, got %q", *r2.UserAnswer)
	}

	// Owner scoping.
	foreign, err := s.GetAttempt(owner+1, a.ID)
	if err != nil {
		t.Fatalf("GetAttempt foreign: %v", err)
	}
	if foreign != nil {
		t.Error("expected nil for foreign owner")
	}

	attempts, err := s.ListAttempts(owner, e.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
}

func TestExportExamResults(t *testing.T) {
	s := newTestStore(t)
	owner := insertTestUser(t, s, "alice")
	rev := insertTestReviewer(t, s, owner, "bio.pdf", "h1")
	e := insertTestExam(t, s, owner, rev.ID)

	answer := "A"
	first := model.Attempt{
		ID: uuid.NewString(), ExamID: e.ID, Score: 50, TimeTakenSeconds: 60,
		Answers: map[string]model.AnswerRecord{
			"q1": {UserAnswer: &answer, CorrectAnswer: "A", IsCorrect: true, Explanation: "ok"},
		},
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	second := model.Attempt{
		ID: uuid.NewString(), ExamID: e.ID, Score: 100, TimeTakenSeconds: 30,
		Answers:   map[string]model.AnswerRecord{},
		CreatedAt: time.Now().UTC(),
	}
	for _, a := range []model.Attempt{first, second} {
		if err := s.InsertAttempt(owner, a); err != nil {
			t.Fatalf("InsertAttempt: %v", err)
		}
	}

	export, err := s.ExportExamResults(owner, e.ID)
	if err != nil {
		t.Fatalf("ExportExamResults: %v", err)
	}
	if export.ExamID != e.ID || export.Title != "Midterm" {
		t.Errorf("unexpected export header: %+v", export)
	}
	if len(export.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(export.Attempts))
	}

	// Attempts are numbered oldest first.
	if export.Attempts[0].AttemptID != first.ID || export.Attempts[0].AttemptNumber != 1 {
		t.Errorf("expected first attempt numbered 1, got %+v", export.Attempts[0])
	}
	if export.Attempts[1].AttemptNumber != 2 {
		t.Errorf("expected second attempt numbered 2, got %+v", export.Attempts[1])
	}

	// Per-question rows follow the exam's stored question order, with
	// untouched questions padded from the answer key.
	q := export.Attempts[0].Questions
	if len(q) != 2 {
		t.Fatalf("expected 2 question rows, got %d", len(q))
	}
	if q[0].QuestionText != "Q1?" || !q[0].IsCorrect {
		t.Errorf("unexpected first question row: %+v", q[0])
	}
	if q[1].CorrectAnswer != "B" || q[1].UserAnswer != nil || q[1].IsCorrect {
		t.Errorf("unexpected padded question row: %+v", q[1])
	}

	if _, err := s.ExportExamResults(owner, "no-such-exam"); err == nil {
		t.Error("expected error for missing exam")
	}
}
