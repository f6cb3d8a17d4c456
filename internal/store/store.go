package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gwenythashlie/examgenie/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'learner',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS reviewers (
		id TEXT PRIMARY KEY,
		owner_id INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		extracted_text TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		reviewer_id TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		time_limit INTEGER NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (reviewer_id) REFERENCES reviewers(id),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		time_taken INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertReviewer stores an uploaded reviewer record.
func (s *Store) InsertReviewer(r model.Reviewer) error {
	_, err := s.db.Exec(
		`INSERT INTO reviewers (id, owner_id, file_name, file_path, content_hash, extracted_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.FileName, r.FilePath, r.ContentHash, r.ExtractedText, r.CreatedAt,
	)
	return err
}

// GetReviewer returns an owner's reviewer by id, or nil if not found.
func (s *Store) GetReviewer(ownerID int64, id string) (*model.Reviewer, error) {
	var r model.Reviewer
	err := s.db.QueryRow(
		`SELECT id, owner_id, file_name, file_path, content_hash, extracted_text, created_at
		 FROM reviewers WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&r.ID, &r.OwnerID, &r.FileName, &r.FilePath, &r.ContentHash, &r.ExtractedText, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindReviewerByHash returns an owner's reviewer with the given content
// hash, or nil. Used to skip duplicate uploads.
func (s *Store) FindReviewerByHash(ownerID int64, hash string) (*model.Reviewer, error) {
	var r model.Reviewer
	err := s.db.QueryRow(
		`SELECT id, owner_id, file_name, file_path, content_hash, extracted_text, created_at
		 FROM reviewers WHERE owner_id = ? AND content_hash = ?`, ownerID, hash,
	).Scan(&r.ID, &r.OwnerID, &r.FileName, &r.FilePath, &r.ContentHash, &r.ExtractedText, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReviewers returns all of an owner's reviewers, newest first. The
// extracted text is omitted to keep listings small.
func (s *Store) ListReviewers(ownerID int64) ([]model.Reviewer, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, file_name, file_path, content_hash, created_at
		 FROM reviewers WHERE owner_id = ? ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reviewers []model.Reviewer
	for rows.Next() {
		var r model.Reviewer
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.FileName, &r.FilePath, &r.ContentHash, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviewers = append(reviewers, r)
	}
	return reviewers, rows.Err()
}

// DeleteReviewer removes an owner's reviewer. It reports whether a row was
// actually deleted.
func (s *Store) DeleteReviewer(ownerID int64, id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM reviewers WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InsertExam stores an exam with its question set serialized as JSON.
func (s *Store) InsertExam(e model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO exams (id, reviewer_id, owner_id, title, difficulty, total_questions, time_limit, questions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ReviewerID, e.OwnerID, e.Title, e.Difficulty, e.TotalQuestions, e.TimeLimitMinutes, string(questions), e.CreatedAt,
	)
	return err
}

// GetExam returns an owner's exam by id with its full question set, or nil
// if not found.
func (s *Store) GetExam(ownerID int64, id string) (*model.Exam, error) {
	var e model.Exam
	var questions string
	err := s.db.QueryRow(
		`SELECT id, reviewer_id, owner_id, title, difficulty, total_questions, time_limit, questions, created_at
		 FROM exams WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&e.ID, &e.ReviewerID, &e.OwnerID, &e.Title, &e.Difficulty, &e.TotalQuestions, &e.TimeLimitMinutes, &questions, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions for exam %s: %w", e.ID, err)
	}
	return &e, nil
}

// ListExams returns an owner's exams, newest first. Question sets are
// omitted; fetch a single exam to get them.
func (s *Store) ListExams(ownerID int64) ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, reviewer_id, owner_id, title, difficulty, total_questions, time_limit, created_at
		 FROM exams WHERE owner_id = ? ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.ReviewerID, &e.OwnerID, &e.Title, &e.Difficulty, &e.TotalQuestions, &e.TimeLimitMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// InsertAttempt stores a graded attempt with its answer map serialized as
// JSON. Attempts are immutable: there is no update path.
func (s *Store) InsertAttempt(ownerID int64, a model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO attempts (id, exam_id, owner_id, score, time_taken, answers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ExamID, ownerID, a.Score, a.TimeTakenSeconds, string(answers), a.CreatedAt,
	)
	return err
}

// GetAttempt returns an owner's attempt by id, or nil if not found.
func (s *Store) GetAttempt(ownerID int64, id string) (*model.Attempt, error) {
	var a model.Attempt
	var answers string
	err := s.db.QueryRow(
		`SELECT id, exam_id, score, time_taken, answers, created_at
		 FROM attempts WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&a.ID, &a.ExamID, &a.Score, &a.TimeTakenSeconds, &answers, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers for attempt %s: %w", a.ID, err)
	}
	return &a, nil
}

// ListAttempts returns all attempts for an owner's exam, newest first.
func (s *Store) ListAttempts(ownerID int64, examID string) ([]model.Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, score, time_taken, answers, created_at
		 FROM attempts WHERE exam_id = ? AND owner_id = ? ORDER BY created_at DESC`, examID, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var answers string
		if err := rows.Scan(&a.ID, &a.ExamID, &a.Score, &a.TimeTakenSeconds, &answers, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers for attempt %s: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ExamCount returns the number of exams an owner has.
func (s *Store) ExamCount(ownerID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams WHERE owner_id = ?`, ownerID).Scan(&count)
	return count, err
}
