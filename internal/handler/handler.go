// Package handler exposes the JSON API consumed by presentation layers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gwenythashlie/examgenie/internal/exam"
	"github.com/gwenythashlie/examgenie/internal/extract"
	appI18n "github.com/gwenythashlie/examgenie/internal/i18n"
	"github.com/gwenythashlie/examgenie/internal/model"
	"github.com/gwenythashlie/examgenie/internal/storage"
	"github.com/gwenythashlie/examgenie/internal/store"
)

const (
	defaultQuestionCount = 10
	defaultTimeLimitMin  = 30
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	exams     *exam.Service
	blobs     storage.BlobStore
	extractor extract.Extractor
	config    model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, exams *exam.Service, blobs storage.BlobStore, extractor extract.Extractor, cfg model.ServerConfig) *Handler {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	return &Handler{store: s, exams: exams, blobs: blobs, extractor: extractor, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/logout", h.handleLogout)

		r.Post("/api/reviewers", h.handleUploadReviewer)
		r.Get("/api/reviewers", h.handleListReviewers)
		r.Get("/api/reviewers/{reviewerID}", h.handleGetReviewer)
		r.Delete("/api/reviewers/{reviewerID}", h.handleDeleteReviewer)

		r.Post("/api/exams", h.handleCreateExam)
		r.Get("/api/exams", h.handleListExams)
		r.Get("/api/exams/{examID}", h.handleGetExam)
		r.Post("/api/exams/{examID}/submit", h.handleSubmitExam)
		r.Get("/api/exams/{examID}/attempts", h.handleListAttempts)
		r.Get("/api/attempts/{attemptID}", h.handleGetAttempt)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the exam service error taxonomy to HTTP statuses.
// notFoundMsgID localizes the 404 body for the record the endpoint serves.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsgID string) {
	switch {
	case exam.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, exam.ErrNotFound):
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), notFoundMsgID))
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
	}
}

type createExamRequest struct {
	ReviewerID       string `json:"reviewer_id"`
	Title            string `json:"title"`
	Difficulty       string `json:"difficulty"`
	TotalQuestions   int    `json:"total_questions"`
	TimeLimitMinutes int    `json:"time_limit"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Absent fields fall back to sensible defaults; the service rejects
	// explicit zero or invalid values.
	if req.Difficulty == "" {
		req.Difficulty = string(model.DifficultyMedium)
	}
	if req.TotalQuestions == 0 {
		req.TotalQuestions = defaultQuestionCount
	}
	if req.TimeLimitMinutes == 0 {
		req.TimeLimitMinutes = defaultTimeLimitMin
	}

	created, err := h.exams.CreateExam(r.Context(), user.ID, exam.CreateExamRequest{
		ReviewerID:       req.ReviewerID,
		Title:            req.Title,
		Difficulty:       model.Difficulty(req.Difficulty),
		TotalQuestions:   req.TotalQuestions,
		TimeLimitMinutes: req.TimeLimitMinutes,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "ReviewerNotFound")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"exam": created})
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	exams, err := h.exams.ListExams(user.ID)
	if err != nil {
		h.writeServiceError(w, r, err, "ExamNotFound")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exams": exams})
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	e, err := h.exams.GetExam(user.ID, chi.URLParam(r, "examID"))
	if err != nil {
		h.writeServiceError(w, r, err, "ExamNotFound")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exam": e})
}

type submitExamRequest struct {
	Answers          map[string]string `json:"answers"`
	TimeTakenSeconds int               `json:"time_taken"`
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req submitExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	attempt, err := h.exams.SubmitExam(user.ID, chi.URLParam(r, "examID"), req.Answers, req.TimeTakenSeconds)
	if err != nil {
		h.writeServiceError(w, r, err, "ExamNotFound")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"attempt": attempt})
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	attempts, err := h.exams.ListAttempts(user.ID, chi.URLParam(r, "examID"))
	if err != nil {
		h.writeServiceError(w, r, err, "ExamNotFound")
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	attempt, err := h.exams.GetAttempt(user.ID, chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeServiceError(w, r, err, "AttemptNotFound")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempt": attempt})
}
