package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appI18n "github.com/gwenythashlie/examgenie/internal/i18n"
	"github.com/gwenythashlie/examgenie/internal/model"
)

func (h *Handler) handleUploadReviewer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(h.config.MaxUploadMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "UploadNoFile"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "UploadNoFile"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	existing, err := h.store.FindReviewerByHash(user.ID, hash)
	if err != nil {
		slog.Error("failed to check for duplicate upload", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if existing != nil {
		existing.ExtractedText = ""
		writeJSON(w, http.StatusOK, map[string]any{
			"reviewer": existing,
			"message":  appI18n.T(r.Context(), "UploadDuplicate"),
		})
		return
	}

	fileName := filepath.Base(header.Filename)
	key := fmt.Sprintf("%d/%d_%s", user.ID, time.Now().UnixNano(), fileName)
	if _, err := h.blobs.Put(key, bytes.NewReader(data)); err != nil {
		slog.Error("failed to store upload", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	// Extraction is best effort. A reviewer without text still produces an
	// exam from the fallback question path.
	text, err := h.extractor.Extract(h.blobs.Path(key))
	if err != nil {
		slog.Warn("text extraction failed", "file", fileName, "error", err)
		text = ""
	}

	rev := model.Reviewer{
		ID:            uuid.NewString(),
		OwnerID:       user.ID,
		FileName:      fileName,
		FilePath:      key,
		ContentHash:   hash,
		ExtractedText: text,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store.InsertReviewer(rev); err != nil {
		slog.Error("failed to insert reviewer", "error", err)
		if delErr := h.blobs.Delete(key); delErr != nil {
			slog.Warn("failed to remove orphaned blob", "key", key, "error", delErr)
		}
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}

	slog.Info("reviewer uploaded", "id", rev.ID, "file", fileName, "user_id", user.ID,
		"extracted_chars", len(text))

	rev.ExtractedText = ""
	writeJSON(w, http.StatusCreated, map[string]any{"reviewer": rev})
}

func (h *Handler) handleListReviewers(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	reviewers, err := h.store.ListReviewers(user.ID)
	if err != nil {
		slog.Error("failed to list reviewers", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if reviewers == nil {
		reviewers = []model.Reviewer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviewers": reviewers})
}

func (h *Handler) handleGetReviewer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	rev, err := h.store.GetReviewer(user.ID, chi.URLParam(r, "reviewerID"))
	if err != nil {
		slog.Error("failed to get reviewer", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if rev == nil {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "ReviewerNotFound"))
		return
	}
	rev.ExtractedText = ""
	writeJSON(w, http.StatusOK, map[string]any{"reviewer": rev})
}

func (h *Handler) handleDeleteReviewer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	id := chi.URLParam(r, "reviewerID")

	rev, err := h.store.GetReviewer(user.ID, id)
	if err != nil {
		slog.Error("failed to get reviewer", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if rev == nil {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "ReviewerNotFound"))
		return
	}

	deleted, err := h.store.DeleteReviewer(user.ID, id)
	if err != nil {
		slog.Error("failed to delete reviewer", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "ReviewerNotFound"))
		return
	}

	if err := h.blobs.Delete(rev.FilePath); err != nil {
		slog.Warn("failed to remove reviewer file", "key", rev.FilePath, "error", err)
	}

	slog.Info("reviewer deleted", "id", id, "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": appI18n.T(r.Context(), "ReviewerDeleted")})
}
