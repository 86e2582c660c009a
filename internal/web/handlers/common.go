package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/faceproctor/faceproctor/internal/embedding"
	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/match"
	"github.com/faceproctor/faceproctor/internal/registry"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxUploadSize caps probe and reference image uploads at 10 MB.
const maxUploadSize = 10 << 20

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain errors to HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidUsername), errors.Is(err, exam.ErrIndexOutOfRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrUserExists), errors.Is(err, exam.ErrExamNotStarted), errors.Is(err, exam.ErrExamInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrUserNotFound), errors.Is(err, match.ErrNoRegisteredUsers):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, embedding.ErrNoFace):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, exam.ErrNotAuthenticated), errors.Is(err, match.ErrNoMatch), errors.Is(err, exam.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, exam.ErrAttemptUsed):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "embedding provider timed out")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// readImageUpload reads the "image" file from a multipart form.
func readImageUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer func(file multipart.File) { _ = file.Close() }(file)
	return io.ReadAll(file)
}

// limitParam parses the ?limit= query parameter with a default.
func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
