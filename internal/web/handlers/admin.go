package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/registry"
	"github.com/faceproctor/faceproctor/internal/store"
	"github.com/faceproctor/faceproctor/internal/web/middleware"
)

const defaultLogLimit = 50

// AdminHandler exposes the proctor's administration surface: user
// management, logs, time limits, attempt resets and question sets.
type AdminHandler struct {
	registry       *registry.Registry
	controller     *exam.Controller
	authLog        *store.AuthLog
	resultLog      *store.ResultLog
	timeLimits     *store.TimeLimits
	sessionManager *middleware.SessionManager

	defaultTimeLimitSeconds int
	questionsPath           string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	reg *registry.Registry,
	ctrl *exam.Controller,
	authLog *store.AuthLog,
	resultLog *store.ResultLog,
	timeLimits *store.TimeLimits,
	sm *middleware.SessionManager,
	defaultTimeLimitSeconds int,
	questionsPath string,
) *AdminHandler {
	return &AdminHandler{
		registry:                reg,
		controller:              ctrl,
		authLog:                 authLog,
		resultLog:               resultLog,
		timeLimits:              timeLimits,
		sessionManager:          sm,
		defaultTimeLimitSeconds: defaultTimeLimitSeconds,
		questionsPath:           questionsPath,
	}
}

// ListUsers returns all registered usernames.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registry.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// DeleteUser removes a user's reference image and kills their sessions.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.registry.Delete(r.Context(), username); err != nil {
		respondDomainError(w, err)
		return
	}
	h.controller.Destroy(username)
	h.sessionManager.DeleteForUser(username)

	log.Printf("deleted user %s", sanitizeForLog(username))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AuthLog returns the most recent authentication attempts.
func (h *AdminHandler) AuthLog(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.authLog.ReadRecent(limitParam(r, defaultLogLimit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

// Results returns the most recent exam results.
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	records, err := h.resultLog.ReadRecent(limitParam(r, defaultLogLimit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": records})
}

// GetTimeLimit returns a user's effective exam time limit.
func (h *AdminHandler) GetTimeLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	seconds, err := h.timeLimits.Get(username, h.defaultTimeLimitSeconds)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"seconds":  seconds,
	})
}

type timeLimitRequest struct {
	Seconds int `json:"seconds"`
}

// SetTimeLimit sets a user's exam time limit in seconds.
func (h *AdminHandler) SetTimeLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req timeLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.timeLimits.Set(username, req.Seconds); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("set time limit for %s to %ds", sanitizeForLog(username), req.Seconds)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Reset grants a user a fresh exam attempt and destroys their live
// session. Past results stay in the log.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.controller.Reset(username); err != nil {
		respondDomainError(w, err)
		return
	}
	h.sessionManager.DeleteForUser(username)

	log.Printf("granted exam reset for %s", sanitizeForLog(username))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetQuestions returns the active question set.
func (h *AdminHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := exam.LoadQuestions(h.questionsPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	source := "file"
	if questions == nil {
		questions = exam.DefaultQuestions()
		source = "builtin"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"source":    source,
		"questions": questions,
	})
}

// PutQuestions replaces the admin-configured question set.
func (h *AdminHandler) PutQuestions(w http.ResponseWriter, r *http.Request) {
	var questions []exam.Question
	if err := json.NewDecoder(r.Body).Decode(&questions); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := exam.SaveQuestions(h.questionsPath, questions); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("replaced question set (%d questions)", len(questions))
	respondJSON(w, http.StatusOK, map[string]any{"count": len(questions)})
}
