package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/web/middleware"
)

// ExamHandler drives the exam flow for an authenticated session.
type ExamHandler struct {
	controller *exam.Controller
}

// NewExamHandler creates a new exam handler.
func NewExamHandler(ctrl *exam.Controller) *ExamHandler {
	return &ExamHandler{controller: ctrl}
}

// sessionUsername pulls the verified username out of the request context.
// RequireAuth guarantees it is present on these routes.
func sessionUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return session.Username, true
}

// Start begins the timed exam for the session's user.
func (h *ExamHandler) Start(w http.ResponseWriter, r *http.Request) {
	username, ok := sessionUsername(w, r)
	if !ok {
		return
	}

	status, err := h.controller.StartExam(username)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Status returns the current exam state, including the active question
// and remaining time.
func (h *ExamHandler) Status(w http.ResponseWriter, r *http.Request) {
	username, ok := sessionUsername(w, r)
	if !ok {
		return
	}

	status, err := h.controller.State(username)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type answerRequest struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

// Answer records (or overwrites) the answer for a question index.
func (h *ExamHandler) Answer(w http.ResponseWriter, r *http.Request) {
	username, ok := sessionUsername(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	status, err := h.controller.RecordAnswer(username, req.Index, req.Option)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type navigateRequest struct {
	Delta int `json:"delta"`
}

// Navigate moves the current question pointer, clamped to the question
// range.
func (h *ExamHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	username, ok := sessionUsername(w, r)
	if !ok {
		return
	}

	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	status, err := h.controller.Navigate(username, req.Delta)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Submit grades the exam and records the result. Safe to call twice.
func (h *ExamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	username, ok := sessionUsername(w, r)
	if !ok {
		return
	}

	status, err := h.controller.Submit(username)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
