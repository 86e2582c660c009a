package handlers

import (
	"log"
	"net/http"

	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/registry"
	"github.com/faceproctor/faceproctor/internal/web/middleware"
)

// AuthHandler handles registration and face verification endpoints.
type AuthHandler struct {
	registry       *registry.Registry
	controller     *exam.Controller
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(reg *registry.Registry, ctrl *exam.Controller, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		registry:       reg,
		controller:     ctrl,
		sessionManager: sm,
	}
}

// Register stores a reference image for a new user. The image arrives as
// a multipart upload; overwrite is an explicit form flag.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	image, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image upload is required")
		return
	}

	username := r.FormValue("username")
	overwrite := r.FormValue("overwrite") == "true"

	if err := h.registry.Register(r.Context(), username, image, overwrite); err != nil {
		respondDomainError(w, err)
		return
	}

	log.Printf("registered user %s", sanitizeForLog(username))
	respondJSON(w, http.StatusCreated, map[string]string{"username": username})
}

// AuthResponse is the verification success payload.
type AuthResponse struct {
	Username   string  `json:"username"`
	AttemptID  string  `json:"attempt_id"`
	Similarity float64 `json:"similarity"`
	SessionID  string  `json:"session_id"`
}

// Authenticate verifies an uploaded probe image against the claimed
// username (1:1) and opens a session on success.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	image, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image upload is required")
		return
	}
	username := r.FormValue("username")

	result, err := h.controller.Authenticate(r.Context(), username, image)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	session, err := h.sessionManager.CreateSession(result.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, AuthResponse{
		Username:   result.Username,
		AttemptID:  result.AttemptID,
		Similarity: result.Similarity,
		SessionID:  session.ID,
	})
}

// Identify matches an uploaded probe image against all registered users
// (1:N). It reports the best match without opening a session.
func (h *AuthHandler) Identify(w http.ResponseWriter, r *http.Request) {
	image, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image upload is required")
		return
	}

	best, err := h.controller.Identify(r.Context(), image)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"username":   best.Username,
		"similarity": best.Similarity,
	})
}

// Logout destroys the exam session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.controller.Destroy(session.Username)
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
