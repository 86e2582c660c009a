package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/faceproctor/faceproctor/internal/database"
	"github.com/faceproctor/faceproctor/internal/embedding"
	"github.com/faceproctor/faceproctor/internal/exam"
	"github.com/faceproctor/faceproctor/internal/match"
	"github.com/faceproctor/faceproctor/internal/registry"
	"github.com/faceproctor/faceproctor/internal/store"
	"github.com/faceproctor/faceproctor/internal/web/middleware"
)

// fakeEmbedder maps image bytes to fixed vectors for deterministic
// verification outcomes.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	switch string(imageData) {
	case "noface":
		return nil, embedding.ErrNoFace
	case "alice-face":
		return []float32{1, 0, 0, 0}, nil
	case "bob-face":
		return []float32{0, 1, 0, 0}, nil
	default:
		return []float32{0, 0, 1, 0}, nil
	}
}

// testStack wires the full handler dependency graph over a temp dir.
type testStack struct {
	registry   *registry.Registry
	controller *exam.Controller
	authLog    *store.AuthLog
	resultLog  *store.ResultLog
	timeLimits *store.TimeLimits
	sessions   *middleware.SessionManager
	questions  string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	dir := t.TempDir()

	emb := fakeEmbedder{}
	cache := database.NewFileCache(filepath.Join(dir, "cache.json"))
	reg, err := registry.New(filepath.Join(dir, "users"), emb, cache)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	st := &testStack{
		registry:   reg,
		authLog:    store.NewAuthLog(filepath.Join(dir, "log.txt")),
		resultLog:  store.NewResultLog(filepath.Join(dir, "results.txt")),
		timeLimits: store.NewTimeLimits(filepath.Join(dir, "time_limits.json")),
		sessions:   middleware.NewSessionManager("test-secret"),
		questions:  filepath.Join(dir, "questions.yaml"),
	}
	t.Cleanup(st.sessions.Stop)

	st.controller = exam.NewController(exam.Config{
		Registry:                reg,
		Embedder:                emb,
		Matcher:                 match.NewMatcher(0.6),
		AuthLog:                 st.authLog,
		ResultLog:               st.resultLog,
		Ledger:                  store.NewLedger(filepath.Join(dir, "resets.txt")),
		TimeLimits:              st.timeLimits,
		DefaultTimeLimitSeconds: 120,
		QuestionsPath:           st.questions,
	})

	return st
}

func (st *testStack) authHandler() *AuthHandler {
	return NewAuthHandler(st.registry, st.controller, st.sessions)
}

func (st *testStack) examHandler() *ExamHandler {
	return NewExamHandler(st.controller)
}

func (st *testStack) adminHandler() *AdminHandler {
	return NewAdminHandler(st.registry, st.controller, st.authLog, st.resultLog,
		st.timeLimits, st.sessions, 120, st.questions)
}

// registerUser registers a user directly through the registry.
func (st *testStack) registerUser(t *testing.T, username, image string) {
	t.Helper()
	if err := st.registry.Register(context.Background(), username, []byte(image), false); err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
}

// authedRequest builds a request carrying a verified session for the user.
func (st *testStack) authedRequest(t *testing.T, method, path string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	session, err := st.sessions.CreateSession("alice")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return req.WithContext(middleware.SetSessionInContext(req.Context(), session))
}

// multipartImageRequest builds a multipart request with an image file and
// optional form fields.
func multipartImageRequest(t *testing.T, path, image string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "probe.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(image)); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonBody encodes a value as a JSON request body.
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
