package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/faceproctor/faceproctor/internal/exam"
)

//go:embed prompts/question_generation.txt
var questionGenerationPrompt string

// questionSetResponse is the JSON shape both providers are instructed to
// return.
type questionSetResponse struct {
	Questions []exam.Question `json:"questions"`
}

// buildQuestionPrompt returns the embedded generation prompt.
func buildQuestionPrompt() string {
	return questionGenerationPrompt
}

// buildQuestionRequest builds the user message content for question
// generation. Shared across all providers.
func buildQuestionRequest(topic string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d questions.\n", count)
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	return b.String()
}

// parseQuestionResponse decodes and validates a provider response. The
// validation error doubles as retry feedback for the model.
func parseQuestionResponse(content string, count int) ([]exam.Question, error) {
	var resp questionSetResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	if len(resp.Questions) != count {
		return nil, fmt.Errorf("expected %d questions, got %d", count, len(resp.Questions))
	}
	if err := exam.ValidateSet(resp.Questions); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}
