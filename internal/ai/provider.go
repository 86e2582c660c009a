// Package ai generates exam question sets through LLM providers. The
// output always passes exam question validation before it reaches the
// question file.
package ai

import (
	"context"

	"github.com/faceproctor/faceproctor/internal/exam"
)

// Provider defines the interface for question generation backends.
type Provider interface {
	Name() string
	GenerateQuestions(ctx context.Context, topic string, count int) ([]exam.Question, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token consumption across calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
