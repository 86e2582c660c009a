package exam

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// optionsPerQuestion is fixed: every question offers four choices.
const optionsPerQuestion = 4

// Question is one multiple-choice question. Identity is positional within
// the active set; Answer indexes into Options.
type Question struct {
	Text    string   `yaml:"question" json:"question"`
	Options []string `yaml:"options" json:"options"`
	Answer  int      `yaml:"answer" json:"answer"`
}

// Validate checks a question is well-formed. Duplicate option text is
// rejected because grading compares answer text, which would make duplicate
// options indistinguishable.
func (q Question) Validate() error {
	if q.Text == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) != optionsPerQuestion {
		return fmt.Errorf("expected %d options, got %d", optionsPerQuestion, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("option %d is empty", i)
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option text %q", opt)
		}
		seen[opt] = struct{}{}
	}
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return fmt.Errorf("answer index %d out of range", q.Answer)
	}
	return nil
}

// ValidateSet validates every question in a set.
func ValidateSet(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("question set is empty")
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

// LoadQuestions reads a question set from a YAML file. A missing file
// returns (nil, nil) so callers can fall back to the built-in set.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var questions []Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}
	if err := ValidateSet(questions); err != nil {
		return nil, fmt.Errorf("invalid questions file: %w", err)
	}
	return questions, nil
}

// SaveQuestions writes a question set to a YAML file after validation.
func SaveQuestions(path string, questions []Question) error {
	if err := ValidateSet(questions); err != nil {
		return err
	}

	data, err := yaml.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write questions file: %w", err)
	}
	return nil
}

// DefaultQuestions returns the built-in question set, used when no
// admin-configured set exists.
func DefaultQuestions() []Question {
	return []Question{
		{
			Text:    "Which data structure uses FIFO (First In, First Out) principle?",
			Options: []string{"Stack", "Queue", "Tree", "Graph"},
			Answer:  1,
		},
		{
			Text:    "What does CPU stand for?",
			Options: []string{"Central Processing Unit", "Computer Personal Unit", "Central Programming Unit", "Control Processing Unit"},
			Answer:  0,
		},
		{
			Text:    "Which of the following is NOT an operating system?",
			Options: []string{"Linux", "Windows", "Oracle", "macOS"},
			Answer:  2,
		},
		{
			Text:    "What is the time complexity of binary search in a sorted array?",
			Options: []string{"O(n)", "O(log n)", "O(n^2)", "O(1)"},
			Answer:  1,
		},
		{
			Text:    "Which language is primarily used for web development?",
			Options: []string{"Python", "C++", "HTML", "Java"},
			Answer:  2,
		},
		{
			Text:    "Who is known as the father of computers?",
			Options: []string{"Charles Babbage", "Alan Turing", "Bill Gates", "Ada Lovelace"},
			Answer:  0,
		},
		{
			Text:    "Which of the following is a relational database management system?",
			Options: []string{"MySQL", "MongoDB", "Redis", "Neo4j"},
			Answer:  0,
		},
		{
			Text:    "What does RAM stand for?",
			Options: []string{"Read Access Memory", "Random Access Memory", "Run Access Memory", "Read And Memory"},
			Answer:  1,
		},
		{
			Text:    "Which protocol is used to transfer web pages?",
			Options: []string{"FTP", "SMTP", "HTTP", "SSH"},
			Answer:  2,
		},
		{
			Text:    "Which of the following is used for version control?",
			Options: []string{"Git", "Java", "Linux", "HTML"},
			Answer:  0,
		},
	}
}
