package exam

import (
	"sync"
	"time"
)

// State is a session's lifecycle phase. Transitions only move forward:
// Authenticated, then InProgress, then Submitted.
type State int

const (
	StateAuthenticated State = iota + 1
	StateInProgress
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// session holds the mutable per-user exam state. All field access happens
// under mu; the controller only keeps a pointer in its session map.
type session struct {
	mu sync.Mutex

	attemptID string
	username  string
	state     State

	questions []Question
	index     int
	answers   map[int]string

	deadline    time.Time
	score       int
	submittedAt time.Time
}

// QuestionView is a question as shown to the candidate, without the
// correct-answer index.
type QuestionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// Status is an immutable snapshot of a session, safe to hand to HTTP
// handlers and CLI output after the session lock is released.
type Status struct {
	AttemptID      string         `json:"attempt_id"`
	Username       string         `json:"username"`
	State          string         `json:"state"`
	QuestionIndex  int            `json:"question_index"`
	TotalQuestions int            `json:"total_questions"`
	Question       *QuestionView  `json:"question,omitempty"`
	Answers        map[int]string `json:"answers,omitempty"`
	Remaining      float64        `json:"remaining_seconds"`
	Score          int            `json:"score"`
	Submitted      bool           `json:"submitted"`
}

// statusLocked builds a Status snapshot. Caller holds s.mu.
func (s *session) statusLocked(now time.Time) Status {
	st := Status{
		AttemptID:      s.attemptID,
		Username:       s.username,
		State:          s.state.String(),
		QuestionIndex:  s.index,
		TotalQuestions: len(s.questions),
		Score:          s.score,
		Submitted:      s.state == StateSubmitted,
	}
	if s.state == StateInProgress {
		if remaining := s.deadline.Sub(now); remaining > 0 {
			st.Remaining = remaining.Seconds()
		}
		q := s.questions[s.index]
		st.Question = &QuestionView{
			Index:   s.index,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
		}
		st.Answers = make(map[int]string, len(s.answers))
		for i, a := range s.answers {
			st.Answers[i] = a
		}
	}
	return st
}

// gradeLocked scores the recorded answers by comparing answer text with the
// correct option's text. Caller holds s.mu.
func (s *session) gradeLocked() int {
	score := 0
	for i, q := range s.questions {
		if answer, ok := s.answers[i]; ok && answer == q.Options[q.Answer] {
			score++
		}
	}
	return score
}
