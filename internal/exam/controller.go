// Package exam implements the proctored exam lifecycle: face
// authentication, the timed question flow, grading and the attempt
// eligibility rules.
package exam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faceproctor/faceproctor/internal/match"
	"github.com/faceproctor/faceproctor/internal/registry"
	"github.com/faceproctor/faceproctor/internal/store"
)

var (
	ErrNotAuthenticated = errors.New("face verification failed")
	ErrSessionNotFound  = errors.New("no active session")
	ErrExamNotStarted   = errors.New("exam has not been started")
	ErrExamInProgress   = errors.New("exam already in progress")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrAttemptUsed      = errors.New("no exam attempts remaining")
)

const sweepInterval = time.Second

// Embedder computes a face embedding for a probe image. Satisfied by
// embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, imageData []byte) ([]float32, error)
}

// Config wires the controller's collaborators and policy knobs.
type Config struct {
	Registry   *registry.Registry
	Embedder   Embedder
	Matcher    *match.Matcher
	AuthLog    *store.AuthLog
	ResultLog  *store.ResultLog
	Ledger     *store.Ledger
	TimeLimits *store.TimeLimits

	// DefaultTimeLimitSeconds applies to users without a per-user limit.
	DefaultTimeLimitSeconds int

	// QuestionsPath is the admin-managed question file; when absent the
	// built-in set is used.
	QuestionsPath string
}

// Controller drives exam sessions. The map lock only guards session
// lookup and insertion; each session carries its own lock so candidates
// never serialize behind each other.
type Controller struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// AuthResult reports a successful face verification.
type AuthResult struct {
	Username   string  `json:"username"`
	AttemptID  string  `json:"attempt_id"`
	Similarity float64 `json:"similarity"`
}

func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*session),
		sweepStop: make(chan struct{}),
	}
}

// StartSweeper launches the background expiry sweep. Stop terminates it.
func (c *Controller) StartSweeper() {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweepExpired()
			case <-c.sweepStop:
				return
			}
		}
	}()
}

// Stop shuts the sweeper down. Safe to call more than once.
func (c *Controller) Stop() {
	c.sweepOnce.Do(func() { close(c.sweepStop) })
}

// Authenticate verifies a probe image against the named user's reference
// embedding (1:1). Every call appends exactly one auth attempt; failures
// for unknown users are recorded under "Unknown". A successful
// verification replaces any existing session with a fresh one.
func (c *Controller) Authenticate(ctx context.Context, username string, image []byte) (AuthResult, error) {
	now := c.now()

	name, err := registry.NormalizeUsername(username)
	if err != nil {
		c.logAuth(now, store.UnknownUser, store.OutcomeFail)
		return AuthResult{}, err
	}

	reference, err := c.cfg.Registry.ReferenceEmbedding(ctx, name)
	if err != nil {
		if errors.Is(err, registry.ErrUserNotFound) {
			c.logAuth(now, store.UnknownUser, store.OutcomeFail)
		} else {
			c.logAuth(now, name, store.OutcomeFail)
		}
		return AuthResult{}, err
	}

	probe, err := c.cfg.Embedder.Embed(ctx, image)
	if err != nil {
		c.logAuth(now, name, store.OutcomeFail)
		return AuthResult{}, fmt.Errorf("compute probe embedding: %w", err)
	}

	sim, ok := match.Verify(probe, reference, c.cfg.Matcher.Threshold())
	if !ok {
		c.logAuth(now, name, store.OutcomeFail)
		return AuthResult{}, fmt.Errorf("%w: similarity %.4f below threshold", ErrNotAuthenticated, sim)
	}

	// The auth log is the audit trail; refusing the session on a write
	// failure keeps it complete.
	if err := c.cfg.AuthLog.Append(now, name, store.OutcomeSuccess); err != nil {
		return AuthResult{}, fmt.Errorf("record auth attempt: %w", err)
	}

	s := &session{
		attemptID: uuid.NewString(),
		username:  name,
		state:     StateAuthenticated,
		answers:   make(map[int]string),
	}

	c.mu.Lock()
	c.sessions[name] = s
	c.mu.Unlock()

	return AuthResult{Username: name, AttemptID: s.attemptID, Similarity: sim}, nil
}

// Identify matches a probe image against every registered user (1:N) and
// records the outcome in the auth log. It does not create a session.
func (c *Controller) Identify(ctx context.Context, image []byte) (match.Match, error) {
	now := c.now()

	probe, err := c.cfg.Embedder.Embed(ctx, image)
	if err != nil {
		c.logAuth(now, store.UnknownUser, store.OutcomeFail)
		return match.Match{}, fmt.Errorf("compute probe embedding: %w", err)
	}

	snapshot, err := c.cfg.Registry.Snapshot(ctx)
	if err != nil {
		return match.Match{}, err
	}

	best, err := c.cfg.Matcher.Identify(probe, snapshot)
	if err != nil {
		c.logAuth(now, store.UnknownUser, store.OutcomeFail)
		return match.Match{}, err
	}

	c.logAuth(now, best.Username, store.OutcomeSuccess)
	return best, nil
}

// StartExam transitions an Authenticated session to InProgress. The
// eligibility ledger gates retakes: a user with more recorded results than
// granted resets has no attempt left.
func (c *Controller) StartExam(username string) (Status, error) {
	s, err := c.lookup(username)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		return Status{}, ErrExamInProgress
	case StateSubmitted:
		return Status{}, ErrAttemptUsed
	}

	eligible, err := c.attemptAvailable(s.username)
	if err != nil {
		return Status{}, err
	}
	if !eligible {
		return Status{}, ErrAttemptUsed
	}

	questions, err := c.activeQuestions()
	if err != nil {
		return Status{}, err
	}

	limit, err := c.cfg.TimeLimits.Get(s.username, c.cfg.DefaultTimeLimitSeconds)
	if err != nil {
		return Status{}, fmt.Errorf("load time limit: %w", err)
	}

	now := c.now()
	s.state = StateInProgress
	s.questions = questions
	s.index = 0
	s.answers = make(map[int]string)
	s.deadline = now.Add(time.Duration(limit) * time.Second)
	s.score = 0

	return s.statusLocked(now), nil
}

// RecordAnswer stores (or overwrites) the answer for a question index.
// An out-of-range index leaves the session untouched. A session past its
// deadline is finalized first and the write rejected.
func (c *Controller) RecordAnswer(username string, index int, option string) (Status, error) {
	s, err := c.lookup(username)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	if err := c.requireInProgressLocked(s, now); err != nil {
		return Status{}, err
	}
	if index < 0 || index >= len(s.questions) {
		return Status{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.questions))
	}

	s.answers[index] = option
	return s.statusLocked(now), nil
}

// Navigate moves the current question pointer by delta, clamped to the
// question range.
func (c *Controller) Navigate(username string, delta int) (Status, error) {
	s, err := c.lookup(username)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	if err := c.requireInProgressLocked(s, now); err != nil {
		return Status{}, err
	}

	next := s.index + delta
	if next < 0 {
		next = 0
	}
	if max := len(s.questions) - 1; next > max {
		next = max
	}
	s.index = next
	return s.statusLocked(now), nil
}

// Submit grades the exam and records exactly one result. A repeat call on
// an already submitted session returns the recorded score without a second
// append.
func (c *Controller) Submit(username string) (Status, error) {
	s, err := c.lookup(username)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	switch s.state {
	case StateAuthenticated:
		return Status{}, ErrExamNotStarted
	case StateSubmitted:
		return s.statusLocked(now), nil
	}

	if err := c.finalizeLocked(s, now); err != nil {
		return Status{}, err
	}
	return s.statusLocked(now), nil
}

// State returns a snapshot of the user's session, finalizing it first if
// the deadline has passed.
func (c *Controller) State(username string) (Status, error) {
	s, err := c.lookup(username)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := c.now()
	if s.state == StateInProgress && !now.Before(s.deadline) {
		if err := c.finalizeLocked(s, now); err != nil {
			return Status{}, err
		}
	}
	return s.statusLocked(now), nil
}

// Reset grants the user a fresh attempt via the eligibility ledger and
// destroys any live session. The result log is never modified.
func (c *Controller) Reset(username string) error {
	name, err := registry.NormalizeUsername(username)
	if err != nil {
		return err
	}
	if err := c.cfg.Ledger.Grant(c.now(), name); err != nil {
		return fmt.Errorf("grant reset: %w", err)
	}
	c.Destroy(name)
	return nil
}

// Destroy drops the user's session, if any.
func (c *Controller) Destroy(username string) {
	name, err := registry.NormalizeUsername(username)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.sessions, name)
	c.mu.Unlock()
}

// sweepExpired force-submits every InProgress session past its deadline.
func (c *Controller) sweepExpired() {
	c.mu.RLock()
	candidates := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		candidates = append(candidates, s)
	}
	c.mu.RUnlock()

	now := c.now()
	for _, s := range candidates {
		c.expireIfDue(s, now)
	}
}

// expireIfDue finalizes the session when its deadline has passed. The
// membership re-check guards against a Reset or Destroy landing between
// the sweep snapshot and this call: a session no longer in the map must
// not record a result. The read lock is held across the finalize so the
// session cannot be removed mid-append.
func (c *Controller) expireIfDue(s *session, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || now.Before(s.deadline) {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sessions[s.username] != s {
		return
	}

	if err := c.finalizeLocked(s, now); err != nil {
		// Leave the session for the next sweep.
		log.Printf("exam: failed to finalize expired session for %s: %v", s.username, err)
	}
}

// finalizeLocked grades and records the result, moving the session to
// Submitted. On a store write failure the session stays InProgress so the
// append can be retried. Caller holds s.mu.
func (c *Controller) finalizeLocked(s *session, now time.Time) error {
	score := s.gradeLocked()
	if err := c.cfg.ResultLog.Append(now, s.username, score, len(s.questions)); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	s.score = score
	s.state = StateSubmitted
	s.submittedAt = now
	return nil
}

// requireInProgressLocked rejects answer and navigation calls outside the
// InProgress window, finalizing first when the deadline has passed. Caller
// holds s.mu.
func (c *Controller) requireInProgressLocked(s *session, now time.Time) error {
	switch s.state {
	case StateAuthenticated:
		return ErrExamNotStarted
	case StateSubmitted:
		return ErrAttemptUsed
	}
	if !now.Before(s.deadline) {
		if err := c.finalizeLocked(s, now); err != nil {
			return err
		}
		return ErrAttemptUsed
	}
	return nil
}

// attemptAvailable applies the ledger rule: a user may sit the exam while
// the number of granted resets covers the results already recorded.
func (c *Controller) attemptAvailable(username string) (bool, error) {
	results, err := c.cfg.ResultLog.CountForUser(username)
	if err != nil {
		return false, fmt.Errorf("count results: %w", err)
	}
	grants, err := c.cfg.Ledger.Grants(username)
	if err != nil {
		return false, fmt.Errorf("count reset grants: %w", err)
	}
	return results <= grants, nil
}

// activeQuestions loads the admin-managed question file when present,
// falling back to the built-in set.
func (c *Controller) activeQuestions() ([]Question, error) {
	if c.cfg.QuestionsPath != "" {
		questions, err := LoadQuestions(c.cfg.QuestionsPath)
		if err != nil {
			return nil, err
		}
		if questions != nil {
			return questions, nil
		}
	}
	return DefaultQuestions(), nil
}

func (c *Controller) lookup(username string) (*session, error) {
	name, err := registry.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	s, ok := c.sessions[name]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *Controller) logAuth(at time.Time, username string, outcome store.Outcome) {
	if err := c.cfg.AuthLog.Append(at, username, outcome); err != nil {
		log.Printf("exam: failed to record auth attempt for %s: %v", username, err)
	}
}
