// Package session runs a single timed exam attempt: question navigation,
// answer capture, countdown, and at-most-once submission.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gwenythashlie/examgenie/internal/model"
)

// State is the lifecycle phase of an exam session.
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

var (
	// ErrNotInProgress is returned by actions that require a running attempt.
	ErrNotInProgress = errors.New("session is not in progress")
	// ErrNoFailedSubmit is returned by RetrySubmit when there is nothing to retry.
	ErrNoFailedSubmit = errors.New("no failed submission to retry")
)

// Submitter delivers collected answers for grading and returns the created
// attempt id. It is called at most once per session unless it fails, in
// which case the learner may retry explicitly.
type Submitter func(answers map[string]string, timeTakenSeconds int) (attemptID string, err error)

// Session owns all state of one timed attempt. It is safe for the timer
// goroutine and user input to act on it concurrently; the submit transition
// fires exactly once no matter which trigger wins.
type Session struct {
	mu        sync.Mutex
	state     State
	exam      model.Exam
	current   int
	answers   map[string]string
	remaining int
	inFlight  bool
	submitErr error
	attemptID string
	submit    Submitter
	done      chan struct{}
	disposed  sync.Once
}

// New creates a session in the Loading state.
func New(submit Submitter) *Session {
	return &Session{
		state:  StateLoading,
		submit: submit,
		done:   make(chan struct{}),
	}
}

// Start moves the session into InProgress with a full time budget. The exam
// must carry a positive time limit: the countdown is what drives auto-submit,
// so a session without one could only ever end by manual submit.
func (s *Session) Start(exam model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return errors.New("session already started")
	}
	if exam.TimeLimitMinutes < 1 {
		return errors.New("exam has no time limit")
	}
	s.exam = exam
	s.answers = make(map[string]string, len(exam.Questions))
	s.remaining = exam.TimeLimitMinutes * 60
	s.current = 0
	s.state = StateInProgress
	return nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Exam returns the exam under attempt.
func (s *Session) Exam() model.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exam
}

// CurrentIndex returns the question the learner is looking at.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// TimeRemaining returns the seconds left on the countdown.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// AttemptID returns the graded attempt id once the session is Completed.
func (s *Session) AttemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptID
}

// Err returns the error from a failed submission, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

// Answers returns a copy of the collected answers.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// SelectAnswer records the learner's answer for a question. The last write
// per question wins. Answers for questions not in the exam are ignored.
func (s *Session) SelectAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	for _, q := range s.exam.Questions {
		if q.ID == questionID {
			s.answers[questionID] = value
			return nil
		}
	}
	return nil
}

// Navigate moves to the question at index, clamped to the valid range, and
// returns the resulting index. Collected answers are never discarded.
func (s *Session) Navigate(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.current
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.exam.Questions) - 1; index > max {
		index = max
	}
	if index < 0 {
		index = 0
	}
	s.current = index
	return s.current
}

// Tick advances the countdown by one second. When the countdown reaches
// zero the session auto-submits whatever answers exist at that instant.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StateInProgress || s.remaining <= 0 {
		s.mu.Unlock()
		return
	}
	s.remaining--
	expired := s.remaining == 0
	s.mu.Unlock()

	if expired {
		s.Submit()
	}
}

// Submit moves the session into Submitting and delivers the answers for
// grading. The InProgress→Submitting transition is the one-shot guard: if
// the timeout and a manual submit race, only the first caller proceeds and
// exactly one attempt is created. On success the session is Completed; on
// failure it stays in Submitting with the error surfaced, and the learner
// may retry.
func (s *Session) Submit() error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	s.state = StateSubmitting
	s.inFlight = true
	answers, elapsed := s.snapshotLocked()
	s.mu.Unlock()

	return s.deliver(answers, elapsed)
}

// RetrySubmit re-delivers the answers after a failed submission.
func (s *Session) RetrySubmit() error {
	s.mu.Lock()
	if s.state != StateSubmitting || s.inFlight || s.submitErr == nil {
		s.mu.Unlock()
		return ErrNoFailedSubmit
	}
	s.inFlight = true
	s.submitErr = nil
	answers, elapsed := s.snapshotLocked()
	s.mu.Unlock()

	return s.deliver(answers, elapsed)
}

func (s *Session) snapshotLocked() (map[string]string, int) {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return answers, s.exam.TimeLimitMinutes*60 - s.remaining
}

func (s *Session) deliver(answers map[string]string, elapsed int) error {
	attemptID, err := s.submit(answers, elapsed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.submitErr = err
		return err
	}
	s.submitErr = nil
	s.attemptID = attemptID
	s.state = StateCompleted
	return nil
}

// Run drives the countdown with a one-second ticker until the session
// completes, is disposed, or ctx is cancelled. It is the session's sole
// tick source.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Tick()
			if s.State() == StateCompleted {
				return
			}
		}
	}
}

// Dispose abandons the session and stops the tick loop. Local state is
// discarded; nothing is persisted unless a submission already succeeded.
func (s *Session) Dispose() {
	s.disposed.Do(func() { close(s.done) })
}
