package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]Session
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Session)}
}

func (r *MemoryRepo) Create(_ context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[session.ID] = session
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, sessionID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return copySession(s), nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, sessionID string, status Status) error {
	return r.update(sessionID, func(s *Session) {
		s.Status = status
	})
}

func (r *MemoryRepo) SetExtracted(_ context.Context, sessionID string, extracted ExtractedText) error {
	return r.update(sessionID, func(s *Session) {
		e := copyExtracted(extracted)
		s.Extracted = &e
		s.Status = StatusOCRComplete
	})
}

func (r *MemoryRepo) SetQuestions(_ context.Context, sessionID string, questions []string, degraded bool) error {
	return r.update(sessionID, func(s *Session) {
		s.Questions = append([]string(nil), questions...)
		s.QuestionsDegraded = degraded
		s.Status = StatusQuestionsReady
	})
}

func (r *MemoryRepo) SetAnswers(_ context.Context, sessionID string, answers []Answer) error {
	return r.update(sessionID, func(s *Session) {
		s.Answers = append([]Answer(nil), answers...)
		s.Status = StatusGeneratingReport
	})
}

func (r *MemoryRepo) SetReport(_ context.Context, sessionID string, report string) error {
	return r.update(sessionID, func(s *Session) {
		s.FinalReport = report
		s.Status = StatusReportReady
	})
}

func (r *MemoryRepo) MarkFailed(_ context.Context, sessionID string, message string) error {
	return r.update(sessionID, func(s *Session) {
		s.ErrorMessage = message
		s.Status = StatusFailed
	})
}

func (r *MemoryRepo) update(sessionID string, fn func(*Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[sessionID]
	if !ok {
		return ErrNotFound
	}
	fn(&s)
	s.UpdatedAt = time.Now().UTC()
	r.rows[sessionID] = s
	return nil
}

// copySession returns a deep copy so pollers never observe writes in flight.
func copySession(s Session) Session {
	out := s
	if s.Extracted != nil {
		e := copyExtracted(*s.Extracted)
		out.Extracted = &e
	}
	out.Questions = append([]string(nil), s.Questions...)
	out.Answers = append([]Answer(nil), s.Answers...)
	return out
}

func copyExtracted(e ExtractedText) ExtractedText {
	out := ExtractedText{RawText: e.RawText}
	if e.KeyValuePairs != nil {
		out.KeyValuePairs = make(map[string]string, len(e.KeyValuePairs))
		for k, v := range e.KeyValuePairs {
			out.KeyValuePairs[k] = v
		}
	}
	return out
}
