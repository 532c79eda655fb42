package usecase

import (
	"context"
	"sync"

	"cmsrag/internal/domain"
)

// Answerer is the query entry point a Session drives.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, prior domain.History) (string, domain.RetrievalResult, error)
}

// Session holds one conversation and the context behind its last answer.
// A failed question leaves both unchanged.
type Session struct {
	ask      sync.Mutex // one question at a time
	mu       sync.RWMutex
	answerer Answerer
	history  domain.History
	last     domain.RetrievalResult
}

func NewSession(answerer Answerer) *Session {
	return &Session{answerer: answerer}
}

// Ask answers question in the context of the conversation so far.
func (s *Session) Ask(ctx context.Context, question string) (string, domain.RetrievalResult, error) {
	s.ask.Lock()
	defer s.ask.Unlock()

	prior := s.History()

	answer, retrieved, err := s.answerer.AnswerQuestion(ctx, question, prior)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.history = append(s.history,
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: answer},
	)
	s.last = retrieved
	s.mu.Unlock()

	return answer, cloneResult(retrieved), nil
}

// History returns a copy of the conversation.
func (s *Session) History() domain.History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Clone()
}

// LastContext returns a copy of the chunks behind the last answer.
func (s *Session) LastContext() domain.RetrievalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneResult(s.last)
}

// Clear forgets the conversation and the last context. It waits for a
// question in flight so its turns are not appended afterwards.
func (s *Session) Clear() {
	s.ask.Lock()
	defer s.ask.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.last = nil
}

func cloneResult(r domain.RetrievalResult) domain.RetrievalResult {
	if r == nil {
		return nil
	}
	out := make(domain.RetrievalResult, len(r))
	copy(out, r)
	return out
}
