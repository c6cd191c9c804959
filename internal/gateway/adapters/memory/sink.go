package memory

import (
	"context"
	"sync"
)

// Sink is an in-memory EventPublisher that records published envelopes.
// FailNext makes the next N Publish calls fail, which tests use to drive the
// publisher's retry path.
type Sink struct {
	mu        sync.Mutex
	published [][]byte
	topics    []string
	failures  int
	failErr   error
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.failErr = err
}

func (s *Sink) Publish(_ context.Context, topic string, envelope []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return s.failErr
	}
	s.published = append(s.published, append([]byte(nil), envelope...))
	s.topics = append(s.topics, topic)
	return nil
}

// Published returns the recorded envelopes in publish order.
func (s *Sink) Published() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.published))
	copy(out, s.published)
	return out
}

// Topics returns the topic used for each recorded publish.
func (s *Sink) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics...)
}
