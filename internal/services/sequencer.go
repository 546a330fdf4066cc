package services

import "sync"

// Sequencer serializes work per key. Messages from the same conversation
// are processed in arrival order; different conversations run concurrently.
type Sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewSequencer() *Sequencer {
	return &Sequencer{tails: make(map[string]chan struct{})}
}

// Do runs fn after every previously submitted fn for the same key has
// finished. It returns immediately; fn runs on its own goroutine.
func (s *Sequencer) Do(key string, fn func()) {
	s.mu.Lock()
	prev := s.tails[key]
	done := make(chan struct{})
	s.tails[key] = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		fn()

		s.mu.Lock()
		if s.tails[key] == done {
			delete(s.tails, key)
		}
		s.mu.Unlock()
	}()
}

// Wait blocks until all submitted work has finished. Used on shutdown and
// in tests.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}
