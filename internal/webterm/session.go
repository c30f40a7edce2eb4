package webterm

import (
	"errors"
	"sync"
)

// ErrSessionRunning is returned by Sessions.Start while a session is active.
var ErrSessionRunning = errors.New("session already running")

// Sessions runs at most one terminal session at a time and routes input to
// the running one.
type Sessions struct {
	mu sync.Mutex
	in *Input // nil while idle
}

// Start runs fn in a new goroutine with a fresh Input. The Input is closed
// and input routing stops when fn returns; done, if set, then receives fn's
// error.
func (s *Sessions) Start(fn func(in *Input) error, done func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in != nil {
		return ErrSessionRunning
	}
	in := NewInput()
	s.in = in

	go func() {
		err := fn(in)
		in.Close()
		s.mu.Lock()
		s.in = nil
		s.mu.Unlock()
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// Push forwards terminal input to the running session. It reports false
// when no session is running and the input was discarded.
func (s *Sessions) Push(str string) bool {
	s.mu.Lock()
	in := s.in
	s.mu.Unlock()
	if in == nil {
		return false
	}
	in.Push(str)
	return true
}

// Running reports whether a session is active.
func (s *Sessions) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.in != nil
}
