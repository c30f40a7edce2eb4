// Package webterm connects Go readers and writers to a terminal widget
// that lives outside the process, such as a browser page.
package webterm

import (
	"io"
	"sync"
	"unicode/utf8"
)

// Console is an io.Writer that hands output to a terminal callback.
// Writes are serialised and split only on UTF-8 boundaries, so a multi-byte
// character is never delivered in halves.
type Console struct {
	mu      sync.Mutex
	write   func(string)
	pending []byte
}

// NewConsole returns a Console delivering to write.
func NewConsole(write func(string)) *Console {
	return &Console{write: write}
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := append(c.pending, p...)
	cut := completePrefix(buf)
	if cut > 0 {
		c.write(string(buf[:cut]))
	}
	c.pending = append(c.pending[:0:0], buf[cut:]...)
	return len(p), nil
}

// completePrefix returns the length of the longest prefix of b that does
// not end inside a UTF-8 sequence.
func completePrefix(b []byte) int {
	// A rune is at most 4 bytes, so only the tail can be incomplete.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}

// Input is an io.ReadCloser fed from terminal key presses.
type Input struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

// NewInput returns an empty Input.
func NewInput() *Input {
	in := &Input{}
	in.cond = sync.NewCond(&in.mu)
	return in
}

// Push queues s for reading. Pushing to a closed Input is a no-op.
func (in *Input) Push(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.buf = append(in.buf, s...)
	in.cond.Broadcast()
}

// Read blocks until input is available or the Input is closed.
func (in *Input) Read(p []byte) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for len(in.buf) == 0 && !in.closed {
		in.cond.Wait()
	}
	if len(in.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, in.buf)
	in.buf = in.buf[n:]
	return n, nil
}

// Close wakes pending readers; buffered input is still returned before EOF.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.cond.Broadcast()
	return nil
}
