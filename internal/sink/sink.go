// Package sink serializes formatted record lines from all producers into a
// single append-only file.
package sink

import (
	"bufio"
	"os"
	"sync"
)

// Sink is a mutex-guarded buffered appender. Producers hand it complete,
// newline-terminated lines; flushing belongs to the supervisor's flush task
// and to Close.
type Sink struct {
	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
}

// Open creates or appends to the output file at path. Existing content is
// preserved.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Sink{f: f, buf: bufio.NewWriter(f)}, nil
}

// WriteLine appends one complete record line, atomically with respect to
// other producers.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.buf.WriteString(line)
	return err
}

// Flush drains buffered lines to the file.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Flush()
}

// Close performs the final flush and releases the file handle. It must be the
// last sink operation.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flushErr := s.buf.Flush()
	closeErr := s.f.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
