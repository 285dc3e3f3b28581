// Package audit writes the per-invocation session log: one timestamped line
// per finding or skip notice.
package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("session log: closed")

const (
	fileTimeLayout = "20060102-150405"
	lineTimeLayout = "2006-01-02 15:04:05"
)

// SessionLog appends lines to a file named after the invocation's start
// time. The file is created on the first Append, so a pass with nothing to
// report leaves no file behind. It is safe for concurrent use.
type SessionLog struct {
	mu     sync.Mutex
	path   string
	w      io.WriteCloser
	closed bool

	now  func() time.Time
	open func(path string) (io.WriteCloser, error)
}

// NewSessionLog returns a SessionLog that will write to
// {dir}/{prefix}-{start}.log.
func NewSessionLog(dir, prefix string, start time.Time) *SessionLog {
	name := fmt.Sprintf("%s-%s.log", prefix, start.Format(fileTimeLayout))
	return &SessionLog{
		path: filepath.Join(dir, name),
		now:  time.Now,
		open: openAppend,
	}
}

// Path returns the log file path, whether or not it exists yet.
func (l *SessionLog) Path() string {
	return l.path
}

// Append writes "<timestamp> - <message>". A failed open is retried on the
// next call.
func (l *SessionLog) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.w == nil {
		w, err := l.open(l.path)
		if err != nil {
			return fmt.Errorf("open session log: %w", err)
		}
		l.w = w
	}

	line := fmt.Sprintf("%s - %s\n", l.now().Format(lineTimeLayout), message)
	if _, err := io.WriteString(l.w, line); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}

// Close releases the file if one was opened.
func (l *SessionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	return err
}

func openAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
