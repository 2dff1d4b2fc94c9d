// Package testhelpers routes logs of code under test to the test log.
package testhelpers

import (
	"io"
	"strings"
	"testing"
)

// Writer writes to t.Log so that logs only show up for failed or verbose tests.
type Writer struct {
	t    testing.TB
	done chan struct{}
}

// NewWriter creates a Writer bound to t.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t, done: make(chan struct{})}
	t.Cleanup(func() { close(w.done) })
	return w
}

// Write panics once the test has finished to expose goroutines that outlive it, such as an HTTP server that was
// never shut down.
func (w *Writer) Write(p []byte) (int, error) {
	select {
	case <-w.done:
		panic("testhelpers: write after test completion, did you forget to stop a background goroutine?")
	default:
	}
	if line := strings.TrimSuffix(string(p), "\n"); line != "" {
		w.t.Log(line)
	}
	return len(p), nil
}
