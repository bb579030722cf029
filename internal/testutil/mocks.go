package testutil

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrSimulated is returned by MockReader when configured to fail.
var ErrSimulated = errors.New("simulated error")

// MockReader is a test io.Reader that serves a fixed set of lines and can
// simulate a read failure after a number of lines have been delivered.
type MockReader struct {
	mu         sync.Mutex
	data       string
	pos        int
	failAfter  int
	readCount  int
	shouldFail bool
	err        error
	closed     bool
}

// NewMockReader creates a MockReader serving the given lines, newline-terminated.
func NewMockReader(lines ...string) *MockReader {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return &MockReader{data: b.String(), failAfter: -1}
}

// Read implements io.Reader. It hands out at most one line per call so that a
// configured failure lands between lines.
func (mr *MockReader) Read(p []byte) (int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	mr.readCount++

	if mr.shouldError() {
		return 0, mr.err
	}
	if mr.pos >= len(mr.data) {
		return 0, io.EOF
	}

	end := strings.IndexByte(mr.data[mr.pos:], '\n')
	if end < 0 {
		end = len(mr.data) - mr.pos
	} else {
		end++
	}
	if end > len(p) {
		end = len(p)
	}

	n := copy(p, mr.data[mr.pos:mr.pos+end])
	mr.pos += n
	return n, nil
}

func (mr *MockReader) shouldError() bool {
	if mr.shouldFail {
		return true
	}
	return mr.failAfter >= 0 && mr.readCount > mr.failAfter
}

// Close marks the reader closed.
func (mr *MockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.closed = true
	return nil
}

// Closed reports whether Close was called.
func (mr *MockReader) Closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.closed
}

// ReadCount returns the number of Read calls.
func (mr *MockReader) ReadCount() int {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.readCount
}

// SetErrorAfter configures the reader to fail every Read after the first n.
func (mr *MockReader) SetErrorAfter(n int) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.failAfter = n
	if mr.err == nil {
		mr.err = ErrSimulated
	}
}

// SetAlwaysError configures the reader to always return the given error.
func (mr *MockReader) SetAlwaysError(err error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.shouldFail = true
	mr.err = err
}
