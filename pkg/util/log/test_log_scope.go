// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"sync"
	"testing"
)

// TestLogScope represents the lifetime of a logging output redirection for a
// test. Entries logged while the scope is open are captured in memory and
// dumped into the test output if the test fails.
type TestLogScope struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	restore func()
}

// Scope redirects the log output into a buffer owned by the returned scope.
// Use it as:
//
//	defer log.Scope(t).Close(t)
func Scope(t testing.TB) *TestLogScope {
	s := &TestLogScope{}
	s.restore = SetOutput(s)
	return s
}

// Write implements io.Writer.
func (s *TestLogScope) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// String returns everything logged within the scope so far.
func (s *TestLogScope) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Close restores the previous output. If the test failed, the captured log is
// written to the test output.
func (s *TestLogScope) Close(t testing.TB) {
	s.restore()
	if t.Failed() {
		t.Logf("captured log:\n%s", s.String())
	}
}
