// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log is the logging facade used by the optimizer. Messages carry the
// log tags attached to their context (see github.com/cockroachdb/logtags) and
// are formatted through github.com/cockroachdb/redact so that unsafe values
// can be stripped before the log is shipped elsewhere.
package log

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/redact"
)

// Severity identifies the importance of a log entry.
type Severity int32

const (
	// SeverityInfo is used for informational and verbose messages.
	SeverityInfo Severity = iota
	// SeverityWarning is used for recoverable anomalies.
	SeverityWarning
	// SeverityError is used for failures that abort an operation.
	SeverityError
	// SeverityFatal is used for failures that abort the process.
	SeverityFatal
)

var severityChars = [...]byte{'I', 'W', 'E', 'F'}

func (s Severity) char() byte {
	if int(s) < len(severityChars) {
		return severityChars[s]
	}
	return '?'
}

// logging is the process-wide logger state.
var logging struct {
	verbosity atomic.Int32
	// redactable controls whether redaction markers are kept in the output.
	redactable atomic.Bool

	mu struct {
		sync.Mutex
		out          io.Writer
		exitOverride struct {
			f         func(int)
			hideStack bool
		}
	}
}

func init() {
	logging.mu.out = os.Stderr
}

// SetOutput redirects log entries to the given writer and returns a function
// that restores the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prev := logging.mu.out
	logging.mu.out = w
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.out = prev
	}
}

// SetVerbosity sets the verbosity level consulted by V and VEventf.
func SetVerbosity(level int32) {
	logging.verbosity.Store(level)
}

// SetRedactable controls whether redaction markers are preserved in the log
// output. By default they are stripped.
func SetRedactable(redactable bool) {
	logging.redactable.Store(redactable)
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int32) bool {
	return logging.verbosity.Load() >= level
}

// Safe marks a value as safe for reporting.
func Safe(v interface{}) redact.SafeValue {
	return redact.Safe(v)
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityInfo, format, args)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityWarning, format, args)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityError, format, args)
}

// Fatalf logs to the FATAL severity and then exits the process (or calls the
// function installed with SetExitFunc).
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityFatal, format, args)
	exit(1)
}

// VEventf logs an INFO message if the verbosity is at least the given level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		addStructured(ctx, SeverityInfo, format, args)
	}
}
