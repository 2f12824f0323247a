// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"os"
	"runtime/debug"
)

// SetExitFunc allows setting a function that will be called to exit
// the process when a Fatal message is generated. The supplied bool,
// if true, suppresses the stack trace, which is useful for test
// callers wishing to keep the logs reasonably clean.
//
// Call with a nil function to undo.
func SetExitFunc(hideStack bool, f func(int)) {
	logging.mu.Lock()
	defer logging.mu.Unlock()

	logging.mu.exitOverride.f = f
	logging.mu.exitOverride.hideStack = hideStack
}

// ResetExitFunc undoes any prior call to SetExitFunc.
func ResetExitFunc() {
	logging.mu.Lock()
	defer logging.mu.Unlock()

	logging.mu.exitOverride.f = nil
	logging.mu.exitOverride.hideStack = false
}

func exit(code int) {
	logging.mu.Lock()
	f := logging.mu.exitOverride.f
	hideStack := logging.mu.exitOverride.hideStack
	out := logging.mu.out
	logging.mu.Unlock()

	if !hideStack {
		_, _ = out.Write(debug.Stack())
	}
	if f != nil {
		f(code)
		return
	}
	os.Exit(code)
}
