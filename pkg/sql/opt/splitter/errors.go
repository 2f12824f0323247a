// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// UnsupportedPartitionError is returned when no capability class can
// evaluate some expression of a program, so that the program cannot be split
// into stages.
type UnsupportedPartitionError struct {
	// Ordinals are the program expressions that could not be placed.
	Ordinals []int
	// Reason describes why no class accepted them.
	Reason string
}

var _ error = &UnsupportedPartitionError{}
var _ fmt.Formatter = &UnsupportedPartitionError{}
var _ errors.SafeFormatter = &UnsupportedPartitionError{}

// Error is part of the error interface, which UnsupportedPartitionError
// implements.
func (e *UnsupportedPartitionError) Error() string {
	return fmt.Sprint(e)
}

// Format is part of the fmt.Formatter interface, which
// UnsupportedPartitionError implements.
func (e *UnsupportedPartitionError) Format(s fmt.State, verb rune) {
	errors.FormatError(e, s, verb)
}

// SafeFormatError is part of the errors.SafeFormatter interface, which
// UnsupportedPartitionError implements. The expression ordinals are safe;
// the reason may quote expressions and is redactable.
func (e *UnsupportedPartitionError) SafeFormatError(p errors.Printer) (next error) {
	p.Printf("cannot split program: no class can implement expressions %v: %s",
		redact.Safe(e.Ordinals), e.Reason)
	return nil
}

// IsUnsupportedPartition returns true if err is, or wraps, an
// UnsupportedPartitionError.
func IsUnsupportedPartition(err error) bool {
	var upe *UnsupportedPartitionError
	return errors.As(err, &upe)
}
