// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	var buf strings.Builder
	formatTags(ctx, &buf)
	fmt.Fprintf(&buf, format, args...)
	return buf.String()
}

// formatTags appends the context's log tags, in brackets, to the buffer.
// Nothing is written if the context carries no tags.
func formatTags(ctx context.Context, buf *strings.Builder) {
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return
	}
	buf.WriteByte('[')
	for i, t := range tags.Get() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t.Key())
		if v := t.ValueStr(); v != "" {
			// Single-letter keys are printed without a separator, e.g. "n1".
			if len(t.Key()) > 1 {
				buf.WriteByte('=')
			}
			buf.WriteString(v)
		}
	}
	buf.WriteString("] ")
}

// addStructured creates a structured log entry and writes it to the current
// output.
func addStructured(ctx context.Context, sev Severity, format string, args []interface{}) {
	msg := redact.Sprintf(format, args...)
	var body string
	if logging.redactable.Load() {
		body = string(msg)
	} else {
		body = msg.StripMarkers()
	}

	var buf strings.Builder
	buf.WriteByte(sev.char())
	buf.WriteString(time.Now().UTC().Format("060102 15:04:05.000000"))
	buf.WriteByte(' ')
	formatTags(ctx, &buf)
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}

	logging.mu.Lock()
	defer logging.mu.Unlock()
	_, _ = logging.mu.out.Write([]byte(buf.String()))
}
