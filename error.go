// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

import (
	"fmt"
	"strings"

	"github.com/gogama/dispatchx/outcome"
)

// A TerminalKind states why a dispatch ended in failure.
type TerminalKind int

const (
	// ExhaustedRetries indicates the final attempt failed with an
	// outcome the retry policy would have retried, but the attempt
	// ceiling was reached.
	ExhaustedRetries TerminalKind = iota
	// NonRetryable indicates the final attempt failed with an outcome
	// the retry policy does not retry.
	NonRetryable
	// DeadlineExceeded indicates the overall deadline on the dispatch
	// elapsed, either between attempts or during a backoff sleep.
	DeadlineExceeded
	// Cancelled indicates the context governing the dispatch was
	// cancelled.
	Cancelled

	terminalSentinel
)

var terminalNames = []string{
	"ExhaustedRetries",
	"NonRetryable",
	"DeadlineExceeded",
	"Cancelled",
}

// String returns the name of the terminal kind.
func (k TerminalKind) String() string {
	if k < 0 || k >= terminalSentinel {
		return "Invalid"
	}
	return terminalNames[int(k)]
}

// A DispatchError is the structured error a failed dispatch returns to
// the caller. It carries the full ordered attempt history, so callers
// can log or inspect every attempt's outcome without the dispatcher
// having to emit anything itself.
type DispatchError struct {
	// Kind states why the dispatch ended.
	Kind TerminalKind
	// Attempts is the ordered history of completed attempts. Attempts
	// never records more entries than the retry policy's ceiling; a
	// dispatch aborted before its first attempt carries an empty
	// history.
	Attempts []outcome.Attempt
	// Cause is the underlying error, when one exists: the last
	// attempt's transport or injection error, or the context error for
	// DeadlineExceeded and Cancelled. It is nil when the last attempt
	// failed on status code alone.
	Cause error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dispatchx: %s after %d attempt(s)", e.Kind, len(e.Attempts))
	if last, ok := e.Last(); ok {
		fmt.Fprintf(&b, " (last outcome %s", last.Outcome.Kind)
		if last.Outcome.Status != 0 {
			fmt.Fprintf(&b, ", status %d", last.Outcome.Status)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Last returns the record of the final attempt made, if at least one
// attempt completed.
func (e *DispatchError) Last() (outcome.Attempt, bool) {
	if len(e.Attempts) == 0 {
		return outcome.Attempt{}, false
	}
	return e.Attempts[len(e.Attempts)-1], true
}
