// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"time"

	"github.com/gogama/dispatchx/outcome"
)

// An Execution represents the state of a single logical request
// dispatch.
//
// When a dispatch is requested, an Execution is created for it. The
// Execution is updated as the dispatch progresses, for example when an
// attempt's outcome becomes available or a retry is decided, and its
// state is visible to retry policies, timeout policies, and event
// handlers.
//
// Policies and event handlers may set values on an Execution using its
// SetValue method and read them back using the Value method. They
// should treat the structure's exported fields as read-only: the
// execution state is vital to the correct functioning of the dispatch
// loop.
type Execution struct {
	// Request specifies the logical request being dispatched. It is
	// never nil, and is never mutated during the dispatch.
	Request *Request

	// Start is the start time of the dispatch. It is assigned a
	// non-zero value when the dispatch starts and remains constant
	// thereafter.
	Start time.Time

	// End is the end time of the dispatch. It contains the zero value
	// until the dispatch ends.
	End time.Time

	// Attempt is the 1-based index of the current request attempt. It
	// is zero before the first attempt starts.
	Attempt int

	// AttemptStart is the start time of the current (or most recent)
	// request attempt.
	AttemptStart time.Time

	// AttemptRequest is the per-attempt copy of the request actually
	// handed to the transport, with credentials injected. It is set
	// before the BeforeAttempt event fires. It may alias Request when
	// no injection was needed.
	AttemptRequest *Request

	// AttemptTimeouts is the count of attempts within the dispatch
	// that ended in a Timeout outcome.
	AttemptTimeouts int

	// Result is the raw response received in the most recent attempt.
	// It is nil if the most recent attempt ended in an error, or while
	// an attempt is underway.
	Result *Result

	// Err is the transport or injection error that ended the most
	// recent attempt, or nil if the attempt produced a response.
	Err error

	// Outcome is the classified result of the most recent attempt. Its
	// kind is only meaningful once at least one attempt has completed.
	Outcome outcome.Outcome

	// History is the ordered record of completed attempts, including
	// the most recent one. Its length never exceeds the retry policy's
	// attempt ceiling.
	History []outcome.Attempt

	// ctx is the context governing the entire dispatch, including any
	// overall deadline. It is set when the Execution is created.
	ctx context.Context

	// data contains arbitrary user data attached via SetValue.
	data context.Context
}

// NewExecution returns an Execution for a dispatch of req governed by
// ctx.
func NewExecution(ctx context.Context, req *Request) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Execution{Request: req, ctx: ctx}
}

// Context returns the context governing the dispatch. The returned
// context is never nil.
func (e *Execution) Context() context.Context {
	if e.ctx != nil {
		return e.ctx
	}
	return context.Background()
}

// StatusCode returns the status code of the response from the most
// recent request attempt, or 0 if there is no response.
func (e *Execution) StatusCode() int {
	if e.Result == nil {
		return 0
	}
	return e.Result.Status
}

// Duration returns the duration of the dispatch so far, or its total
// duration once it has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return 0
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the dispatch has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the dispatch has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether the most recent attempt ended in a
// Timeout outcome.
func (e *Execution) Timeout() bool {
	return e.Outcome.Kind == outcome.Timeout
}

// SetValue allows policies and event handlers to store arbitrary data
// in the execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type, to avoid collisions between
// unrelated handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	if e.data == nil {
		return nil
	}
	return e.data.Value(key)
}
