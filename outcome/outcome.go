// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package outcome

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// A Response is the classifier's view of a transport-level response.
// It is implemented by request.Result.
type Response interface {
	// StatusCode returns the protocol status code of the response.
	StatusCode() int
	// RetryAfter returns the server-supplied retry-after hint, if the
	// response carries one.
	RetryAfter() (time.Duration, bool)
}

// An Outcome is the classified result of one request attempt.
type Outcome struct {
	// Kind is the classification of the attempt.
	Kind Kind
	// Status is the protocol status code received, if a response was
	// received at all. It is zero when the attempt ended in a
	// transport error.
	Status int
	// RetryAfter is the server-supplied retry-after hint, or zero if
	// the response carried none. It is only ever non-zero for
	// RateLimited and ServerError outcomes.
	RetryAfter time.Duration
	// Err is the transport or injection error that ended the attempt,
	// or nil if a response was received.
	Err error
}

// OK reports whether the outcome is a Success.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// An Attempt records one completed request attempt within a dispatch.
// The ordered sequence of attempts forms the attempt history returned
// to the caller on terminal failure.
type Attempt struct {
	// Index is the 1-based index of the attempt within the dispatch.
	Index int
	// Outcome is the classified result of the attempt.
	Outcome Outcome
	// Wait is the backoff delay applied after this attempt and before
	// the next one. It is zero for the final attempt of a dispatch.
	Wait time.Duration
}

// Classify maps the raw result of a request attempt into an Outcome.
//
// Exactly one of res and err is expected to be meaningful: transports
// return a response or an error, never both. If err is non-nil it is
// classified and res is ignored. If both are nil the outcome is
// Unknown.
//
// Classify is a pure function: it performs no I/O and never mutates
// its arguments.
func Classify(res Response, err error) Outcome {
	if err != nil {
		return Outcome{Kind: classifyErr(err), Err: err}
	}
	if res == nil {
		return Outcome{Kind: Unknown}
	}
	return classifyStatus(res)
}

func classifyErr(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var hasTimeout interface{ Timeout() bool }
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ConnectionFailure
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED, syscall.EPIPE:
			return ConnectionFailure
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionFailure
	}

	return Unknown
}

func classifyStatus(res Response) Outcome {
	o := Outcome{Status: res.StatusCode()}
	switch {
	case o.Status == 401 || o.Status == 403:
		// Takes precedence over the generic 4XX band.
		o.Kind = AuthFailure
	case o.Status == 429:
		o.Kind = RateLimited
		if hint, ok := res.RetryAfter(); ok {
			o.RetryAfter = hint
		}
	case 200 <= o.Status && o.Status < 400:
		o.Kind = Success
	case 400 <= o.Status && o.Status < 500:
		o.Kind = ClientError
	case 500 <= o.Status && o.Status < 600:
		o.Kind = ServerError
		if hint, ok := res.RetryAfter(); ok {
			o.RetryAfter = hint
		}
	default:
		o.Kind = Unknown
	}
	return o
}
