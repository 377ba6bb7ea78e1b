// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/dispatchx/outcome"
	"github.com/gogama/dispatchx/request"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors MaxAttempts, KindIn, StatusCodes, and
// Before, and the built-in decider AuthRetry; or implement your own.
// Use DeciderFunc to convert an ordinary function into a Decider, and
// to compose deciders logically via DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface,
// and also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(e *request.Execution) bool

// DefaultAttempts is the attempt ceiling of DefaultPolicy: up to 5
// attempts in total, in other words the initial attempt plus up to 4
// retries.
const DefaultAttempts = 5

// DefaultRetryable lists the outcome kinds DefaultPolicy retries
// unconditionally (up to the attempt ceiling). AuthFailure is absent
// from the list: it is handled by AuthRetry, which allows a single
// retry to absorb a just-expired credential but stops on a second
// consecutive auth failure. Unknown outcomes are never retried unless
// explicitly whitelisted.
var DefaultRetryable = []outcome.Kind{
	outcome.Timeout,
	outcome.ConnectionFailure,
	outcome.ServerError,
	outcome.RateLimited,
}

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultAttempts attempts, retrying
// the kinds in DefaultRetryable plus a single non-consecutive
// AuthFailure.
var DefaultDecider = MaxAttempts(DefaultAttempts).And(KindIn(DefaultRetryable...).Or(AuthRetry))

// AuthRetry is a decider that allows exactly one retry of an
// AuthFailure outcome, absorbing the race where a credential expires
// between injection and arrival at the server. It returns false when
// the previous attempt also ended in AuthFailure: a refreshed
// credential that is still rejected will not be fixed by another
// attempt.
var AuthRetry DeciderFunc = authRetry

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current dispatch execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns
// true if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// MaxAttempts constructs a retry decider which allows up to n attempts
// in total. The returned decider returns true while the 1-based
// attempt index e.Attempt is less than n, and false otherwise, making
// n a hard ceiling on the attempt history length.
func MaxAttempts(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// KindIn constructs a retry decider allowing retries based on the
// classified outcome kind of the most recent attempt. The returned
// decider returns true if the kind is contained in ks, and false
// otherwise.
func KindIn(ks ...outcome.Kind) DeciderFunc {
	ks2 := make([]outcome.Kind, len(ks))
	copy(ks2, ks)
	return func(e *request.Execution) bool {
		for _, k := range ks2 {
			if e.Outcome.Kind == k {
				return true
			}
		}
		return false
	}
}

// StatusCodes constructs a retry decider allowing retries based on the
// response status code. If the most recent attempt received a
// response whose status code is contained in ss, the decider returns
// true. Otherwise, it returns false.
func StatusCodes(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the dispatch. The
// returned decider returns true while the execution duration is less
// than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

func authRetry(e *request.Execution) bool {
	if e.Outcome.Kind != outcome.AuthFailure {
		return false
	}
	n := len(e.History)
	if n >= 2 && e.History[n-2].Outcome.Kind == outcome.AuthFailure {
		return false
	}
	return true
}
