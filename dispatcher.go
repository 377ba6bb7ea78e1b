// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

import (
	"context"
	"errors"
	"time"

	"github.com/gogama/dispatchx/auth"
	"github.com/gogama/dispatchx/outcome"
	"github.com/gogama/dispatchx/request"
	"github.com/gogama/dispatchx/retry"
	"github.com/gogama/dispatchx/timeout"
)

var emptyHandlers = HandlerGroup{}

var defaultTransport Transport = &HTTPTransport{}

// A Dispatcher issues outbound requests on behalf of a caller, masking
// retry, timeout, credential-injection, and error-classification logic
// behind the Send method. Its zero value is a valid configuration.
//
// The zero value dispatcher uses an HTTPTransport over
// http.DefaultClient as the Transport, retry.DefaultPolicy as the
// retry policy, timeout.DefaultPolicy as the timeout policy, auth.None
// as the injector, and an empty handler group.
//
// A Dispatcher is stateless between dispatches: the only shared
// mutable state is whatever credential its auth.Injector holds. It is
// safe for concurrent use by multiple goroutines, and instances should
// be reused so that transport connections and cached credentials are
// shared.
type Dispatcher struct {
	// Transport specifies the mechanics of executing a single request
	// attempt.
	//
	// If Transport is nil, an HTTPTransport over http.DefaultClient is
	// used.
	Transport Transport
	// RetryPolicy decides when to retry failed attempts and how long
	// to sleep after a failed attempt before retrying.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// request attempts. A request carrying its own AttemptTimeout
	// overrides the policy for that dispatch.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Auth attaches credentials to each attempt's request.
	//
	// If Auth is nil, no credentials are attached.
	Auth auth.Injector
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a dispatch.
	//
	// If Handlers is nil, no custom handlers are run.
	Handlers *HandlerGroup

	// sleep is the backoff sleep; tests replace it to avoid real
	// waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Send dispatches a request and returns the first successful result,
// following the retry, timeout, and auth policy set on the Dispatcher.
//
// On each attempt, Send attaches credentials through the injector,
// invokes the Transport within the per-attempt timeout, and classifies
// the raw result. A Success outcome returns the result immediately.
// Any other outcome is put to the retry policy; if it says retry, Send
// sleeps through the backoff delay (or the server's Retry-After hint,
// when larger) and tries again, and otherwise it returns a
// *DispatchError.
//
// The overall deadline is whichever of the ctx deadline and the
// request's Deadline field is earlier. When it elapses, Send returns
// immediately with a DeadlineExceeded error, attempting no further
// calls and cutting short any backoff sleep in progress; cancelling
// ctx behaves the same way with a Cancelled error.
//
// The returned error, when non-nil, is always a *DispatchError
// carrying the full ordered attempt history. The caller's request is
// never modified; per-attempt credential injection happens on copies.
func (d *Dispatcher) Send(ctx context.Context, req *request.Request) (*request.Result, error) {
	if req == nil {
		panic("dispatchx: nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	transport := d.transport()
	retryPolicy := d.retryPolicy()
	timeoutPolicy := d.timeoutPolicy()
	injector := d.injector()
	handlers := d.handlers()

	e := request.NewExecution(ctx, req)
	handlers.run(BeforeSend, e)
	e.Start = time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return nil, d.terminal(e, handlers, err)
		}

		e.Attempt++
		d.attempt(ctx, e, transport, injector, timeoutPolicy, handlers)
		e.History = append(e.History, outcome.Attempt{Index: e.Attempt, Outcome: e.Outcome})
		if e.Outcome.Kind == outcome.Timeout {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)

		if e.Outcome.OK() {
			res := e.Result
			e.End = time.Now()
			handlers.run(AfterSend, e)
			return res, nil
		}

		// An attempt cut short by the overall deadline classifies as a
		// Timeout; the dispatch-level error takes precedence.
		if err := ctx.Err(); err != nil {
			return nil, d.terminal(e, handlers, err)
		}

		if !retryPolicy.Decide(e) {
			return nil, d.stop(e, handlers, retryPolicy)
		}

		if e.Outcome.Kind == outcome.AuthFailure && e.Err == nil {
			// The server rejected the credential. Discard it so the
			// retry attaches a fresh one.
			if inv, ok := injector.(interface{ Invalidate() }); ok {
				inv.Invalidate()
			}
		}

		wait := retryPolicy.Wait(e)
		if hint := e.Outcome.RetryAfter; hint > wait {
			wait = hint
		}
		e.History[len(e.History)-1].Wait = wait
		if err := d.backoff(ctx, wait); err != nil {
			return nil, d.terminal(e, handlers, err)
		}

		e.Result = nil
		e.Err = nil
		e.Outcome = outcome.Outcome{}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, e *request.Execution, transport Transport, injector auth.Injector, timeoutPolicy timeout.Policy, handlers *HandlerGroup) {
	e.AttemptStart = time.Now()

	areq, err := injector.Attach(ctx, e.Request)
	if err != nil {
		e.AttemptRequest = nil
		e.Result = nil
		e.Err = err
		e.Outcome = outcome.Outcome{Kind: outcome.AuthFailure, Err: err}
		return
	}
	e.AttemptRequest = areq

	to := e.Request.AttemptTimeout
	if to <= 0 {
		to = timeoutPolicy.Timeout(e)
	}
	actx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	handlers.run(BeforeAttempt, e)

	res, err := transport.Do(actx, e.AttemptRequest)
	if err != nil {
		e.Result = nil
		e.Err = err
		e.Outcome = outcome.Classify(nil, err)
		return
	}
	e.Result = res
	e.Err = nil
	e.Outcome = outcome.Classify(res, nil)
}

// terminal ends the dispatch on a context deadline or cancellation.
func (d *Dispatcher) terminal(e *request.Execution, handlers *HandlerGroup, ctxErr error) error {
	kind := Cancelled
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		kind = DeadlineExceeded
		handlers.run(AfterDeadline, e)
	}
	return d.fail(e, handlers, kind, ctxErr)
}

// stop ends the dispatch on a negative retry decision.
func (d *Dispatcher) stop(e *request.Execution, handlers *HandlerGroup, retryPolicy retry.Policy) error {
	// Distinguish exhaustion from a non-retryable outcome by asking
	// whether the same outcome below the attempt ceiling would have
	// been retried.
	probe := *e
	probe.Attempt = 0
	kind := NonRetryable
	if retryPolicy.Decide(&probe) {
		kind = ExhaustedRetries
	}
	return d.fail(e, handlers, kind, e.Outcome.Err)
}

func (d *Dispatcher) fail(e *request.Execution, handlers *HandlerGroup, kind TerminalKind, cause error) error {
	derr := &DispatchError{Kind: kind, Attempts: e.History, Cause: cause}
	e.Err = derr
	e.End = time.Now()
	handlers.run(AfterSend, e)
	return derr
}

func (d *Dispatcher) backoff(ctx context.Context, wait time.Duration) error {
	if d.sleep != nil {
		return d.sleep(ctx, wait)
	}
	return sleep(ctx, wait)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) transport() Transport {
	if d.Transport == nil {
		return defaultTransport
	}
	return d.Transport
}

func (d *Dispatcher) retryPolicy() retry.Policy {
	if d.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return d.RetryPolicy
}

func (d *Dispatcher) timeoutPolicy() timeout.Policy {
	if d.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return d.TimeoutPolicy
}

func (d *Dispatcher) injector() auth.Injector {
	if d.Auth == nil {
		return auth.None
	}
	return d.Auth
}

func (d *Dispatcher) handlers() *HandlerGroup {
	if d.Handlers == nil {
		return &emptyHandlers
	}
	return d.Handlers
}
