// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/dispatchx/auth"
	"github.com/gogama/dispatchx/outcome"
	"github.com/gogama/dispatchx/request"
	"github.com/gogama/dispatchx/retry"
)

// A step scripts the result of one transport invocation. If the script
// is shorter than the number of invocations, the last step repeats.
type step struct {
	res   *request.Result
	err   error
	delay time.Duration
}

type scriptTransport struct {
	mu    sync.Mutex
	steps []step
	reqs  []*request.Request
}

func (t *scriptTransport) Do(ctx context.Context, req *request.Request) (*request.Result, error) {
	t.mu.Lock()
	i := len(t.reqs)
	t.reqs = append(t.reqs, req)
	if i >= len(t.steps) {
		i = len(t.steps) - 1
	}
	s := t.steps[i]
	t.mu.Unlock()
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func (t *scriptTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reqs)
}

func status(code int, headers ...request.Header) step {
	return step{res: &request.Result{Status: code, Headers: headers}}
}

func newReq(t *testing.T) *request.Request {
	t.Helper()
	req, err := request.New("GET", "http://test.example.com/things", nil)
	require.NoError(t, err)
	return req
}

func policy(t *testing.T, maxAttempts int) retry.Policy {
	t.Helper()
	p, err := retry.Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    80 * time.Millisecond,
	}.Policy()
	require.NoError(t, err)
	return p
}

// recordSleep replaces the dispatcher's backoff sleep and records the
// requested waits without actually waiting.
func recordSleep(d *Dispatcher) *[]time.Duration {
	var waits []time.Duration
	d.sleep = func(_ context.Context, w time.Duration) error {
		waits = append(waits, w)
		return nil
	}
	return &waits
}

func TestSendFirstAttemptSuccess(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 3)}
	waits := recordSleep(d)

	res, err := d.Send(context.Background(), newReq(t))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, 1, transport.calls())
	assert.Empty(t, *waits)
}

func TestSendRetriesUntilSuccess(t *testing.T) {
	// ServerError, ServerError, Success with a ceiling of 3 returns
	// the success, with a history of 3 attempts and 2 recorded delays.
	transport := &scriptTransport{steps: []step{status(503), status(503), status(200)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 3)}
	waits := recordSleep(d)

	var final *request.Execution
	handlers := &HandlerGroup{}
	handlers.PushBack(AfterSend, HandlerFunc(func(_ Event, e *request.Execution) {
		final = e
	}))
	d.Handlers = handlers

	res, err := d.Send(context.Background(), newReq(t))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, 3, transport.calls())

	require.NotNil(t, final)
	require.Len(t, final.History, 3)
	assert.Equal(t, outcome.ServerError, final.History[0].Outcome.Kind)
	assert.Equal(t, outcome.ServerError, final.History[1].Outcome.Kind)
	assert.Equal(t, outcome.Success, final.History[2].Outcome.Kind)
	assert.Equal(t, []int{1, 2, 3}, []int{final.History[0].Index, final.History[1].Index, final.History[2].Index})

	// Exponential: 10ms then 20ms, recorded both in the history and in
	// the sleeps actually taken.
	require.Len(t, *waits, 2)
	assert.Equal(t, 10*time.Millisecond, (*waits)[0])
	assert.Equal(t, 20*time.Millisecond, (*waits)[1])
	assert.Equal(t, 10*time.Millisecond, final.History[0].Wait)
	assert.Equal(t, 20*time.Millisecond, final.History[1].Wait)
	assert.Zero(t, final.History[2].Wait)
}

func TestSendNonRetryable(t *testing.T) {
	// A non-retryable outcome at attempt 1 fails immediately,
	// regardless of the attempt ceiling.
	transport := &scriptTransport{steps: []step{status(404)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 3)}
	waits := recordSleep(d)

	res, err := d.Send(context.Background(), newReq(t))
	assert.Nil(t, res)
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, NonRetryable, de.Kind)
	require.Len(t, de.Attempts, 1)
	assert.Equal(t, outcome.ClientError, de.Attempts[0].Outcome.Kind)
	assert.Equal(t, 404, de.Attempts[0].Outcome.Status)
	assert.Equal(t, 1, transport.calls())
	assert.Empty(t, *waits)
}

func TestSendExhaustedRetries(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(503)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 3)}
	waits := recordSleep(d)

	_, err := d.Send(context.Background(), newReq(t))
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ExhaustedRetries, de.Kind)
	assert.Len(t, de.Attempts, 3)
	assert.Equal(t, 3, transport.calls())
	assert.Len(t, *waits, 2)

	last, ok := de.Last()
	require.True(t, ok)
	assert.Equal(t, outcome.ServerError, last.Outcome.Kind)
	assert.Equal(t, 503, last.Outcome.Status)
}

func TestSendRetryAfterOverride(t *testing.T) {
	t.Run("larger hint wins", func(t *testing.T) {
		transport := &scriptTransport{steps: []step{
			status(429, request.Header{Name: "Retry-After", Value: "5"}),
			status(200),
		}}
		d := &Dispatcher{
			Transport:   transport,
			RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(time.Second)),
		}
		waits := recordSleep(d)

		_, err := d.Send(context.Background(), newReq(t))
		require.NoError(t, err)
		require.Len(t, *waits, 1)
		assert.Equal(t, 5*time.Second, (*waits)[0])
	})
	t.Run("smaller hint loses", func(t *testing.T) {
		transport := &scriptTransport{steps: []step{
			status(429, request.Header{Name: "Retry-After", Value: "0"}),
			status(200),
		}}
		d := &Dispatcher{
			Transport:   transport,
			RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(time.Second)),
		}
		waits := recordSleep(d)

		_, err := d.Send(context.Background(), newReq(t))
		require.NoError(t, err)
		require.Len(t, *waits, 1)
		assert.Equal(t, time.Second, (*waits)[0])
	})
}

func TestSendDeadlineBeforeFirstAttempt(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{Transport: transport}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := d.Send(ctx, newReq(t))
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DeadlineExceeded, de.Kind)
	assert.Empty(t, de.Attempts)
	assert.Zero(t, transport.calls(), "no attempt may start past the deadline")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendRequestDeadlineField(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{Transport: transport}

	req := newReq(t)
	req.Deadline = time.Now().Add(-time.Second)

	_, err := d.Send(context.Background(), req)
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DeadlineExceeded, de.Kind)
	assert.Zero(t, transport.calls())
}

func TestSendCancelledDuringBackoff(t *testing.T) {
	// A cancellation during the backoff sleep wakes the loop
	// immediately; the history reflects only completed attempts.
	transport := &scriptTransport{steps: []step{status(503)}}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(10*time.Second)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := d.Send(ctx, newReq(t))
	elapsed := time.Since(start)

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Cancelled, de.Kind)
	assert.Len(t, de.Attempts, 1)
	assert.Equal(t, 1, transport.calls(), "no further attempt after cancellation")
	assert.Less(t, elapsed, 5*time.Second, "cancellation must cut the sleep short")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendDeadlineDuringBackoff(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(503)}}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(10*time.Second)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := d.Send(ctx, newReq(t))
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DeadlineExceeded, de.Kind)
	assert.Len(t, de.Attempts, 1)
}

func TestSendAttemptTimeout(t *testing.T) {
	// The per-attempt timeout on the request bounds each transport
	// invocation; the slow attempt classifies as a Timeout.
	transport := &scriptTransport{steps: []step{{delay: 10 * time.Second}, status(200)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 2)}
	waits := recordSleep(d)

	req := newReq(t)
	req.AttemptTimeout = 20 * time.Millisecond

	var timeouts int
	handlers := &HandlerGroup{}
	handlers.PushBack(AfterAttemptTimeout, HandlerFunc(func(_ Event, _ *request.Execution) {
		timeouts++
	}))
	d.Handlers = handlers

	res, err := d.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, 2, transport.calls())
	assert.Equal(t, 1, timeouts)
	assert.Len(t, *waits, 1)
}

type seqProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *seqProvider) Refresh(_ context.Context) (auth.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return auth.Token{Value: fmt.Sprintf("t%d", p.calls), Expiry: time.Now().Add(time.Hour)}, nil
}

func TestSendAuthFailureRefreshRetry(t *testing.T) {
	// A 401 invalidates the credential, so the single permitted retry
	// runs with a freshly refreshed token.
	transport := &scriptTransport{steps: []step{status(401), status(200)}}
	provider := &seqProvider{}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: policy(t, 3),
		Auth:        auth.NewBearerRefresh(provider, 0),
	}
	recordSleep(d)

	res, err := d.Send(context.Background(), newReq(t))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	require.Equal(t, 2, transport.calls())
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, "Bearer t1", transport.reqs[0].Headers.Get("Authorization"))
	assert.Equal(t, "Bearer t2", transport.reqs[1].Headers.Get("Authorization"))
}

func TestSendSecondConsecutiveAuthFailure(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(401)}}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: policy(t, 5),
		Auth:        auth.Static("tok"),
	}
	recordSleep(d)

	_, err := d.Send(context.Background(), newReq(t))
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, NonRetryable, de.Kind)
	assert.Len(t, de.Attempts, 2)
	assert.Equal(t, outcome.AuthFailure, de.Attempts[0].Outcome.Kind)
	assert.Equal(t, outcome.AuthFailure, de.Attempts[1].Outcome.Kind)
	assert.Equal(t, 2, transport.calls())
}

type failingInjector struct {
	err error
}

func (f failingInjector) Attach(_ context.Context, _ *request.Request) (*request.Request, error) {
	return nil, f.err
}

func TestSendAttachFailure(t *testing.T) {
	// An injection failure consumes an attempt without touching the
	// transport, and gets the same single-retry allowance as any other
	// auth failure.
	cause := errors.New("refresh exploded")
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: policy(t, 5),
		Auth:        failingInjector{err: cause},
	}
	recordSleep(d)

	_, err := d.Send(context.Background(), newReq(t))
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, NonRetryable, de.Kind)
	assert.Len(t, de.Attempts, 2)
	assert.Zero(t, transport.calls())
	assert.ErrorIs(t, err, cause)
}

func TestSendConcurrentSharedInjector(t *testing.T) {
	// Ten concurrent dispatches sharing one injector with an absent
	// credential trigger exactly one provider refresh.
	const n = 10
	var calls int32
	provider := auth.TokenProviderFunc(func(_ context.Context) (auth.Token, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return auth.Token{Value: "shared", Expiry: time.Now().Add(time.Hour)}, nil
	})
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{
		Transport:   transport,
		RetryPolicy: policy(t, 3),
		Auth:        auth.NewBearerRefresh(provider, 0),
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.Send(context.Background(), newReq(t))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "send %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, n, transport.calls())
}

func TestSendEventOrder(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(503), status(200)}}
	d := &Dispatcher{Transport: transport, RetryPolicy: policy(t, 3)}
	recordSleep(d)

	var events []Event
	handlers := &HandlerGroup{}
	for _, evt := range Events() {
		evt := evt
		handlers.PushBack(evt, HandlerFunc(func(e Event, _ *request.Execution) {
			events = append(events, e)
		}))
	}
	d.Handlers = handlers

	_, err := d.Send(context.Background(), newReq(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		BeforeSend,
		BeforeAttempt,
		AfterAttempt,
		BeforeAttempt,
		AfterAttempt,
		AfterSend,
	}, events)
}

func TestSendCallerRequestNotMutated(t *testing.T) {
	transport := &scriptTransport{steps: []step{status(200)}}
	d := &Dispatcher{Transport: transport, Auth: auth.Static("tok")}

	req := newReq(t)
	_, err := d.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, req.Headers, "dispatch must not mutate the caller's request")
	require.Equal(t, 1, transport.calls())
	assert.Equal(t, "Bearer tok", transport.reqs[0].Headers.Get("Authorization"))
}

func TestSendNilRequestPanics(t *testing.T) {
	d := &Dispatcher{}
	assert.Panics(t, func() {
		_, _ = d.Send(context.Background(), nil)
	})
}

func TestDispatchErrorMessage(t *testing.T) {
	de := &DispatchError{
		Kind: ExhaustedRetries,
		Attempts: []outcome.Attempt{
			{Index: 1, Outcome: outcome.Outcome{Kind: outcome.ServerError, Status: 503}},
		},
	}
	msg := de.Error()
	assert.Contains(t, msg, "ExhaustedRetries")
	assert.Contains(t, msg, "1 attempt(s)")
	assert.Contains(t, msg, "ServerError")
	assert.Contains(t, msg, "503")

	cause := errors.New("kaboom")
	de = &DispatchError{Kind: Cancelled, Cause: cause}
	assert.Contains(t, de.Error(), "kaboom")
	assert.Same(t, cause, de.Unwrap())
	_, ok := de.Last()
	assert.False(t, ok)
}
