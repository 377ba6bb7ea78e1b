// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package dispatchx provides a resilient request dispatcher: it issues
outbound requests on behalf of a caller, masking retry, timeout,
credential-injection, and error-classification logic behind a small
API.

Create a Dispatcher to begin sending requests. The zero value is a
valid configuration, using an HTTP transport backed by
http.DefaultClient, the default retry and timeout policies, and no
credential injection.

	d := &dispatchx.Dispatcher{}
	req, err := request.New("GET", "https://api.example.com/things", nil)
	...
	res, err := d.Send(ctx, req)

On each dispatch the Dispatcher runs an attempt loop: it attaches
credentials through the configured auth.Injector, invokes the
Transport within the per-attempt timeout, classifies the raw result
into an outcome kind (package outcome), and consults the retry policy
(package retry), sleeping through a jittered exponential backoff
before the next attempt. A server-supplied Retry-After hint overrides
the computed backoff when it is larger. The loop is bounded two ways:
the retry policy's attempt ceiling is a hard cap, and an overall
deadline, set either on the context passed to Send or as
Request.Deadline, aborts the dispatch immediately, including during a
backoff sleep.

Callers receive either a response or a *DispatchError; raw transport
errors are never surfaced directly. A DispatchError carries the full
ordered attempt history for diagnosis:

	res, err := d.Send(ctx, req)
	var de *dispatchx.DispatchError
	if errors.As(err, &de) {
		for _, a := range de.Attempts {
			log.Printf("attempt %d: %s", a.Index, a.Outcome.Kind)
		}
	}

For control over retry decisions and timing, compose a policy from
package retry:

	policy, err := retry.Config{
		MaxAttempts:    3,
		BaseDelay:      100 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		JitterFraction: 0.2,
	}.Policy()
	...
	d := &dispatchx.Dispatcher{RetryPolicy: policy}

To authenticate requests, install an injector from package auth:

	d := &dispatchx.Dispatcher{
		Auth: auth.NewBearerRefresh(provider, 0),
	}

A Dispatcher is safe for concurrent use by multiple goroutines, and
instances should be reused: the underlying HTTP transport caches TCP
connections, and a refreshable credential is shared across dispatches.

Event handlers installed in a HandlerGroup observe the dispatch
lifecycle; packages dispatchlog, dispatchprom, and throttle provide
ready-made handlers for structured logging, metrics, and local send
throttling.
*/
package dispatchx
