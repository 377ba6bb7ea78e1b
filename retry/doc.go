// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retry controls if and how failed request attempts are retried
during a dispatch.

A retry Policy is composed of a Decider, which decides whether the
most recent attempt should be retried, and a Waiter, which computes
the backoff delay to insert before the next attempt. Simple deciders
built with MaxAttempts, KindIn, StatusCodes, and Before can be
composed into complex decision trees using DeciderFunc.And and
DeciderFunc.Or.

For configuration-driven use, Config captures the common knobs
(attempt ceiling, backoff base and cap, jitter fraction, retryable
outcome kinds) and builds an equivalent Policy.
*/
package retry
