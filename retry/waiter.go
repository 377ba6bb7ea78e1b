// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/dispatchx/request"
)

// A Waiter specifies how long to wait before retrying a failed request
// attempt.
//
// Implementations of Waiter must be safe for concurrent use by
// multiple goroutines.
//
// The dispatcher will not call the Waiter on a retry policy if the
// policy's Decider returned false, and a server-supplied retry-after
// hint overrides the Waiter's value when the hint is larger.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter is the default retry wait policy. It uses jittered
// exponential backoff with a base wait of 50 milliseconds, a maximum
// wait of 1 second, and a jitter fraction of 0.2.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, 0.2, time.Now())

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
//
// Use NewFixedWaiter to obtain a constant retry backoff.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing capped exponential
// backoff with proportional jitter.
//
// The un-jittered wait after the n-th attempt (1-based) is:
//
//	ceil := min(max, base * 2**(n-1))
//
// and the jittered wait is ceil multiplied by a factor sampled
// uniformly from [1-fraction, 1+fraction], clamped to be non-negative.
// Exponential growth bounds total wasted time under a sustained
// outage, the cap prevents unbounded waits, and jitter spreads out
// retries from many dispatchers so they do not synchronize into
// storms.
//
// Base and max must be positive values, max must be at least equal to
// base, and fraction must lie in [0, 1). A fraction of zero produces a
// fully deterministic waiter.
//
// Parameter jitter seeds the random factor. It may be nil (seed from
// the current time), a seed value (time.Time, int, or int64), or a
// random number source (rand.Source or *rand.Rand).
func NewExpWaiter(base, max time.Duration, fraction float64, jitter interface{}) Waiter {
	if base < 1 {
		panic("dispatchx/retry: base must be positive")
	}
	if max < base {
		panic("dispatchx/retry: max must be at least base")
	}
	if fraction < 0.0 || fraction >= 1.0 {
		panic("dispatchx/retry: fraction must be in [0, 1)")
	}
	return &jitterExpWaiter{
		base:     base,
		max:      max,
		fraction: fraction,
		rand:     jitterToRand(jitter),
	}
}

type jitterExpWaiter struct {
	base     time.Duration
	max      time.Duration
	fraction float64
	rand     *rand.Rand
	lock     sync.Mutex
}

func (w *jitterExpWaiter) Wait(e *request.Execution) time.Duration {
	n := e.Attempt
	if n < 1 {
		n = 1
	}

	exp := int64(1) << (n - 1)
	if exp < 1 {
		exp = 1<<63 - 1
	}

	ceil := int64(w.base) * exp
	if ceil/exp != int64(w.base) || int64(w.max) < ceil {
		ceil = int64(w.max)
	}

	if w.fraction == 0 {
		return time.Duration(ceil)
	}

	w.lock.Lock()
	factor := 1 - w.fraction + 2*w.fraction*w.rand.Float64()
	w.lock.Unlock()

	duration := time.Duration(float64(ceil) * factor)
	if duration < 0 {
		duration = 0
	}
	return duration
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		s = rand.NewSource(time.Now().UnixNano())
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("dispatchx/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("dispatchx/retry: invalid jitter type")
	}
	return rand.New(s)
}
