// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogama/dispatchx/outcome"
)

// A Config captures the common retry knobs in declarative form. Use
// Config when policy comes from configuration rather than code;
// Config.Policy builds the equivalent composed Policy.
type Config struct {
	// MaxAttempts is the hard ceiling on the total number of attempts,
	// including the initial one. It must be at least 1; a value of 1
	// disables retries.
	MaxAttempts int

	// BaseDelay is the backoff delay after the first failed attempt.
	// It must be positive.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff growth. It must be at
	// least BaseDelay.
	MaxDelay time.Duration

	// JitterFraction spreads each computed delay by a uniformly
	// sampled factor in [1-JitterFraction, 1+JitterFraction]. It must
	// lie in [0, 1); zero disables jitter.
	JitterFraction float64

	// Retryable lists the outcome kinds to retry. A nil slice means
	// DefaultRetryable. Regardless of the list, a single
	// non-consecutive AuthFailure is retried per AuthRetry.
	Retryable []outcome.Kind

	// Jitter optionally seeds the jitter source, accepting the same
	// values as NewExpWaiter. A nil value seeds from the current time.
	Jitter interface{}
}

// DefaultConfig returns a Config equivalent to DefaultPolicy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    DefaultAttempts,
		BaseDelay:      50 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		JitterFraction: 0.2,
	}
}

// Validate checks the configuration invariants and returns an error
// describing the first violation found, or nil if the configuration is
// valid.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("dispatchx/retry: MaxAttempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 1 {
		return errors.New("dispatchx/retry: BaseDelay must be positive")
	}
	if c.MaxDelay < c.BaseDelay {
		return errors.New("dispatchx/retry: MaxDelay must be at least BaseDelay")
	}
	if c.JitterFraction < 0.0 || c.JitterFraction >= 1.0 {
		return errors.New("dispatchx/retry: JitterFraction must be in [0, 1)")
	}
	return nil
}

// Policy builds the retry Policy described by the configuration. It
// returns an error if the configuration is invalid.
func (c Config) Policy() (Policy, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	retryable := c.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	d := MaxAttempts(c.MaxAttempts).And(KindIn(retryable...).Or(AuthRetry))
	w := NewExpWaiter(c.BaseDelay, c.MaxDelay, c.JitterFraction, c.Jitter)
	return NewPolicy(d, w), nil
}
