// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package dispatchprom exports Prometheus metrics for dispatch
// activity. Install its handler on a dispatcher to count attempts and
// dispatches by outcome and to observe attempt latency and backoff
// waits.
package dispatchprom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogama/dispatchx"
	"github.com/gogama/dispatchx/request"
)

var (
	// Attempts counts request attempts by outcome kind.
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchx_attempts_total",
			Help: "Total number of request attempts",
		},
		[]string{"kind"},
	)

	// Sends counts finished dispatches by result.
	Sends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchx_sends_total",
			Help: "Total number of finished dispatches",
		},
		[]string{"result"},
	)

	// AttemptDuration tracks per-attempt latency by outcome kind.
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatchx_attempt_duration_seconds",
			Help:    "Request attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// RetryWait tracks the backoff delays inserted between attempts.
	RetryWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatchx_retry_wait_seconds",
			Help:    "Backoff wait inserted before a retry, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// NewHandler returns an event handler that feeds the package metrics.
// Install it with Install, or push it onto the AfterAttempt and
// AfterSend chains of a HandlerGroup yourself.
func NewHandler() dispatchx.Handler {
	return handler{}
}

// Install installs a metrics handler on the events it consumes.
func Install(g *dispatchx.HandlerGroup) {
	h := NewHandler()
	g.PushBack(dispatchx.AfterAttempt, h)
	g.PushBack(dispatchx.AfterSend, h)
}

type handler struct{}

func (handler) Handle(evt dispatchx.Event, e *request.Execution) {
	switch evt {
	case dispatchx.AfterAttempt:
		kind := e.Outcome.Kind.String()
		Attempts.WithLabelValues(kind).Inc()
		AttemptDuration.WithLabelValues(kind).Observe(attemptSeconds(e))
	case dispatchx.AfterSend:
		result := "success"
		if e.Err != nil {
			result = "failure"
		}
		Sends.WithLabelValues(result).Inc()
		for _, a := range e.History {
			if a.Wait > 0 {
				RetryWait.Observe(a.Wait.Seconds())
			}
		}
	}
}

func attemptSeconds(e *request.Execution) float64 {
	if e.AttemptStart.IsZero() {
		return 0
	}
	return time.Since(e.AttemptStart).Seconds()
}
