// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package throttle bounds the local rate at which a dispatcher starts
// request attempts. Install its handler on a dispatcher to make every
// attempt, retries included, reserve a token from a shared
// rate.Limiter before it is sent. Throttling is a courtesy to the
// remote service and a complement to, not a replacement for, honoring
// its Retry-After hints.
package throttle

import (
	"golang.org/x/time/rate"

	"github.com/gogama/dispatchx"
	"github.com/gogama/dispatchx/request"
)

// NewHandler returns an event handler that blocks each attempt until
// limiter permits it. The wait respects the dispatch context: if the
// overall deadline or a cancellation fires while waiting, the wait
// ends and the attempt proceeds to fail on its context.
func NewHandler(limiter *rate.Limiter) dispatchx.Handler {
	if limiter == nil {
		panic("dispatchx/throttle: nil limiter")
	}
	return &handler{limiter: limiter}
}

// Install installs a throttling handler on the BeforeAttempt event.
func Install(g *dispatchx.HandlerGroup, limiter *rate.Limiter) {
	g.PushBack(dispatchx.BeforeAttempt, NewHandler(limiter))
}

type handler struct {
	limiter *rate.Limiter
}

func (h *handler) Handle(evt dispatchx.Event, e *request.Execution) {
	if evt != dispatchx.BeforeAttempt {
		return
	}
	// A wait error means the context is done or the deadline cannot
	// accommodate the wait; either way the attempt itself will fail
	// with the context's error, which is the error the caller should
	// see.
	_ = h.limiter.Wait(e.Context())
}
