// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package dispatchlog emits structured logs for dispatch lifecycle
// events using zerolog. Install its handler on a dispatcher to get a
// debug log per attempt and an info or warn log per finished dispatch,
// without the dispatcher itself knowing anything about logging.
package dispatchlog

import (
	"github.com/rs/zerolog"

	"github.com/gogama/dispatchx"
	"github.com/gogama/dispatchx/request"
)

// NewHandler returns an event handler that logs dispatch activity to
// log. Install it with Install, or push it onto the AfterAttempt and
// AfterSend chains of a HandlerGroup yourself.
func NewHandler(log zerolog.Logger) dispatchx.Handler {
	return &handler{log: log}
}

// Install installs a logging handler on the events it consumes.
func Install(g *dispatchx.HandlerGroup, log zerolog.Logger) {
	h := NewHandler(log)
	g.PushBack(dispatchx.AfterAttempt, h)
	g.PushBack(dispatchx.AfterSend, h)
}

type handler struct {
	log zerolog.Logger
}

func (h *handler) Handle(evt dispatchx.Event, e *request.Execution) {
	switch evt {
	case dispatchx.AfterAttempt:
		h.attempt(e)
	case dispatchx.AfterSend:
		h.send(e)
	}
}

func (h *handler) attempt(e *request.Execution) {
	ev := h.log.Debug().
		Str("method", e.Request.Method).
		Stringer("url", e.Request.URL).
		Int("attempt", e.Attempt).
		Stringer("kind", e.Outcome.Kind).
		Dur("elapsed", e.Duration())
	if e.Outcome.Status != 0 {
		ev = ev.Int("status", e.Outcome.Status)
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	ev.Msg("attempt finished")
}

func (h *handler) send(e *request.Execution) {
	ev := h.log.Info()
	if e.Err != nil {
		ev = h.log.Warn().Err(e.Err)
	}
	ev.Str("method", e.Request.Method).
		Stringer("url", e.Request.URL).
		Int("attempts", len(e.History)).
		Dur("duration", e.Duration()).
		Msg("dispatch finished")
}
