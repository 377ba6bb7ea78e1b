// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

import (
	"context"
	"io"
	"net/http"
	"sort"

	"github.com/gogama/dispatchx/request"
)

// A Transport executes a single request attempt. The per-attempt
// timeout is carried on ctx; a conforming Transport honors it and
// returns ctx.Err (possibly wrapped) when it fires.
//
// Exactly one of the return values is meaningful: a Transport returns
// a fully buffered result or an error, never both. The Dispatcher
// never interprets transport internals beyond this contract; it
// classifies whatever comes back through package outcome.
//
// Implementations of Transport must be safe for concurrent use by
// multiple goroutines.
type Transport interface {
	Do(ctx context.Context, req *request.Request) (*request.Result, error)
}

// An HTTPDoer implements a Do method in the same manner as the Go
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	Do(r *http.Request) (*http.Response, error)
}

// HTTPTransport is a Transport backed by a standard HTTP client. It
// converts the request to an http.Request, executes it, and reads and
// buffers the entire response body into the result.
//
// A body read error fails the whole attempt: the partial response is
// discarded and the read error is returned as the transport error, so
// a response truncated mid-body classifies the same way as any other
// mid-stream connection failure.
//
// The HTTPDoer typically has internal state (cached TCP connections),
// so HTTPTransport instances should be reused.
type HTTPTransport struct {
	// Doer specifies the mechanics of sending HTTP requests and
	// receiving responses. If Doer is nil, http.DefaultClient is used.
	Doer HTTPDoer
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req *request.Request) (*request.Result, error) {
	hr, err := req.ToHTTP(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := t.doer().Do(hr)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &request.Result{
		Status:  resp.StatusCode,
		Headers: flattenHeader(resp.Header),
		Body:    body,
	}, nil
}

// CloseIdleConnections invokes the same method on the transport's
// underlying HTTPDoer, if it has one, and otherwise does nothing.
func (t *HTTPTransport) CloseIdleConnections() {
	if ic, ok := t.doer().(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
}

func (t *HTTPTransport) doer() HTTPDoer {
	if t.Doer == nil {
		return http.DefaultClient
	}
	return t.Doer
}

// flattenHeader converts an http.Header map into an ordered header
// list. Names are sorted for determinism; values within a name keep
// their received order.
func flattenHeader(h http.Header) request.Headers {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	var hs request.Headers
	for _, name := range names {
		for _, v := range h[name] {
			hs = append(hs, request.Header{Name: name, Value: v})
		}
	}
	return hs
}
