// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

import (
	"context"

	"github.com/gogama/dispatchx/request"
)

// Sender is the interface that wraps the basic Send method.
//
// Send dispatches a request and returns the first successful result
// (and error, if any). Dispatcher implements the Sender interface, and
// any other Sender implementation must behave substantially the same
// as Dispatcher.Send.
type Sender interface {
	Send(ctx context.Context, req *request.Request) (*request.Result, error)
}

// Get uses the specified Sender to issue a GET to the specified URL,
// using the same policies followed by s.Send.
//
// To send a request with custom headers, use request.New and s.Send.
func Get(ctx context.Context, s Sender, url string) (*request.Result, error) {
	req, err := request.New("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, req)
}

// Post uses the specified Sender to issue a POST to the specified URL,
// using the same policies followed by s.Send.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.New and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func Post(ctx context.Context, s Sender, url, contentType string, body interface{}) (*request.Result, error) {
	req, err := request.New("POST", url, body)
	if err != nil {
		return nil, err
	}
	req.AddHeader("Content-Type", contentType)
	return s.Send(ctx, req)
}

// Get issues a GET to the specified URL, using the same policies
// followed by Send.
func (d *Dispatcher) Get(ctx context.Context, url string) (*request.Result, error) {
	return Get(ctx, d, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Send.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.New and request.BodyBytes.
func (d *Dispatcher) Post(ctx context.Context, url, contentType string, body interface{}) (*request.Result, error) {
	return Post(ctx, d, url, contentType, body)
}
