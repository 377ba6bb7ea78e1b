// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"

	"github.com/gogama/dispatchx/request"
)

// An Injector attaches credentials to an outgoing request, returning
// an authenticated copy. The request passed in is never modified.
//
// Implementations of Injector must be safe for concurrent use by
// multiple goroutines: one Injector instance is typically shared by
// every dispatch a dispatcher runs.
//
// An error returned from Attach surfaces as an AuthFailure outcome on
// the attempt.
type Injector interface {
	Attach(ctx context.Context, req *request.Request) (*request.Request, error)
}

// None is an injector that attaches no credentials. It returns the
// request unchanged.
var None Injector = none{}

type none struct{}

func (none) Attach(_ context.Context, req *request.Request) (*request.Request, error) {
	return req, nil
}

// Static returns an injector that attaches a fixed bearer token in the
// Authorization header.
func Static(token string) Injector {
	return static(token)
}

type static string

func (s static) Attach(_ context.Context, req *request.Request) (*request.Request, error) {
	return req.WithHeader("Authorization", "Bearer "+string(s)), nil
}

// APIKey returns an injector that attaches a fixed key in the named
// header, for example APIKey("X-Api-Key", key).
func APIKey(header, key string) Injector {
	return apiKey{header: header, key: key}
}

type apiKey struct {
	header string
	key    string
}

func (a apiKey) Attach(_ context.Context, req *request.Request) (*request.Request, error) {
	return req.WithHeader(a.header, a.key), nil
}
