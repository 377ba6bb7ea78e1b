// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gogama/dispatchx/request"
)

// ErrRefresh is wrapped into every error returned from a failed token
// refresh. Test with errors.Is.
var ErrRefresh = errors.New("dispatchx/auth: token refresh failed")

// DefaultRefreshMargin is the safety margin BearerRefresh keeps
// between a token's use and its expiry when no margin is configured.
// A token within the margin of expiry is refreshed before use.
const DefaultRefreshMargin = 30 * time.Second

// A Token is a credential value with an optional expiry. A zero
// Expiry means the token never expires.
type Token struct {
	Value  string
	Expiry time.Time
}

// A TokenProvider obtains a fresh token from an external credential
// source.
//
// BearerRefresh guarantees at most one in-flight Refresh call per
// injector at any time, so providers need not de-duplicate calls
// themselves, but Refresh must be safe to call again after a failure.
type TokenProvider interface {
	Refresh(ctx context.Context) (Token, error)
}

// The TokenProviderFunc type is an adapter to allow the use of
// ordinary functions as token providers.
type TokenProviderFunc func(ctx context.Context) (Token, error)

// Refresh calls f(ctx).
func (f TokenProviderFunc) Refresh(ctx context.Context) (Token, error) {
	return f(ctx)
}

// BearerRefresh is an injector that attaches a bearer token obtained
// from a TokenProvider, refreshing it before it expires.
//
// The held token is owned exclusively by the injector. When Attach
// finds the token absent, expired, or within the refresh margin of
// expiry, it refreshes it through the provider; concurrent attachers
// observing the same stale token collapse into a single in-flight
// provider call and all share its result. A failed refresh fails the
// attach with an error wrapping ErrRefresh.
//
// BearerRefresh is safe for concurrent use by multiple goroutines.
type BearerRefresh struct {
	provider TokenProvider
	margin   time.Duration
	group    singleflight.Group

	mu  sync.RWMutex
	tok Token
}

// NewBearerRefresh returns a BearerRefresh injector drawing tokens
// from provider. A margin of zero or less selects
// DefaultRefreshMargin.
func NewBearerRefresh(provider TokenProvider, margin time.Duration) *BearerRefresh {
	if provider == nil {
		panic("dispatchx/auth: nil provider")
	}
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	return &BearerRefresh{provider: provider, margin: margin}
}

// Attach returns a copy of req carrying the current bearer token in
// the Authorization header, refreshing the token first if needed.
func (b *BearerRefresh) Attach(ctx context.Context, req *request.Request) (*request.Request, error) {
	tok, ok := b.current()
	if !ok {
		v, err, _ := b.group.Do("refresh", func() (interface{}, error) {
			// Double-check: a concurrent refresh may have completed
			// between the staleness check and joining the flight.
			if tok, ok := b.current(); ok {
				return tok, nil
			}
			return b.refresh(ctx)
		})
		if err != nil {
			return nil, err
		}
		tok = v.(Token)
	}
	return req.WithHeader("Authorization", "Bearer "+tok.Value), nil
}

// Invalidate discards the held token, forcing a refresh on the next
// Attach. The dispatcher invalidates the credential when the server
// rejects it, so the retry of an AuthFailure runs with a fresh token.
func (b *BearerRefresh) Invalidate() {
	b.mu.Lock()
	b.tok = Token{}
	b.mu.Unlock()
}

func (b *BearerRefresh) current() (Token, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.tok.Value == "" {
		return Token{}, false
	}
	if !b.tok.Expiry.IsZero() && time.Until(b.tok.Expiry) <= b.margin {
		return Token{}, false
	}
	return b.tok, true
}

func (b *BearerRefresh) refresh(ctx context.Context) (interface{}, error) {
	tok, err := b.provider.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefresh, err)
	}
	if tok.Value == "" {
		return nil, fmt.Errorf("%w: provider returned an empty token", ErrRefresh)
	}
	b.mu.Lock()
	b.tok = tok
	b.mu.Unlock()
	return tok, nil
}
