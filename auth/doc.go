// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package auth attaches credentials to outgoing requests.

An Injector produces an authenticated copy of a request; the caller's
original request is never modified. The built-in injectors cover the
common schemes: None, Static (fixed bearer token), APIKey (fixed key
in a named header), and BearerRefresh (bearer token refreshed through
a TokenProvider before it expires, with concurrent refreshes collapsed
into a single provider call).
*/
package auth
