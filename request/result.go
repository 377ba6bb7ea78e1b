// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"strconv"
	"time"
)

// A Result is the buffered raw response a transport produced for one
// request attempt. The body is fully read before the Result is
// returned, so a Result never holds open transport resources.
type Result struct {
	// Status is the protocol status code of the response.
	Status int

	// Headers contains the response headers, in order. Repeated names
	// keep all their values.
	Headers Headers

	// Body is the complete buffered response body. It may be empty but
	// is never partially read.
	Body []byte
}

// StatusCode returns the protocol status code of the response.
func (r *Result) StatusCode() int {
	return r.Status
}

// RetryAfter returns the wait duration indicated by the response's
// Retry-After header, if the header is present and parseable.
//
// Both forms from RFC 7231 section 7.1.3 are supported: a decimal
// number of seconds, and an HTTP-date (interpreted relative to the
// current time). An absent or unparseable header yields (0, false); a
// date in the past yields (0, true).
func (r *Result) RetryAfter() (time.Duration, bool) {
	v := r.Headers.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := time.Until(at)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
