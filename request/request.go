// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"
)

// A Header is a single named header value. Requests carry an ordered
// list of headers so that repeated names keep their values and their
// relative order.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of headers. Name matching in its methods
// is case-insensitive.
type Headers []Header

// Get returns the first value associated with the given name, or the
// empty string if the name is absent.
func (hs Headers) Get(name string) string {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Values returns all values associated with the given name, in order.
func (hs Headers) Values(name string) []string {
	var vs []string
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			vs = append(vs, h.Value)
		}
	}
	return vs
}

// Clone returns a copy of the header list which shares no storage with
// the original.
func (hs Headers) Clone() Headers {
	if hs == nil {
		return nil
	}
	hs2 := make(Headers, len(hs))
	copy(hs2, hs)
	return hs2
}

// A Request describes a logical request to be dispatched. A Request
// may result in multiple transport attempts if retries are needed; the
// dispatcher converts the Request into per-attempt copies as needed
// and never modifies the original after dispatch begins.
type Request struct {
	// Method specifies the request method (GET, POST, PUT, etc.). An
	// empty string means GET.
	Method string

	// URL specifies the target address.
	URL *urlpkg.URL

	// Headers contains the headers to be sent, in order. Repeated
	// names are sent repeatedly, in the order listed.
	Headers Headers

	// Query optionally contains query parameters to be merged into the
	// URL's query string when the request is sent.
	Query urlpkg.Values

	// Body is the pre-buffered request body to be sent. A nil or
	// empty body indicates no request body should be sent, for example
	// on a GET or DELETE request.
	Body []byte

	// AttemptTimeout, if positive, bounds each individual transport
	// attempt made for this request, overriding the dispatcher's
	// timeout policy.
	AttemptTimeout time.Duration

	// Deadline, if set, is an absolute bound on the entire dispatch,
	// across all attempts and backoff waits. It is distinct from
	// AttemptTimeout, which bounds one attempt.
	Deadline time.Time
}

// New returns a new Request given a method, URL, and optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func New(method, url string, body interface{}) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("dispatchx/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: method,
		URL:    u,
		Body:   b,
	}, nil
}

// Clone returns a copy of the request which shares no mutable state
// with the original. The body is shared, as it is never modified once
// set.
func (r *Request) Clone() *Request {
	r2 := new(Request)
	*r2 = *r
	r2.Headers = r.Headers.Clone()
	if r.URL != nil {
		u := *r.URL
		r2.URL = &u
	}
	if r.Query != nil {
		q := make(urlpkg.Values, len(r.Query))
		for k, vs := range r.Query {
			q[k] = append([]string(nil), vs...)
		}
		r2.Query = q
	}
	return r2
}

// AddHeader appends a header to the request's header list.
func (r *Request) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// WithHeader returns a copy of the request with the given header
// appended. The original request is not modified; injectors use
// WithHeader to produce authenticated per-attempt copies.
func (r *Request) WithHeader(name, value string) *Request {
	r2 := r.Clone()
	r2.AddHeader(name, value)
	return r2
}

// ToHTTP converts the request into a standard net/http request with
// the given context, merging Query into the URL's query string and
// applying the headers in order. It is used by HTTP-backed transports.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	if r.URL == nil {
		return nil, fmt.Errorf("dispatchx/request: nil URL")
	}
	u := *r.URL
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	method := r.Method
	if method == "" {
		method = "GET"
	}
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if len(r.Body) > 0 {
		hr.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(r.Body)), nil
		}
		hr.ContentLength = int64(len(r.Body))
	}
	for _, h := range r.Headers {
		hr.Header.Add(h.Name, h.Value)
	}
	return hr, nil
}

// validMethod reports whether method is a valid token per RFC 7230
// section 3.2.6.
func validMethod(method string) bool {
	return strings.IndexFunc(method, func(r rune) bool {
		return !isTokenRune(r)
	}) == -1
}

func isTokenRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}
	switch r {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
