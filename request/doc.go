// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request provides the data model for a logical request dispatch:
the request the caller constructs (Request), the buffered raw response
a transport produces (Result), and the per-dispatch state the
dispatcher threads through policies and event handlers (Execution).

The logical request described by a Request will typically result in a
single transport attempt, but may result in multiple attempts if a
failed attempt needs to be retried. The dispatcher never mutates the
caller's Request once dispatch begins: any per-attempt modification,
such as credential injection, is made on a copy.

Headers are kept as an ordered list rather than a map, so repeated
header names keep both their values and their relative order.
*/
package request
