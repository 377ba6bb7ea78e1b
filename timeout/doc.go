// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package timeout controls how the per-attempt timeout is set on each
request attempt within a dispatch.

The per-attempt timeout bounds one transport invocation; it is
distinct from the overall deadline, which bounds the whole dispatch
across attempts and backoff waits. A request carrying its own
AttemptTimeout overrides the dispatcher's timeout policy for that
dispatch.
*/
package timeout
