// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package outcome classifies the raw result of a single request attempt
into a small closed set of outcome kinds which drive retry decisions.

Function Classify maps a transport-level response or error into an
Outcome. Classification is pure: it performs no I/O and has no side
effects, so retry policies built on it are deterministic and
independently testable.
*/
package outcome
