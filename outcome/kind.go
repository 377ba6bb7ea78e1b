// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package outcome

// A Kind is the classification of a single request attempt's result.
// The set of kinds is closed: every attempt, however it ends, maps to
// exactly one Kind.
//
// Kinds other than Success describe failures. Whether a particular
// failure kind is worth retrying is the retry policy's decision, not
// the classifier's; Classify only reports what happened.
type Kind int

const (
	// Unknown indicates an attempt result that fits no other kind:
	// an unrecognized error, or a response with a status code outside
	// any known band. Unclassified failures are conservatively treated
	// as non-retryable by the default retry policy.
	Unknown Kind = iota
	// Success indicates the attempt produced a response with a
	// successful (or at least non-failure) status code.
	Success
	// Timeout indicates the attempt ran out of time, either against
	// its own attempt timeout or against the overall deadline.
	Timeout
	// ConnectionFailure indicates the attempt failed below the
	// application protocol: connection refused, connection reset,
	// broken pipe, unexpected EOF, or a comparable network error.
	ConnectionFailure
	// ClientError indicates the server rejected the request with a
	// 4XX status code other than 401, 403, and 429.
	ClientError
	// ServerError indicates the server answered with a 5XX status
	// code.
	ServerError
	// RateLimited indicates the server answered with status code 429.
	// The outcome may carry a server-supplied retry-after hint.
	RateLimited
	// AuthFailure indicates either that credential injection failed
	// before the attempt could be sent, or that the server answered
	// with status code 401 or 403.
	AuthFailure

	// kindSentinel provides the total number of kinds.
	kindSentinel
)

var kindNames = []string{
	"Unknown",
	"Success",
	"Timeout",
	"ConnectionFailure",
	"ClientError",
	"ServerError",
	"RateLimited",
	"AuthFailure",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindSentinel {
		return "Invalid"
	}
	return kindNames[int(k)]
}

// Kinds returns a slice containing every valid Kind.
func Kinds() []Kind {
	ks := make([]Kind, int(kindSentinel))
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}
