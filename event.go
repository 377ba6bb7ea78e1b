// Copyright 2026 The dispatchx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dispatchx

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Dispatcher to extend it with
// custom functionality.
type Event int

const (
	// BeforeSend identifies the event that occurs before the dispatch
	// starts.
	//
	// When Dispatcher fires BeforeSend, the execution is non-nil but
	// the only fields that have been set are the request and the
	// context.
	BeforeSend Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual request attempt during the dispatch.
	//
	// When Dispatcher fires BeforeAttempt, the execution's
	// AttemptRequest field is set to the authenticated per-attempt
	// request that WILL BE handed to the transport after all
	// BeforeAttempt handlers have finished.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after a
	// request attempt failed with a Timeout outcome.
	//
	// When Dispatcher fires AfterAttemptTimeout, the execution's
	// outcome is set and its attempt timeout counter has been
	// incremented. AfterAttemptTimeout fires before AfterAttempt.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after a request
	// attempt is concluded, regardless of how it concluded.
	//
	// When Dispatcher fires AfterAttempt, the execution's outcome is
	// set and the attempt has been appended to the history. The event
	// runs before the retry policy is consulted for a retry decision.
	AfterAttempt
	// AfterDeadline identifies the event that occurs when the overall
	// deadline on the dispatch is exceeded, whether it is detected
	// between attempts or during a backoff sleep.
	AfterDeadline
	// AfterSend identifies the event that occurs after the dispatch
	// ends, successfully or not.
	//
	// When Dispatcher fires AfterSend, the execution's end time is
	// set, and its Err field holds the terminal *DispatchError if the
	// dispatch failed.
	AfterSend
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of event types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeSend",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterDeadline",
	"AfterSend",
}

// Events returns a slice containing all events which can occur during
// a dispatch, in the order in which they would first occur.
func Events() []Event {
	return []Event{
		BeforeSend,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterDeadline,
		AfterSend,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
