// Package poller watches a meeting status field after an asynchronous backend
// action until it settles.
//
// Each tick re-fetches the meeting list, hands it to Hooks.OnTick so shared
// state stays live, and checks the watched field. Success values return the
// meeting, failure values return *GenerationFailedError, and an expired
// deadline returns *TimeoutError carrying the last observed status. Transport
// and 503 failures during a tick are retried on the next tick.
package poller
