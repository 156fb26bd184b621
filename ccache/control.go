// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package ccache

import "time"

type (
	// control carries requests to the [Cache.worker] goroutine, which is the
	// only one allowed to touch the recency list.
	control chan controlMessage

	// controlMessage is implemented by the requests accepted on [control].
	controlMessage interface{ controlMessage() }

	// controlSyncUpdates asks the worker to apply all queued promotions and
	// deletions, then signal [controlSyncUpdates.done].
	controlSyncUpdates struct{ done chan<- struct{} }

	// controlCheck asks the worker to apply all queued promotions and
	// deletions, then verify the recency list and send the outcome to
	// [controlCheck.report].
	controlCheck struct{ report chan<- recencyReport }

	// controlStop asks the worker to exit, after applying the promotions and
	// deletions that arrive within [controlStop.timeout].
	controlStop struct{ timeout time.Duration }

	// recencyReport is the worker's answer to a [controlCheck].
	recencyReport struct {
		len int   // Number of items in the recency list
		err error // Nil if the recency list and its items are consistent
	}
)

// newControl creates a [control] channel. Its buffer fits a stop request
// behind a pending sync or check.
func newControl() control {
	return make(control, 2)
}

// Close stops the worker with [control.CloseWithTimeout] and a 5 seconds
// grace period.
func (c control) Close() {
	c.CloseWithTimeout(5 * time.Second)
}

// CloseWithTimeout flushes pending updates, then stops the worker once timeout
// has elapsed. Afterwards, nothing reads the promotion and deletion queues, so
// [Cache.Set] and [Cache.GetOrStore] block for good once they fill up.
func (c control) CloseWithTimeout(timeout time.Duration) {
	c.syncUpdates()
	c <- controlStop{timeout}
	close(c)
}

// syncUpdates returns once the worker has applied every pending update, so
// tests can assert on their side-effects.
func (c control) syncUpdates() {
	done := make(chan struct{})
	c <- controlSyncUpdates{done: done}
	<-done
}

// check returns the worker's verification of the recency list, taken after
// every pending update was applied. The report is only meaningful while no
// other goroutine writes to the cache.
func (c control) check() recencyReport {
	report := make(chan recencyReport)
	c <- controlCheck{report: report}
	return <-report
}

func (controlSyncUpdates) controlMessage() {}
func (controlCheck) controlMessage()       {}
func (controlStop) controlMessage()        {}
