/*
Copyright 2024 The Paneflow Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package trigger implements the per-window trigger state machine that
// decides, from a stream of element arrivals, window merges and timer
// firings, when a window's pane is emitted or finalized.
package trigger

import (
	"time"

	"github.com/paneflow/paneflow/pkg/trigger/state"
	"github.com/paneflow/paneflow/pkg/window"
)

// Result is the outcome of a single trigger callback.
type Result int

const (
	// Continue emits nothing; the trigger stays active.
	Continue Result = iota
	// Fire emits the current pane; the trigger stays active and may fire again.
	Fire
	// FireAndFinish emits the current pane and permanently retires the
	// trigger for the window. Subsequent data for the window is dropped.
	FireAndFinish
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "Continue"
	case Fire:
		return "Fire"
	case FireAndFinish:
		return "FireAndFinish"
	default:
		return "Unknown"
	}
}

// IsFire returns whether the result emits a pane.
func (r Result) IsFire() bool {
	return r == Fire || r == FireAndFinish
}

// WindowStatus describes what the windowing runtime knows about the window
// an element was routed into.
type WindowStatus int

const (
	WindowNew WindowStatus = iota
	WindowExisting
	WindowUnknown
)

// TimerID identifies the timer being delivered to OnTimer.
type TimerID struct {
	Window   window.ID
	Domain   window.TimeDomain
	Deadline time.Time
}

// Context gives a trigger access to the processing-time clock, the tagged
// state store and the timer service. All accesses are serialized per
// window/key by the caller; implementations impose no locking of their own.
type Context interface {
	// Now returns the current processing time.
	Now() time.Time
	// Lookup returns the value stored under (tag, window), found=false on absence.
	Lookup(tag state.Tag, w window.ID) (value any, found bool, err error)
	// BulkLookup returns the stored values for the given windows, absent ones omitted.
	BulkLookup(tag state.Tag, windows []window.ID) (map[window.ID]any, error)
	// Store persists value under (tag, window).
	Store(tag state.Tag, w window.ID, value any) error
	// Remove deletes the value under (tag, window).
	Remove(tag state.Tag, w window.ID)
	// SetTimer schedules the (w, domain) timer at deadline, replacing any prior one.
	SetTimer(w window.ID, deadline time.Time, domain window.TimeDomain)
	// DeleteTimer cancels the outstanding (w, domain) timer.
	DeleteTimer(w window.ID, domain window.TimeDomain)
}

// Trigger is the contract every trigger variant implements. The windowing
// runtime guarantees the callbacks for one window are never invoked
// concurrently, and that OnMerge is only called when the trigger has not
// fired in any of the old windows.
type Trigger interface {
	// OnElement is called once per element routed into w. Re-entry for a
	// window whose state is already initialized must be idempotent.
	OnElement(ctx Context, value any, timestamp time.Time, w window.ID, status WindowStatus) (Result, error)
	// OnMerge consolidates the state of oldWindows into newWindow. It must
	// not assume any fixed cardinality of oldWindows.
	OnMerge(ctx Context, oldWindows []window.ID, newWindow window.ID) (Result, error)
	// OnTimer is called when a previously scheduled timer deadline is reached.
	OnTimer(ctx Context, id TimerID) (Result, error)
	// Clear releases all state and cancels all outstanding timers the
	// trigger owns for w.
	Clear(ctx Context, w window.ID) error
	// WillNeverFinish reports whether the variant can never reach a
	// terminal state. The runtime uses it to decide whether to keep
	// waiting on the trigger indefinitely.
	WillNeverFinish() bool
}
