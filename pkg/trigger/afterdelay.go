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

package trigger

import (
	"time"

	"github.com/paneflow/paneflow/pkg/trigger/state"
	"github.com/paneflow/paneflow/pkg/window"
)

var delayedUntilTag = state.TimeTag("delayed-until")

// AfterDelay fires once, in the processing-time domain, when the current
// processing time passes a delay computed from the processing time at which
// the first element of the pane was seen. It is an at-most-once trigger.
//
// The delay function must be monotone non-decreasing in its input so that
// the earliest-timer-wins merge rule stays sound. That is a precondition on
// configuration, not enforced here.
type AfterDelay struct {
	delayFn func(time.Time) time.Time
}

var _ Trigger = (*AfterDelay)(nil)

// PastFirstElement returns a trigger that fires when the current processing
// time passes the processing time at which the first element was seen.
func PastFirstElement() *AfterDelay {
	return &AfterDelay{delayFn: func(t time.Time) time.Time { return t }}
}

// PlusDelay returns a copy of the trigger whose target timestamp is pushed
// out by the given delay.
func (t *AfterDelay) PlusDelay(delay time.Duration) *AfterDelay {
	inner := t.delayFn
	return &AfterDelay{delayFn: func(first time.Time) time.Time {
		return inner(first).Add(delay)
	}}
}

// OnElement computes and persists the delayed-until instant on the first
// element of the window and schedules a processing-time timer for it.
// Later elements see the stored value and leave it untouched.
func (t *AfterDelay) OnElement(ctx Context, _ any, _ time.Time, w window.ID, _ WindowStatus) (Result, error) {
	_, found, err := ctx.Lookup(delayedUntilTag, w)
	if err != nil {
		return Continue, err
	}
	if !found {
		delayUntil := t.delayFn(ctx.Now())
		ctx.SetTimer(w, delayUntil, window.ProcessingTime)
		if err := ctx.Store(delayedUntilTag, w, delayUntil); err != nil {
			return Continue, err
		}
	}
	return Continue, nil
}

// OnMerge carries the earliest stored delayed-until instant across to the
// merged window. The first element across any of the old windows determines
// the earliest possible fire time; a merge must not push the deadline out.
// To have gotten here, the trigger must not have fired in any old window.
func (t *AfterDelay) OnMerge(ctx Context, oldWindows []window.ID, newWindow window.ID) (Result, error) {
	values, err := ctx.BulkLookup(delayedUntilTag, oldWindows)
	if err != nil {
		return Continue, err
	}
	earliestTimer := window.MaxTimestamp
	found := false
	for _, value := range values {
		if delayedUntil := value.(time.Time); delayedUntil.Before(earliestTimer) {
			earliestTimer = delayedUntil
			found = true
		}
	}
	// no elements have arrived in any merged window yet
	if !found {
		return Continue, nil
	}
	if err := ctx.Store(delayedUntilTag, newWindow, earliestTimer); err != nil {
		return Continue, err
	}
	ctx.SetTimer(newWindow, earliestTimer, window.ProcessingTime)
	return Continue, nil
}

// OnTimer fires exactly once, at the scheduled deadline, regardless of any
// further elements.
func (t *AfterDelay) OnTimer(_ Context, _ TimerID) (Result, error) {
	return FireAndFinish, nil
}

// Clear removes the stored instant and cancels the processing-time timer.
func (t *AfterDelay) Clear(ctx Context, w window.ID) error {
	ctx.Remove(delayedUntilTag, w)
	ctx.DeleteTimer(w, window.ProcessingTime)
	return nil
}

func (t *AfterDelay) WillNeverFinish() bool {
	return false
}
