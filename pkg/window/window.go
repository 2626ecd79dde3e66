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

// Package window holds the window identity types shared by the trigger
// engine and the windowing runtime. Windows are assigned by the external
// windowing logic; the trigger engine only reads and merges identities.
package window

import (
	"fmt"
	"math"
	"time"
)

// MaxTimestamp is the maximum representable event timestamp. No element
// or timer deadline may be later than this sentinel.
var MaxTimestamp = time.UnixMilli(math.MaxInt64 / 1000)

// ID uniquely identifies a window.
type ID struct {
	Start time.Time
	End   time.Time
	// Slot is a hash-range for keys (multiple keys can go to the same slot)
	Slot string
}

func (w ID) String() string {
	return fmt.Sprintf("%v-%v-%s", w.Start.UnixMilli(), w.End.UnixMilli(), w.Slot)
}

// Union returns the smallest window covering all the given windows.
// The slot is taken from the first window; merging across slots is the
// caller's bug.
func Union(windows ...ID) ID {
	if len(windows) == 0 {
		return ID{}
	}
	merged := windows[0]
	for _, w := range windows[1:] {
		if w.Start.Before(merged.Start) {
			merged.Start = w.Start
		}
		if w.End.After(merged.End) {
			merged.End = w.End
		}
	}
	return merged
}

// MaxTimestampOf returns the latest timestamp that belongs to the window.
// The window end is exclusive.
func MaxTimestampOf(w ID) time.Time {
	return w.End.Add(-time.Millisecond)
}

// TimeDomain distinguishes wall-clock-driven timers from watermark-driven
// ones. The two domains advance independently.
type TimeDomain int

const (
	ProcessingTime TimeDomain = iota
	EventTime
)

func (d TimeDomain) String() string {
	switch d {
	case ProcessingTime:
		return "ProcessingTime"
	case EventTime:
		return "EventTime"
	default:
		return "Unknown"
	}
}
