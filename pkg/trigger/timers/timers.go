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

// Package timers implements the timer service backing the trigger engine.
// There is at most one outstanding timer per (window, domain); setting a
// new one replaces the prior deadline. Within a domain, timers fire in
// non-decreasing deadline order. Firing order across domains is unspecified
// because the two domains advance independently.
package timers

import (
	"sort"
	"sync"
	"time"

	"github.com/paneflow/paneflow/pkg/window"
)

// Timer is one outstanding (or fired) timer.
type Timer struct {
	Window   window.ID
	Domain   window.TimeDomain
	Deadline time.Time
}

type timerKey struct {
	window window.ID
	domain window.TimeDomain
}

// Queue holds the outstanding timers.
type Queue struct {
	lock    sync.Mutex
	entries map[timerKey]time.Time
}

// NewQueue returns an empty timer queue.
func NewQueue() *Queue {
	return &Queue{
		entries: make(map[timerKey]time.Time),
	}
}

// Set schedules a timer for (w, domain) at deadline, replacing any
// previously scheduled deadline for the same pair.
func (q *Queue) Set(w window.ID, deadline time.Time, domain window.TimeDomain) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.entries[timerKey{window: w, domain: domain}] = deadline
}

// Delete cancels the outstanding timer for (w, domain), if any.
func (q *Queue) Delete(w window.ID, domain window.TimeDomain) {
	q.lock.Lock()
	defer q.lock.Unlock()
	delete(q.entries, timerKey{window: w, domain: domain})
}

// Get returns the outstanding deadline for (w, domain).
func (q *Queue) Get(w window.ID, domain window.TimeDomain) (time.Time, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	deadline, ok := q.entries[timerKey{window: w, domain: domain}]
	return deadline, ok
}

// FireReady removes and returns all timers in the given domain whose
// deadline is at or before now, ordered by deadline.
func (q *Queue) FireReady(now time.Time, domain window.TimeDomain) []Timer {
	q.lock.Lock()
	defer q.lock.Unlock()
	var ready []Timer
	for key, deadline := range q.entries {
		if key.domain == domain && !deadline.After(now) {
			ready = append(ready, Timer{Window: key.window, Domain: key.domain, Deadline: deadline})
			delete(q.entries, key)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Deadline.Before(ready[j].Deadline)
	})
	return ready
}
