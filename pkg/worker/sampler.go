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

package worker

import (
	"sync"

	"go.uber.org/atomic"
)

// StateSamplerInfo is an immutable point-in-time snapshot of the sampler.
type StateSamplerInfo struct {
	// State is the last observed execution state name.
	State string
	// NumTransitions is the number of state transitions observed so far.
	NumTransitions int64
	// Extra carries optional implementation-specific detail.
	Extra any
}

// StateSampler tracks which execution state the loop is in and how often
// it changes. Snapshots are taken on demand by the status builder.
type StateSampler struct {
	mu          sync.RWMutex
	state       string
	transitions atomic.Int64
}

// NewStateSampler returns a sampler in the given initial state.
func NewStateSampler(initial string) *StateSampler {
	s := &StateSampler{state: initial}
	return s
}

// SetState records a transition into the named state.
func (s *StateSampler) SetState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.transitions.Inc()
}

// Snapshot returns the current sampler info.
func (s *StateSampler) Snapshot() *StateSamplerInfo {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	return &StateSamplerInfo{
		State:          state,
		NumTransitions: s.transitions.Load(),
	}
}
