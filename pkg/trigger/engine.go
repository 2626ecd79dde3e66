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
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/paneflow/paneflow/pkg/shared/logging"
	"github.com/paneflow/paneflow/pkg/trigger/state"
	"github.com/paneflow/paneflow/pkg/trigger/timers"
	"github.com/paneflow/paneflow/pkg/window"
)

// Engine hosts one trigger instance over the tagged state store and the
// timer service. The surrounding runtime serializes calls per window/key;
// the engine enforces the post-finish invariant (a trigger that returned
// FireAndFinish for a window is never invoked again for it, except Clear)
// and releases state once a window finishes.
type Engine struct {
	trigger  Trigger
	store    state.Store
	timers   *timers.Queue
	clock    func() time.Time
	finished map[window.ID]bool
	log      *zap.SugaredLogger
}

// engineContext adapts the engine's store, timers and clock to the
// trigger-facing Context.
type engineContext struct {
	engine *Engine
}

var _ Context = (*engineContext)(nil)

func (c *engineContext) Now() time.Time {
	return c.engine.clock()
}

func (c *engineContext) Lookup(tag state.Tag, w window.ID) (any, bool, error) {
	return c.engine.store.Lookup(tag, w)
}

func (c *engineContext) BulkLookup(tag state.Tag, windows []window.ID) (map[window.ID]any, error) {
	return c.engine.store.BulkLookup(tag, windows)
}

func (c *engineContext) Store(tag state.Tag, w window.ID, value any) error {
	return c.engine.store.Put(tag, w, value)
}

func (c *engineContext) Remove(tag state.Tag, w window.ID) {
	c.engine.store.Remove(tag, w)
}

func (c *engineContext) SetTimer(w window.ID, deadline time.Time, domain window.TimeDomain) {
	c.engine.timers.Set(w, deadline, domain)
}

func (c *engineContext) DeleteTimer(w window.ID, domain window.TimeDomain) {
	c.engine.timers.Delete(w, domain)
}

// EngineOption customizes the engine.
type EngineOption func(*Engine)

// WithClock overrides the processing-time clock, mainly for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine returns an engine hosting the given trigger.
func NewEngine(ctx context.Context, t Trigger, store state.Store, tq *timers.Queue, opts ...EngineOption) *Engine {
	e := &Engine{
		trigger:  t,
		store:    store,
		timers:   tq,
		clock:    time.Now,
		finished: make(map[window.ID]bool),
		log:      logging.FromContext(ctx),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Firing is one pane emission produced by a timer firing.
type Firing struct {
	Window window.ID
	Result Result
}

// IsFinished returns whether the trigger has permanently retired for w.
func (e *Engine) IsFinished(w window.ID) bool {
	return e.finished[w]
}

// OnElement routes one element into w. Elements arriving after the trigger
// finished for w are dropped.
func (e *Engine) OnElement(value any, timestamp time.Time, w window.ID, status WindowStatus) (Result, error) {
	if e.finished[w] {
		droppedElementsCount.Inc()
		return Continue, nil
	}
	return e.trigger.OnElement(&engineContext{engine: e}, value, timestamp, w, status)
}

// OnMerge consolidates oldWindows into newWindow and then releases the old
// windows' state and timers. The caller guarantees the trigger has not
// fired in any of the old windows.
func (e *Engine) OnMerge(oldWindows []window.ID, newWindow window.ID) (Result, error) {
	ectx := &engineContext{engine: e}
	result, err := e.trigger.OnMerge(ectx, oldWindows, newWindow)
	if err != nil {
		return result, err
	}
	for _, old := range oldWindows {
		if old == newWindow {
			continue
		}
		if err := e.trigger.Clear(ectx, old); err != nil {
			return result, err
		}
	}
	return result, err
}

// AdvanceProcessingTime fires all due processing-time timers in deadline
// order and returns the resulting pane emissions. A FireAndFinish retires
// the trigger for the window and clears its state.
func (e *Engine) AdvanceProcessingTime(now time.Time) ([]Firing, error) {
	ectx := &engineContext{engine: e}
	var firings []Firing
	for _, timer := range e.timers.FireReady(now, window.ProcessingTime) {
		if e.finished[timer.Window] {
			continue
		}
		result, err := e.trigger.OnTimer(ectx, TimerID{Window: timer.Window, Domain: timer.Domain, Deadline: timer.Deadline})
		if err != nil {
			return firings, err
		}
		if result.IsFire() {
			panesFiredCount.Inc()
			firings = append(firings, Firing{Window: timer.Window, Result: result})
		}
		if result == FireAndFinish {
			e.finished[timer.Window] = true
			if err := e.trigger.Clear(ectx, timer.Window); err != nil {
				return firings, err
			}
			e.log.Debugw("Trigger finished for window", zap.String("window", timer.Window.String()))
		}
	}
	return firings, nil
}

// CloseWindow releases everything the trigger owns for w. Safe to call for
// already-finished windows.
func (e *Engine) CloseWindow(w window.ID) error {
	delete(e.finished, w)
	return e.trigger.Clear(&engineContext{engine: e}, w)
}
