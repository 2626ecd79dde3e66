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

// Package worker implements the execution loop of the data-processing
// worker: lease a work item from the controller, execute it while progress
// is reported concurrently, push exactly one final status report, repeat.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/paneflow/paneflow/pkg/shared/logging"
)

// LoopState is the execution loop's observable state.
type LoopState int

const (
	Idle LoopState = iota
	Fetching
	Executing
	Reporting
	Stopped
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Fetching:
		return "Fetching"
	case Executing:
		return "Executing"
	case Reporting:
		return "Reporting"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

type options struct {
	workerID             string
	pollInterval         time.Duration
	progressReportPeriod time.Duration
}

func defaultOptions() *options {
	return &options{
		pollInterval:         time.Second,
		progressReportPeriod: 5 * time.Second,
	}
}

// Option customizes the worker.
type Option func(*options)

// WithWorkerID sets the worker's instance id.
func WithWorkerID(id string) Option {
	return func(o *options) {
		o.workerID = id
	}
}

// WithPollInterval sets how long Run sleeps when the controller has no work.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithProgressReportPeriod sets the progress reporter's tick period.
func WithProgressReportPeriod(d time.Duration) Option {
	return func(o *options) {
		o.progressReportPeriod = d
	}
}

// Worker is the single-instance execution loop. One Worker never executes
// two work items concurrently; fetch, execute and report are strictly
// ordered within a cycle.
type Worker struct {
	client    WorkUnitClient
	executors map[string]ExecutorFactory
	sampler   *StateSampler
	state     LoopState
	opts      *options
	log       *zap.SugaredLogger
}

// NewWorker returns a worker polling the given controller client.
func NewWorker(ctx context.Context, client WorkUnitClient, opts ...Option) *Worker {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return &Worker{
		client:    client,
		executors: make(map[string]ExecutorFactory),
		sampler:   NewStateSampler(Idle.String()),
		state:     Idle,
		opts:      options,
		log:       logging.FromContext(ctx).With("workerID", options.workerID),
	}
}

// RegisterExecutor registers the factory that executes work items of the
// given kind. An unregistered kind surfaces as an executor-construction
// failure in the item's status report.
func (w *Worker) RegisterExecutor(kind string, factory ExecutorFactory) {
	w.executors[kind] = factory
}

// State returns the loop's current state.
func (w *Worker) State() LoopState {
	return w.state
}

// Sampler returns the worker's state sampler.
func (w *Worker) Sampler() *StateSampler {
	return w.sampler
}

func (w *Worker) setState(s LoopState) {
	w.state = s
	w.sampler.SetState(s.String())
}

// Run polls the controller until the context is cancelled or the fetch
// fails unrecoverably. A single bad work item never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	defer w.setState(Stopped)
	for {
		select {
		case <-ctx.Done():
			w.log.Infow("Stopping worker loop...")
			return nil
		default:
		}
		performedWork, err := w.GetAndPerformWork(ctx)
		if err != nil {
			w.log.Errorw("Failed to fetch work from the controller", zap.Error(err))
			return fmt.Errorf("failed to fetch work: %w", err)
		}
		if !performedWork {
			select {
			case <-ctx.Done():
			case <-time.After(w.opts.pollInterval):
			}
		}
	}
}

// GetAndPerformWork fetches one work item and executes it. It returns false
// with no report sent when the controller has no work, which is the normal
// loop-exit signal, not an error. When an item is leased, exactly one final
// status report is sent and true is returned, even if execution failed.
func (w *Worker) GetAndPerformWork(ctx context.Context) (bool, error) {
	w.setState(Fetching)
	workItem, err := w.client.GetWorkItem(ctx)
	if err != nil {
		w.setState(Stopped)
		return false, err
	}
	if workItem == nil {
		w.setState(Idle)
		return false, nil
	}
	workItemsFetchedCount.Inc()
	w.performWork(ctx, workItem)
	w.setState(Idle)
	return true, nil
}

// ExecuteWork brackets the executor invocation with progress reporting:
// the updater is started before the executor runs and stopped on every
// exit path, so it is never left running after the call returns. An
// executor failure propagates to the caller after the updater is stopped.
func (w *Worker) ExecuteWork(ctx context.Context, executor WorkExecutor, updater ProgressUpdater) error {
	updater.StartReportingProgress()
	defer updater.StopReportingProgress()
	return executor.Execute(ctx)
}

// performWork executes one leased item and always reports exactly one
// final status.
func (w *Worker) performWork(ctx context.Context, workItem *WorkItem) {
	w.setState(Executing)
	start := time.Now()
	reportIndex := atomic.NewInt64(workItem.InitialReportIndex)

	executor, execErr := w.buildExecutor(ctx, workItem)
	var counters []Counter
	var progress *Progress
	if execErr == nil {
		reporter := newProgressReporter(ctx, w.client, workItem, executor, reportIndex, w.opts.progressReportPeriod)
		execErr = w.ExecuteWork(ctx, executor, reporter)
		counters = executor.Counters()
		progress = executor.Progress()
		if closeErr := executor.Close(); closeErr != nil {
			w.log.Errorw("Failed to close executor", zap.Error(closeErr))
		}
	}

	w.setState(Reporting)
	var errors []error
	if execErr != nil {
		workItemsFailedCount.Inc()
		w.log.Errorw("Work item execution failed", zap.Int64("workItemID", workItem.ID), zap.Error(execErr))
		errors = append(errors, execErr)
	} else {
		workItemsCompletedCount.Inc()
	}

	status := BuildStatus(workItem, reportIndex.Load(), true, progress, nil, nil, errors,
		counters, nil, time.Since(start).Milliseconds(), w.sampler.Snapshot())
	if err := w.client.ReportWorkItemStatus(ctx, status); err != nil {
		w.log.Errorw("Failed to report work item status", zap.Int64("workItemID", workItem.ID), zap.Error(err))
	}
}

func (w *Worker) buildExecutor(ctx context.Context, workItem *WorkItem) (WorkExecutor, error) {
	factory, ok := w.executors[workItem.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind of work item %q", workItem.Kind)
	}
	executor, err := factory(ctx, workItem)
	if err != nil {
		return nil, fmt.Errorf("failed to build executor for kind %q: %w", workItem.Kind, err)
	}
	return executor, nil
}
