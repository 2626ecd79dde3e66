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
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeWorkUnitClient serves a fixed sequence of work items and records
// every reported status.
type fakeWorkUnitClient struct {
	mu       sync.Mutex
	items    []*WorkItem
	fetchErr error
	statuses []*WorkItemStatus
}

func (c *fakeWorkUnitClient) GetWorkItem(_ context.Context) (*WorkItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if len(c.items) == 0 {
		return nil, nil
	}
	item := c.items[0]
	c.items = c.items[1:]
	return item, nil
}

func (c *fakeWorkUnitClient) ReportWorkItemStatus(_ context.Context, status *WorkItemStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, status)
	return nil
}

func (c *fakeWorkUnitClient) reported() []*WorkItemStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*WorkItemStatus{}, c.statuses...)
}

type fakeExecutor struct {
	executeErr error
	executions int
	counters   []Counter
}

func (e *fakeExecutor) Execute(_ context.Context) error {
	e.executions++
	return e.executeErr
}
func (e *fakeExecutor) Progress() *Progress { return &Progress{PercentComplete: 50} }
func (e *fakeExecutor) Counters() []Counter { return e.counters }
func (e *fakeExecutor) Close() error { return nil }

type fakeUpdater struct {
	starts int
	stops  int
}

func (u *fakeUpdater) StartReportingProgress() { u.starts++ }
func (u *fakeUpdater) StopReportingProgress()  { u.stops++ }

func TestGetAndPerformWork_NoWorkReturnsFalse(t *testing.T) {
	client := &fakeWorkUnitClient{}
	w := NewWorker(context.Background(), client)

	performed, err := w.GetAndPerformWork(context.Background())
	assert.NoError(t, err)
	assert.False(t, performed)
	assert.Empty(t, client.reported())
	assert.Equal(t, Idle, w.State())
}

func TestGetAndPerformWork_UnknownKindReportsErrors(t *testing.T) {
	// in practice the initial report index is always 1, send a different
	// value to prove it is echoed rather than assumed
	client := &fakeWorkUnitClient{
		items: []*WorkItem{{ID: 1, JobID: "J", InitialReportIndex: 4}},
	}
	w := NewWorker(context.Background(), client)

	performed, err := w.GetAndPerformWork(context.Background())
	assert.NoError(t, err)
	assert.True(t, performed)

	statuses := client.reported()
	assert.Len(t, statuses, 1)
	status := statuses[0]
	assert.Equal(t, int64(1), status.WorkItemID)
	assert.Equal(t, int64(4), status.ReportIndex)
	assert.True(t, status.Completed)
	assert.NotEmpty(t, status.Errors)
	assert.Contains(t, status.Errors[0].Message, "unknown kind of work")

	performed, err = w.GetAndPerformWork(context.Background())
	assert.NoError(t, err)
	assert.False(t, performed)
	assert.Len(t, client.reported(), 1)
}

func TestGetAndPerformWork_ExecutorFailureStillReportsOnce(t *testing.T) {
	client := &fakeWorkUnitClient{
		items: []*WorkItem{{ID: 7, JobID: "J", InitialReportIndex: 1, Kind: "boom"}},
	}
	w := NewWorker(context.Background(), client)
	w.RegisterExecutor("boom", func(_ context.Context, _ *WorkItem) (WorkExecutor, error) {
		return &fakeExecutor{executeErr: errors.New("payload exploded")}, nil
	})

	performed, err := w.GetAndPerformWork(context.Background())
	assert.NoError(t, err)
	assert.True(t, performed)

	statuses := client.reported()
	assert.Len(t, statuses, 1)
	assert.True(t, statuses[0].Completed)
	assert.NotEmpty(t, statuses[0].Errors)
	assert.Contains(t, statuses[0].Errors[0].Message, "payload exploded")
}

func TestGetAndPerformWork_SuccessReportsCountersAndSampler(t *testing.T) {
	client := &fakeWorkUnitClient{
		items: []*WorkItem{{ID: 2, JobID: "J", InitialReportIndex: 1, Kind: "ok"}},
	}
	w := NewWorker(context.Background(), client)
	executor := &fakeExecutor{counters: []Counter{{Name: "elements", Kind: "sum", Value: 10}}}
	w.RegisterExecutor("ok", func(_ context.Context, _ *WorkItem) (WorkExecutor, error) {
		return executor, nil
	})

	performed, err := w.GetAndPerformWork(context.Background())
	assert.NoError(t, err)
	assert.True(t, performed)
	assert.Equal(t, 1, executor.executions)

	statuses := client.reported()
	assert.Len(t, statuses, 1)
	status := statuses[0]
	assert.True(t, status.Completed)
	assert.Empty(t, status.Errors)

	var names []string
	for _, update := range status.MetricUpdates {
		names = append(names, update.Name)
	}
	assert.Contains(t, names, "elements")
	assert.Contains(t, names, "state-sampler")
}

func TestExecuteWork_StartsAndStopsProgressReporting(t *testing.T) {
	w := NewWorker(context.Background(), &fakeWorkUnitClient{})
	updater := &fakeUpdater{}

	err := w.ExecuteWork(context.Background(), &fakeExecutor{}, updater)
	assert.NoError(t, err)
	assert.Equal(t, 1, updater.starts)
	assert.Equal(t, 1, updater.stops)
}

func TestExecuteWork_StopsProgressReportingOnFailure(t *testing.T) {
	w := NewWorker(context.Background(), &fakeWorkUnitClient{})
	updater := &fakeUpdater{}

	err := w.ExecuteWork(context.Background(), &fakeExecutor{executeErr: errors.New("boom")}, updater)
	assert.Error(t, err)
	assert.Equal(t, 1, updater.starts)
	assert.Equal(t, 1, updater.stops)
}

func TestGetAndPerformWork_FetchFailureStopsLoop(t *testing.T) {
	client := &fakeWorkUnitClient{fetchErr: fmt.Errorf("controller unreachable")}
	w := NewWorker(context.Background(), client)

	performed, err := w.GetAndPerformWork(context.Background())
	assert.Error(t, err)
	assert.False(t, performed)
	assert.Equal(t, Stopped, w.State())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	client := &fakeWorkUnitClient{}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(ctx, client, WithPollInterval(0))

	cancel()
	assert.NoError(t, w.Run(ctx))
	assert.Equal(t, Stopped, w.State())
}
