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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestProgressReporter_ReportsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeWorkUnitClient{}
	workItem := &WorkItem{ID: 1, JobID: "J", InitialReportIndex: 3}
	index := atomic.NewInt64(workItem.InitialReportIndex)
	reporter := newProgressReporter(context.Background(), client, workItem, &fakeExecutor{}, index, 5*time.Millisecond)

	reporter.StartReportingProgress()
	assert.Eventually(t, func() bool {
		return len(client.reported()) >= 2
	}, time.Second, time.Millisecond)
	reporter.StopReportingProgress()

	statuses := client.reported()
	count := len(statuses)
	// every progress report is incomplete and indexes advance monotonically
	for i, status := range statuses {
		assert.False(t, status.Completed)
		assert.Equal(t, workItem.InitialReportIndex+int64(i), status.ReportIndex)
		assert.NotNil(t, status.Progress)
	}
	assert.Equal(t, index.Load(), workItem.InitialReportIndex+int64(count))

	// no reports after stop has returned
	time.Sleep(25 * time.Millisecond)
	assert.Len(t, client.reported(), count)
}

func TestProgressReporter_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeWorkUnitClient{}
	workItem := &WorkItem{ID: 1, InitialReportIndex: 1}
	reporter := newProgressReporter(context.Background(), client, workItem, nil, atomic.NewInt64(1), time.Hour)

	// stop before start is safe
	reporter.StopReportingProgress()

	reporter.StartReportingProgress()
	reporter.StopReportingProgress()
	reporter.StopReportingProgress()
	assert.Empty(t, client.reported())
}

func TestProgressReporter_StartIsOneShot(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeWorkUnitClient{}
	workItem := &WorkItem{ID: 1, InitialReportIndex: 1}
	reporter := newProgressReporter(context.Background(), client, workItem, nil, atomic.NewInt64(1), time.Hour)

	reporter.StartReportingProgress()
	reporter.StartReportingProgress()
	reporter.StopReportingProgress()
}
