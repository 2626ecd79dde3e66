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
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/paneflow/paneflow/pkg/shared/logging"
)

// progressReporter is the default ProgressUpdater. It reports incomplete
// statuses for the leased item on a periodic tick for the duration of one
// ExecuteWork call. Start is one-shot; Stop is idempotent, safe when not
// started, and blocks until the reporting goroutine has fully exited, so no
// report is ever sent after Stop returns.
type progressReporter struct {
	client   WorkUnitClient
	workItem *WorkItem
	executor WorkExecutor
	// reportIndex is shared with the loop's final status report so the
	// per-item index stays monotonic across progress and final reports.
	reportIndex *atomic.Int64
	period      time.Duration
	started     atomic.Bool
	stopOnce    sync.Once
	stopCh      chan struct{}
	wg          sync.WaitGroup
	log         *zap.SugaredLogger
}

var _ ProgressUpdater = (*progressReporter)(nil)

func newProgressReporter(ctx context.Context, client WorkUnitClient, workItem *WorkItem,
	executor WorkExecutor, reportIndex *atomic.Int64, period time.Duration) *progressReporter {
	return &progressReporter{
		client:      client,
		workItem:    workItem,
		executor:    executor,
		reportIndex: reportIndex,
		period:      period,
		stopCh:      make(chan struct{}),
		log:         logging.FromContext(ctx).With("workItemID", workItem.ID),
	}
}

func (r *progressReporter) StartReportingProgress() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.wg.Add(1)
	go r.run()
}

func (r *progressReporter) StopReportingProgress() {
	if !r.started.Load() {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *progressReporter) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reportOnce()
		}
	}
}

func (r *progressReporter) reportOnce() {
	var progress *Progress
	if r.executor != nil {
		progress = r.executor.Progress()
	}
	index := r.reportIndex.Inc() - 1
	status := BuildStatus(r.workItem, index, false, progress, nil, nil, nil, nil, nil, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), r.period)
	defer cancel()
	if err := r.client.ReportWorkItemStatus(ctx, status); err != nil {
		r.log.Errorw("Failed to report progress", zap.Error(err))
		return
	}
	progressReportsCount.Inc()
}
