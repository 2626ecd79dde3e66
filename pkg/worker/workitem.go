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
)

// WorkItem is one unit of work leased from the controller. It is consumed
// exactly once per fetch.
type WorkItem struct {
	ID                 int64  `json:"id"`
	JobID              string `json:"jobId"`
	InitialReportIndex int64  `json:"initialReportIndex"`
	// Kind selects the executor that runs the payload.
	Kind    string `json:"kind,omitempty"`
	Payload []byte `json:"payload,omitempty"`
}

// WorkItemError is one structured error entry in a status report.
type WorkItemError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// MetricUpdate is one metric entry in a status report. Scalar carries
// user-facing metric values; Internal carries opaque internal records such
// as the state-sampler snapshot.
type MetricUpdate struct {
	Kind     string  `json:"kind,omitempty"`
	Name     string  `json:"name"`
	Scalar   float64 `json:"scalar,omitempty"`
	Internal any     `json:"internal,omitempty"`
}

// Counter is a named counter exposed by an executor.
type Counter struct {
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Value any    `json:"value"`
}

// Progress is an approximate measure of how far an executor has gotten.
type Progress struct {
	PercentComplete float64 `json:"percentComplete"`
	Position        []byte  `json:"position,omitempty"`
}

// DynamicSplitResult describes the outcome of a dynamic work rebalancing
// request, opaque to the loop.
type DynamicSplitResult struct {
	StopPosition []byte `json:"stopPosition,omitempty"`
}

// SourceSplitShard is one shard descriptor produced by a source split.
type SourceSplitShard struct {
	// SourceSpec is the coded descriptor of the derived source.
	SourceSpec []byte `json:"sourceSpec,omitempty"`
}

// SourceSplitResponse is the result of splitting a source.
type SourceSplitResponse struct {
	Shards []SourceSplitShard `json:"shards,omitempty"`
}

// SourceOperationResponse is the result of a source operation work item.
type SourceOperationResponse struct {
	Split *SourceSplitResponse `json:"split,omitempty"`
}

// WorkItemStatus is the report pushed back to the controller for one work
// item. ReportIndex must match the index the controller expects for the
// item and is monotonic per item.
type WorkItemStatus struct {
	WorkItemID              int64                    `json:"workItemId"`
	ReportIndex             int64                    `json:"reportIndex"`
	Completed               bool                     `json:"completed"`
	Errors                  []WorkItemError          `json:"errors,omitempty"`
	MetricUpdates           []MetricUpdate           `json:"metricUpdates,omitempty"`
	Progress                *Progress                `json:"progress,omitempty"`
	SourceOperationResponse *SourceOperationResponse `json:"sourceOperationResponse,omitempty"`
	DynamicSourceSplit      *DynamicSplitResult      `json:"dynamicSourceSplit,omitempty"`
	DurationMillis          int64                    `json:"durationMillis,omitempty"`
}

// WorkUnitClient is the pull/push interface to the controller.
type WorkUnitClient interface {
	// GetWorkItem leases one work item. A nil item with a nil error means
	// no work is available right now; that is not an error.
	GetWorkItem(ctx context.Context) (*WorkItem, error)
	// ReportWorkItemStatus pushes one status report for a leased item.
	ReportWorkItemStatus(ctx context.Context, status *WorkItemStatus) error
}

// WorkExecutor executes one work item's payload. It is opaque to the loop,
// which treats Execute as a blocking call.
type WorkExecutor interface {
	// Execute runs the payload to completion or failure.
	Execute(ctx context.Context) error
	// Progress returns the executor's current approximate progress, nil if unknown.
	Progress() *Progress
	// Counters returns the executor's counters for status reporting.
	Counters() []Counter
	// Close releases the executor's resources.
	Close() error
}

// ProgressUpdater reports execution progress on its own schedule while an
// executor runs. Stop must be idempotent and must guarantee no further
// reports are sent after it returns.
type ProgressUpdater interface {
	StartReportingProgress()
	StopReportingProgress()
}

// ExecutorFactory builds an executor for a leased work item.
type ExecutorFactory func(ctx context.Context, workItem *WorkItem) (WorkExecutor, error)
