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
	"fmt"

	"github.com/spf13/cast"
)

const (
	stateSamplerMetricKind = "internal"
	stateSamplerMetricName = "state-sampler"

	// shardOverheadBytes approximates the fixed wire cost of one shard
	// descriptor beyond its coded source spec.
	shardOverheadBytes = 16
)

// BuildStatus assembles a status report for workItem at reportIndex. It is
// pure assembly: ids and the report index are copied, errors become
// structured entries, counters become scalar metric updates, and when a
// state-sampler snapshot is supplied exactly one "internal" metric named
// "state-sampler" is appended with the snapshot taken verbatim.
func BuildStatus(workItem *WorkItem, reportIndex int64, completed bool, progress *Progress,
	sourceOperation *SourceOperationResponse, metricUpdates []MetricUpdate, errors []error,
	counters []Counter, dynamicSplit *DynamicSplitResult, durationMillis int64,
	samplerInfo *StateSamplerInfo) *WorkItemStatus {

	status := &WorkItemStatus{
		WorkItemID:              workItem.ID,
		ReportIndex:             reportIndex,
		Completed:               completed,
		Progress:                progress,
		SourceOperationResponse: sourceOperation,
		DynamicSourceSplit:      dynamicSplit,
		DurationMillis:          durationMillis,
	}

	for _, err := range errors {
		status.Errors = append(status.Errors, WorkItemError{
			Message: fmt.Sprintf("%T: %v", err, err),
		})
	}

	status.MetricUpdates = append(status.MetricUpdates, metricUpdates...)
	for _, counter := range counters {
		status.MetricUpdates = append(status.MetricUpdates, MetricUpdate{
			Kind:   counter.Kind,
			Name:   counter.Name,
			Scalar: cast.ToFloat64(counter.Value),
		})
	}

	if samplerInfo != nil {
		status.MetricUpdates = append(status.MetricUpdates, MetricUpdate{
			Kind: stateSamplerMetricKind,
			Name: stateSamplerMetricName,
			Internal: map[string]any{
				"last-state-name": samplerInfo.State,
				"num-transitions": samplerInfo.NumTransitions,
			},
		})
	}

	return status
}

// DetermineSplitResponseSize returns the size measure the controller uses
// to decide whether a split result must be truncated or sent out-of-band.
// The measure grows with shard count and with per-shard descriptor size.
func DetermineSplitResponseSize(response *SourceOperationResponse) int64 {
	if response == nil || response.Split == nil {
		return 0
	}
	var size int64
	for _, shard := range response.Split.Shards {
		size += shardOverheadBytes + int64(len(shard.SourceSpec))
	}
	return size
}
