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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// workItemsFetchedCount is used to indicate the number of work items leased
	workItemsFetchedCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "worker",
		Name:      "workitems_fetched_total",
		Help:      "Total number of work items fetched from the controller",
	})

	// workItemsCompletedCount is used to indicate the number of work items completed successfully
	workItemsCompletedCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "worker",
		Name:      "workitems_completed_total",
		Help:      "Total number of work items completed successfully",
	})

	// workItemsFailedCount is used to indicate the number of work items that failed execution
	workItemsFailedCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "worker",
		Name:      "workitems_failed_total",
		Help:      "Total number of work items that failed execution",
	})

	// progressReportsCount is used to indicate the number of progress reports sent
	progressReportsCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "worker",
		Name:      "progress_reports_total",
		Help:      "Total number of progress reports sent",
	})
)
