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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// panesFiredCount is used to indicate the number of panes emitted by timer firings
	panesFiredCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "trigger",
		Name:      "panes_fired_total",
		Help:      "Total number of panes fired",
	})

	// droppedElementsCount is used to indicate the number of elements dropped
	// because the trigger already finished for their window
	droppedElementsCount = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "trigger",
		Name:      "dropped_elements_total",
		Help:      "Total number of elements dropped after the trigger finished",
	})
)
