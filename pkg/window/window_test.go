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

package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnion(t *testing.T) {
	w1 := ID{Start: time.UnixMilli(100), End: time.UnixMilli(200), Slot: "slot-0"}
	w2 := ID{Start: time.UnixMilli(50), End: time.UnixMilli(150), Slot: "slot-0"}
	w3 := ID{Start: time.UnixMilli(180), End: time.UnixMilli(400), Slot: "slot-0"}

	merged := Union(w1, w2, w3)
	assert.Equal(t, time.UnixMilli(50), merged.Start)
	assert.Equal(t, time.UnixMilli(400), merged.End)
	assert.Equal(t, "slot-0", merged.Slot)

	assert.Equal(t, w1, Union(w1))
	assert.Equal(t, ID{}, Union())
}

func TestMaxTimestamp(t *testing.T) {
	assert.True(t, MaxTimestamp.After(time.Now().Add(100*365*24*time.Hour)))
}

func TestTimeDomainString(t *testing.T) {
	assert.Equal(t, "ProcessingTime", ProcessingTime.String())
	assert.Equal(t, "EventTime", EventTime.String())
	assert.Equal(t, "Unknown", TimeDomain(42).String())
}

func TestMaxTimestampOf(t *testing.T) {
	w := ID{Start: time.UnixMilli(0), End: time.UnixMilli(1000)}
	assert.Equal(t, time.UnixMilli(999), MaxTimestampOf(w))
}
