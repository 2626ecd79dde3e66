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

// Package state implements the tagged per-window key-value store used by
// triggers. Values are stored coded; the codec travels with the tag so that
// every reader and writer of a tag agrees on the representation.
package state

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/paneflow/paneflow/pkg/window"
)

// Codec encodes and decodes a tagged value.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Tag addresses one per-window state slot.
type Tag struct {
	Name  string
	Codec Codec
}

// TimeTag returns a tag holding a single instant.
func TimeTag(name string) Tag {
	return Tag{Name: name, Codec: timeCodec{}}
}

// timeCodec codes an instant as big-endian unix milliseconds.
type timeCodec struct{}

func (timeCodec) Encode(value any) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("time codec cannot encode %T", value)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.UnixMilli()))
	return buf[:], nil
}

func (timeCodec) Decode(data []byte) (any, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("time codec expects 8 bytes, got %d", len(data))
	}
	return time.UnixMilli(int64(binary.BigEndian.Uint64(data))), nil
}

// Store is the per-window tagged state store. Absence is reported
// distinctly from any stored value. Implementations must provide
// read-your-writes consistency within a single trigger invocation.
type Store interface {
	// Lookup returns the decoded value stored under (tag, window), or
	// found=false when nothing is stored.
	Lookup(tag Tag, w window.ID) (value any, found bool, err error)
	// BulkLookup returns the decoded values for each of the given windows.
	// Windows with nothing stored are omitted from the result.
	BulkLookup(tag Tag, windows []window.ID) (map[window.ID]any, error)
	// Put stores the coded value under (tag, window), replacing any prior one.
	Put(tag Tag, w window.ID, value any) error
	// Remove deletes the slot for (tag, window). Removing an absent slot
	// is a no-op.
	Remove(tag Tag, w window.ID)
}
