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

package state

import (
	"fmt"
	"sync"

	"github.com/paneflow/paneflow/pkg/window"
)

// inMemStore is a Store backed by a process-local map. The durable backing
// store is an external collaborator; this implementation covers tests and
// single-process runs.
type inMemStore struct {
	lock sync.RWMutex
	kv   map[string][]byte
}

var _ Store = (*inMemStore)(nil)

// NewInMemStore returns an empty in-memory Store.
func NewInMemStore() Store {
	return &inMemStore{
		kv: make(map[string][]byte),
	}
}

func storeKey(tag Tag, w window.ID) string {
	return fmt.Sprintf("%s/%s", tag.Name, w.String())
}

func (s *inMemStore) Lookup(tag Tag, w window.ID) (any, bool, error) {
	s.lock.RLock()
	data, ok := s.kv[storeKey(tag, w)]
	s.lock.RUnlock()
	if !ok {
		return nil, false, nil
	}
	value, err := tag.Codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode value for tag %q: %w", tag.Name, err)
	}
	return value, true, nil
}

func (s *inMemStore) BulkLookup(tag Tag, windows []window.ID) (map[window.ID]any, error) {
	values := make(map[window.ID]any, len(windows))
	for _, w := range windows {
		value, found, err := s.Lookup(tag, w)
		if err != nil {
			return nil, err
		}
		if found {
			values[w] = value
		}
	}
	return values, nil
}

func (s *inMemStore) Put(tag Tag, w window.ID, value any) error {
	data, err := tag.Codec.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for tag %q: %w", tag.Name, err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.kv[storeKey(tag, w)] = data
	return nil
}

func (s *inMemStore) Remove(tag Tag, w window.ID) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.kv, storeKey(tag, w))
}
