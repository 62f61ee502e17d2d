// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package audit

import (
	"context"
	"sync"
)

// DefaultCapacity is the entry bound for the in-memory store.
const DefaultCapacity = 1000

// MemoryStore is a bounded, concurrency-safe in-memory audit store. When
// the bound is reached the oldest entry is dropped.
type MemoryStore struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewMemoryStore factory to create a new instance.
func NewMemoryStore(
	capacity int,
) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &MemoryStore{
		capacity: capacity,
	}
}

// Write records one entry, evicting the oldest past capacity.
func (s *MemoryStore) Write(
	_ context.Context,
	entry Entry,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}

	return nil
}

// List returns a copy of the recorded entries, oldest first.
func (s *MemoryStore) List(
	_ context.Context,
) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out, nil
}
