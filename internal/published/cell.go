// Copyright 2026 workturnedplay
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package published holds values that go from unset to set exactly once and
// are then read lock-free from any goroutine or OS thread.
package published

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyPublished is returned when Publish is called on a cell that is already set.
var ErrAlreadyPublished = errors.New("value already published")

// Cell is a write-once value. The zero Cell is unset and ready for use.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// Publish stores v if the cell is still unset. The first caller wins, every
// later call leaves the stored value untouched and returns ErrAlreadyPublished.
func (c *Cell[T]) Publish(v T) error {
	if !c.p.CompareAndSwap(nil, &v) {
		return ErrAlreadyPublished
	}
	return nil
}

// Load returns the published value, or the zero value and false when unset.
func (c *Cell[T]) Load() (T, bool) {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Ready reports whether a value was published.
func (c *Cell[T]) Ready() bool {
	return c.p.Load() != nil
}
