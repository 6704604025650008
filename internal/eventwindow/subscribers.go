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

package eventwindow

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Callback receives every message the sentinel window gets. A returned error
// is logged and does not affect other callbacks.
type Callback func(msg uint32, wParam, lParam uintptr) error

// Sink is what the window procedure hands messages to.
type Sink interface {
	Notify(msg uint32, wParam, lParam uintptr)
}

// SubscriberStats counts callback outcomes.
type SubscriberStats struct {
	Delivered uint64
	Failed    uint64
	Panicked  uint64
}

// Subscribers is an append-only, ordered list of callbacks. It is a Sink.
type Subscribers struct {
	mu        sync.Mutex
	callbacks []Callback
	logger    log.FieldLogger

	delivered atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// NewSubscribers returns an empty list logging failures to logger.
func NewSubscribers(logger log.FieldLogger) *Subscribers {
	return &Subscribers{logger: logger}
}

// Add appends cb. Safe from any goroutine, including from inside a callback,
// in which case cb first sees the next message.
func (s *Subscribers) Add(cb Callback) {
	if cb == nil {
		return
	}
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// Len returns the number of callbacks.
func (s *Subscribers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

// Notify calls every callback in registration order, one at a time, on the
// calling goroutine. The lock is held only to take a snapshot of the list;
// callbacks run outside it so they may call Add without deadlocking, and a
// callback added during a Notify is first called on the next one.
func (s *Subscribers) Notify(msg uint32, wParam, lParam uintptr) {
	// The list only grows, so the prefix captured here never changes under us.
	s.mu.Lock()
	callbacks := s.callbacks[:len(s.callbacks):len(s.callbacks)]
	s.mu.Unlock()

	for i, cb := range callbacks {
		s.call(i, cb, msg, wParam, lParam)
	}
}

func (s *Subscribers) call(i int, cb Callback, msg uint32, wParam, lParam uintptr) {
	defer func() {
		if r := recover(); r != nil {
			s.panicked.Add(1)
			err := errors.Errorf("subscriber panicked: %v", r)
			s.logger.WithFields(log.Fields{
				"subscriber": i,
				"msg":        msg,
			}).Errorf("%+v", err)
		}
	}()

	if err := cb(msg, wParam, lParam); err != nil {
		s.failed.Add(1)
		s.logger.WithFields(log.Fields{
			"subscriber": i,
			"msg":        msg,
			"wParam":     wParam,
			"lParam":     lParam,
		}).WithError(err).Warn("subscriber failed")
		return
	}
	s.delivered.Add(1)
}

// Stats returns the outcome counters.
func (s *Subscribers) Stats() SubscriberStats {
	return SubscriberStats{
		Delivered: s.delivered.Load(),
		Failed:    s.failed.Load(),
		Panicked:  s.panicked.Load(),
	}
}
