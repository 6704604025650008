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

package logging

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const attemptAtomicSwapThisManyTimes uint = 100

// slowWrite is roughly one frame; a write slower than this is reported.
const slowWrite = 16 * time.Millisecond

// AsyncWriter hands log lines to a background worker so the caller (a pump
// thread or a hook running inside someone else's thread) never blocks on I/O.
// When the buffer is full the line is dropped and counted.
type AsyncWriter struct {
	out      io.Writer
	ch       chan []byte
	size     uint64
	done     chan struct{}
	closed   atomic.Bool
	closeMu  sync.RWMutex
	dropped  atomic.Uint64
	peak     atomic.Uint64
	written  atomic.Uint64
	slow     atomic.Uint64
	failures atomic.Uint64
}

// Stats is a snapshot of AsyncWriter counters.
type Stats struct {
	Written uint64
	Dropped uint64
	// Peak is the most lines seen queued at once.
	Peak uint64
	Slow uint64
	// Failures counts writes to the underlying writer that returned an error.
	Failures uint64
}

// NewAsyncWriter starts the worker. size is the number of lines buffered.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	if size < 1 {
		size = 1
	}
	w := &AsyncWriter{
		out:  out,
		ch:   make(chan []byte, size),
		size: uint64(size),
		done: make(chan struct{}),
	}
	go w.worker()
	return w
}

// Write enqueues a copy of p. It never blocks and always reports len(p) so a
// logger does not treat a dropped line as a failure.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed.Load() {
		w.dropped.Add(1)
		return len(p), nil
	}

	w.notePeak(uint64(len(w.ch)) + 1)

	line := append([]byte(nil), p...)
	// select with default makes this NON-BLOCKING
	select {
	case w.ch <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// notePeak raises the high water mark without ever lowering a value stored
// by another goroutine.
func (w *AsyncWriter) notePeak(depth uint64) {
	for range attemptAtomicSwapThisManyTimes {
		old := w.peak.Load()
		if depth <= old {
			return
		}
		if w.peak.CompareAndSwap(old, depth) {
			return
		}
	}
	// Contended past reason; the peak is only a statistic.
}

func (w *AsyncWriter) worker() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "![CRITICAL ERROR IN log worker]: '%v'\n%s\n----snip----\n", r, debug.Stack())
		}
	}()

	for line := range w.ch {
		start := time.Now()
		if _, err := w.out.Write(line); err != nil {
			w.failures.Add(1)
			continue
		}
		if time.Since(start) > slowWrite {
			w.slow.Add(1)
		}
		w.written.Add(1)
	}
}

// Close stops accepting lines and waits for the backlog to be written.
// Calling Close more than once is harmless.
func (w *AsyncWriter) Close() error {
	w.closeMu.Lock()
	if w.closed.Swap(true) {
		w.closeMu.Unlock()
		<-w.done
		return nil
	}
	close(w.ch)
	w.closeMu.Unlock()
	<-w.done
	return nil
}

// Stats returns the current counters.
func (w *AsyncWriter) Stats() Stats {
	return Stats{
		Written:  w.written.Load(),
		Dropped:  w.dropped.Load(),
		Peak:     w.peak.Load(),
		Slow:     w.slow.Load(),
		Failures: w.failures.Load(),
	}
}

// Capacity is the number of lines the buffer holds.
func (w *AsyncWriter) Capacity() uint64 {
	return w.size
}
