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

package hook

import (
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/published"
)

// Observation is what one hook callback saw.
type Observation struct {
	Kind    platform.HookKind
	Window  platform.Handle
	Class   string
	Message uint32
}

// Observer receives observations inline on the hooked thread. It must not block.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Observation)

func (f ObserverFunc) Observe(ob Observation) { f(ob) }

// Observers fans an observation out in slice order.
type Observers []Observer

func (o Observers) Observe(ob Observation) {
	for _, each := range o {
		each.Observe(ob)
	}
}

// LogObserver writes one diagnostic line per observation.
type LogObserver struct {
	Logger log.FieldLogger
}

func (o LogObserver) Observe(ob Observation) {
	o.Logger.WithFields(log.Fields{
		"message": fmt.Sprintf("0x%04X", ob.Message),
	}).Debugf("%v Window: %08X Class: %s", ob.Kind, uintptr(ob.Window), ob.Class)
}

// ForwardedMessage carries an observation to the sentinel window.
// wParam is the observed window, lParam packs kind<<16 | message&0xFFFF.
const ForwardedMessage = platform.WM_APP + 0x5E

// EncodeForwarded packs ob into ForwardedMessage parameters. The class name
// is not carried; the receiver can look it up from the window.
func EncodeForwarded(ob Observation) (wParam, lParam uintptr) {
	return uintptr(ob.Window), uintptr(ob.Kind)<<16 | uintptr(ob.Message&0xFFFF)
}

// DecodeForwarded reverses EncodeForwarded.
func DecodeForwarded(msg uint32, wParam, lParam uintptr) (Observation, bool) {
	if msg != ForwardedMessage {
		return Observation{}, false
	}
	kind := platform.HookKind(lParam >> 16 & 0xFFFF)
	known := false
	for _, k := range platform.HookKinds {
		known = known || k == kind
	}
	if !known {
		return Observation{}, false
	}
	return Observation{
		Kind:    kind,
		Window:  platform.Handle(wParam),
		Message: uint32(lParam & 0xFFFF),
	}, true
}

// DefaultLookupInterval throttles searches for a sentinel window that is not
// there yet.
const DefaultLookupInterval = time.Second

// Forwarder posts observations to the sentinel window found by class name.
// The window is looked up lazily because this copy of the library may be
// running inside another process, where nothing was configured with it.
// Once found, the handle is kept.
type Forwarder struct {
	poster    platform.Poster
	finder    platform.WindowFinder
	className string
	interval  time.Duration
	now       func() time.Time

	target     published.Cell[platform.Handle]
	lastLookup atomic.Int64

	posted  atomic.Uint64
	dropped atomic.Uint64
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

func WithLookupInterval(d time.Duration) ForwarderOption {
	return func(f *Forwarder) { f.interval = d }
}

// WithClock is for tests.
func WithClock(now func() time.Time) ForwarderOption {
	return func(f *Forwarder) { f.now = now }
}

func NewForwarder(poster platform.Poster, finder platform.WindowFinder, className string, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		poster:    poster,
		finder:    finder,
		className: className,
		interval:  DefaultLookupInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forwarder) Observe(ob Observation) {
	target, ok := f.resolve()
	if !ok || ob.Window == target {
		f.dropped.Add(1)
		return
	}
	w, l := EncodeForwarded(ob)
	if err := f.poster.PostMessage(target, ForwardedMessage, w, l); err != nil {
		f.dropped.Add(1)
		return
	}
	f.posted.Add(1)
}

func (f *Forwarder) resolve() (platform.Handle, bool) {
	if h, ok := f.target.Load(); ok {
		return h, true
	}
	now := f.now().UnixNano()
	last := f.lastLookup.Load()
	if last != 0 && now-last < int64(f.interval) {
		return 0, false
	}
	if !f.lastLookup.CompareAndSwap(last, now) {
		return 0, false
	}
	h, err := f.finder.FindWindow(f.className)
	if err != nil || h == 0 {
		return 0, false
	}
	// a concurrent winner published the same window
	_ = f.target.Publish(h)
	return f.target.Load()
}

// Target returns the sentinel window once it has been found.
func (f *Forwarder) Target() (platform.Handle, bool) {
	return f.target.Load()
}

// ForwarderStats counts posted and dropped observations.
type ForwarderStats struct {
	Posted  uint64
	Dropped uint64
}

func (f *Forwarder) Stats() ForwarderStats {
	return ForwarderStats{Posted: f.posted.Load(), Dropped: f.dropped.Load()}
}
