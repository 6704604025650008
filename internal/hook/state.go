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

// Package hook is the body of the hook library: it installs three message
// hooks on one thread and observes what that thread's window procedures and
// message retrieval see. Hook callbacks run inline inside the target thread,
// so they never block and never let a failure escape the chain.
package hook

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/logging"
	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/published"
)

// Reason is the loader notification code, numbered as DllMain receives it.
type Reason uint32

const (
	ProcessDetach Reason = 0
	ProcessAttach Reason = 1
	ThreadAttach  Reason = 2
	ThreadDetach  Reason = 3
)

func (r Reason) String() string {
	switch r {
	case ProcessDetach:
		return "DLL_PROCESS_DETACH"
	case ProcessAttach:
		return "DLL_PROCESS_ATTACH"
	case ThreadAttach:
		return "DLL_THREAD_ATTACH"
	case ThreadDetach:
		return "DLL_THREAD_DETACH"
	}
	return fmt.Sprintf("reason(%d)", uint32(r))
}

// State is the hook chain of one loaded copy of the library.
//
// Install is expected once, early, from a single thread; the fields it writes
// are not synchronised. Counters are atomic because callbacks may run on
// several threads of the host process.
type State struct {
	native   platform.Hooking
	observer Observer
	logger   log.FieldLogger

	module   platform.Handle
	entries  EntryPoints
	threadID uint32
	hooks    [len(platform.HookKinds)]platform.Handle

	observed  atomic.Uint64
	recovered atomic.Uint64
}

// Option configures a State.
type Option func(*State)

// WithObserver replaces the default diagnostic observer.
func WithObserver(o Observer) Option {
	return func(s *State) { s.observer = o }
}

// EntryPoints holds the exported hook procedure of each kind, indexed by
// HookKind.
type EntryPoints [len(platform.HookKinds)]platform.HookEntry

// WithEntryPoints sets the addresses Install hands to the OS.
func WithEntryPoints(e EntryPoints) Option {
	return func(s *State) { s.entries = e }
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *State) { s.logger = l }
}

// NewState returns a State with no module handle and no hooks.
func NewState(native platform.Hooking, opts ...Option) *State {
	s := &State{native: native}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.observer == nil {
		s.observer = LogObserver{Logger: s.logger}
	}
	return s
}

// Notify handles a loader notification and always reports success. Detach
// leaves the hooks alone: the OS revokes hooks of a module being unloaded.
func (s *State) Notify(reason Reason, module platform.Handle) bool {
	switch reason {
	case ProcessAttach:
		s.logger.Debug("DllMain: DLL_PROCESS_ATTACH")
		s.Attach(module)
	case ProcessDetach:
		s.Detach()
	case ThreadAttach, ThreadDetach:
	default:
		s.logger.WithField("reason", reason).Warn("DllMain: Unknown reason")
	}
	return true
}

// Attach records the library's own module handle, which every hook is
// anchored to.
func (s *State) Attach(module platform.Handle) {
	s.module = module
}

// Detach only reports what is still installed.
func (s *State) Detach() {
	s.logger.WithField("installed", len(s.Hooks())).Debug("DllMain: DLL_PROCESS_DETACH")
}

// Module returns the recorded module handle.
func (s *State) Module() (platform.Handle, bool) {
	return s.module, s.module != 0
}

// Install installs, in order, the pre-call window procedure hook, the
// post-call hook and the message retrieval hook on threadID. On the first
// failure it returns at once: earlier hooks are not rolled back and later
// ones are not attempted.
func (s *State) Install(threadID uint32) error {
	if s.module == 0 {
		s.logger.WithField("thread", threadID).Error("Failed to install hook: no module handle")
		return ErrModuleHandleUnavailable
	}
	for _, kind := range platform.HookKinds {
		if s.entries[kind] == 0 {
			s.logger.WithField("hook", kind).Error("Failed to install hook: no entry point")
			return &InstallError{Kind: kind, ThreadID: threadID, Err: ErrNoEntryPoint}
		}
	}
	s.logger.WithField("thread", threadID).Info("Installing hook")

	s.threadID = threadID
	for _, kind := range platform.HookKinds {
		h, err := s.native.InstallHook(kind, s.entries[kind], s.module, threadID)
		if err != nil {
			ierr := &InstallError{Kind: kind, ThreadID: threadID, Err: err}
			s.logger.WithError(err).WithField("hook", kind).Error("Failed to install hook")
			return ierr
		}
		s.hooks[kind] = h
	}
	return nil
}

// Hooks returns the installed hook handles in install order.
func (s *State) Hooks() []platform.Handle {
	var out []platform.Handle
	for _, h := range s.hooks {
		if h != 0 {
			out = append(out, h)
		}
	}
	return out
}

// ThreadID returns the thread passed to the last Install.
func (s *State) ThreadID() uint32 {
	return s.threadID
}

// Handle is the body shared by the three hook callbacks. A negative code
// must go straight to the next hook without touching the payload. In every
// case the result of the rest of the chain is returned.
func (s *State) Handle(kind platform.HookKind, code int32, wParam, lParam uintptr) uintptr {
	if code < 0 {
		return s.native.CallNextHook(code, wParam, lParam)
	}
	s.observe(kind, lParam)
	return s.native.CallNextHook(code, wParam, lParam)
}

func (s *State) observe(kind platform.HookKind, lParam uintptr) {
	defer func() {
		if r := recover(); r != nil {
			s.recovered.Add(1)
			s.logger.Errorf("%+v", errors.Errorf("%v observer panicked: %v", kind, r))
		}
	}()

	rec, ok := s.native.HookRecord(kind, lParam)
	if !ok {
		return
	}
	s.observed.Add(1)
	s.observer.Observe(Observation{
		Kind:    kind,
		Window:  rec.Window,
		Class:   s.native.ClassName(rec.Window),
		Message: rec.Message,
	})
}

// Stats counts what the callbacks did.
type Stats struct {
	Observed  uint64
	Recovered uint64
}

func (s *State) Stats() Stats {
	return Stats{
		Observed:  s.observed.Load(),
		Recovered: s.recovered.Load(),
	}
}

// current is a pointer so tests can start from an unbound cell.
var current = new(published.Cell[*State])

// Bind makes s the process-wide state reached by the library's exported
// entry points. Only the first call wins.
func Bind(s *State) error {
	return current.Publish(s)
}

// Default returns the bound state.
func Default() (*State, error) {
	s, ok := current.Load()
	if !ok || s == nil {
		return nil, ErrNoState
	}
	return s, nil
}

// Dispatch is what an exported hook entry point runs: it hands the call to
// the bound state, or straight to next when nothing is bound yet.
func Dispatch(next platform.Hooking, kind platform.HookKind, code int32, wParam, lParam uintptr) uintptr {
	s, err := Default()
	if err != nil {
		return next.CallNextHook(code, wParam, lParam)
	}
	return s.Handle(kind, code, wParam, lParam)
}
