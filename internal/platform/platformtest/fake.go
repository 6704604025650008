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

// Package platformtest provides an in-memory stand-in for the native
// windowing and hooking API. Its message queue behaves like a thread queue:
// posted messages are dispatched one at a time by whoever runs the loop.
package platformtest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

var (
	// ErrInvalidWindow is returned when posting to a window that does not exist
	// or whose loop has ended.
	ErrInvalidWindow = errors.New("invalid window handle")
	// ErrNoLibrary is returned by Load for an unknown path.
	ErrNoLibrary = errors.New("library not found")
	// ErrNoProc is returned by Module.Call for an unknown export.
	ErrNoProc = errors.New("procedure not found")
	// ErrNoWindow is returned by FindWindow for an unknown class.
	ErrNoWindow = errors.New("window not found")
)

type queued struct {
	hwnd   platform.Handle
	msg    uint32
	wParam uintptr
	lParam uintptr
}

// Fake implements every platform capability in memory. The zero value is not
// usable, call New.
type Fake struct {
	// Setup failures, consulted once per call.
	RegisterClassErr      error
	CreateWindowErr       error
	DeviceNotificationErr error
	// PanicOnCreate makes CreateWindow panic, to exercise bootstrap recovery.
	PanicOnCreate bool
	// HookErr fails InstallHook for the given kinds.
	HookErr map[platform.HookKind]error
	// Dispatch stands in for the module's exported hook entry points in Fire.
	Dispatch func(kind platform.HookKind, code int32, wParam, lParam uintptr) uintptr
	// NextHookResult is what CallNextHook returns.
	NextHookResult uintptr

	mu        sync.Mutex
	classes   map[string]platform.WindowProc
	windows   map[platform.Handle]string
	notified  []platform.Handle
	nextHwnd  platform.Handle
	hooks     []InstalledHook
	nextCalls []NextHookCall
	records   map[uintptr]platform.HookRecord
	names     map[platform.Handle]string
	found     map[string]platform.Handle
	threads   map[platform.Handle][2]uint32
	libs      map[string]*Module
	devices   map[uintptr]platform.DeviceEvent
	posted    []Posted
	defProcs  int

	queue    chan queued
	quit     atomic.Bool
	loopDone chan struct{}
	loopOnce sync.Once
}

// InstalledHook records one InstallHook call.
type InstalledHook struct {
	Kind     platform.HookKind
	Module   platform.Handle
	ThreadID uint32
	Handle   platform.Handle
	Entry    platform.HookEntry
}

// NextHookCall records one CallNextHook call.
type NextHookCall struct {
	Code   int32
	WParam uintptr
	LParam uintptr
}

// Posted records a successful PostMessage.
type Posted struct {
	Hwnd   platform.Handle
	Msg    uint32
	WParam uintptr
	LParam uintptr
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		HookErr:  map[platform.HookKind]error{},
		classes:  map[string]platform.WindowProc{},
		windows:  map[platform.Handle]string{},
		nextHwnd: 0x10000,
		records:  map[uintptr]platform.HookRecord{},
		names:    map[platform.Handle]string{},
		found:    map[string]platform.Handle{},
		threads:  map[platform.Handle][2]uint32{},
		libs:     map[string]*Module{},
		devices:  map[uintptr]platform.DeviceEvent{},
		queue:    make(chan queued, 256),
		loopDone: make(chan struct{}),
	}
}

var (
	_ platform.Windowing     = (*Fake)(nil)
	_ platform.Hooking       = (*Fake)(nil)
	_ platform.WindowFinder  = (*Fake)(nil)
	_ platform.Library       = (*Fake)(nil)
	_ platform.DeviceDecoder = (*Fake)(nil)
)

func (f *Fake) RegisterClass(className string, proc platform.WindowProc) error {
	if f.RegisterClassErr != nil {
		return f.RegisterClassErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes[className] = proc
	return nil
}

func (f *Fake) CreateWindow(className, _ string) (platform.Handle, error) {
	if f.PanicOnCreate {
		panic("CreateWindow exploded")
	}
	if f.CreateWindowErr != nil {
		return 0, f.CreateWindowErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.classes[className]; !ok {
		return 0, fmt.Errorf("class %q not registered", className)
	}
	f.nextHwnd += 0x10
	f.windows[f.nextHwnd] = className
	return f.nextHwnd, nil
}

func (f *Fake) RegisterDeviceNotification(hwnd platform.Handle, _ platform.GUID) error {
	if f.DeviceNotificationErr != nil {
		return f.DeviceNotificationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, hwnd)
	return nil
}

// DeviceNotifications returns the windows registered for device notifications.
func (f *Fake) DeviceNotifications() []platform.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Handle(nil), f.notified...)
}

// RunMessageLoop dispatches queued messages until PostQuit is called from a
// window procedure. Only one loop may run per fake.
func (f *Fake) RunMessageLoop(_ platform.Handle) error {
	defer f.loopOnce.Do(func() { close(f.loopDone) })
	for m := range f.queue {
		f.mu.Lock()
		proc := f.classes[f.windows[m.hwnd]]
		f.mu.Unlock()
		if proc != nil {
			proc(m.hwnd, m.msg, m.wParam, m.lParam)
		}
		if f.quit.Load() {
			return nil
		}
	}
	return nil
}

// LoopDone is closed when RunMessageLoop returns.
func (f *Fake) LoopDone() <-chan struct{} {
	return f.loopDone
}

func (f *Fake) PostMessage(hwnd platform.Handle, msg uint32, wParam, lParam uintptr) error {
	select {
	case <-f.loopDone:
		return ErrInvalidWindow
	default:
	}
	f.mu.Lock()
	_, ok := f.windows[hwnd]
	if ok {
		f.posted = append(f.posted, Posted{hwnd, msg, wParam, lParam})
	}
	f.mu.Unlock()
	if !ok {
		return ErrInvalidWindow
	}
	select {
	case f.queue <- queued{hwnd, msg, wParam, lParam}:
		return nil
	case <-f.loopDone:
		return ErrInvalidWindow
	}
}

// PostedMessages returns every message accepted by PostMessage.
func (f *Fake) PostedMessages() []Posted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Posted(nil), f.posted...)
}

func (f *Fake) PostQuit(int) {
	f.quit.Store(true)
}

// DefWindowProc destroys the window on WM_CLOSE, sending WM_DESTROY through
// its procedure the way the native default processing does.
func (f *Fake) DefWindowProc(hwnd platform.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	f.mu.Lock()
	f.defProcs++
	proc := f.classes[f.windows[hwnd]]
	f.mu.Unlock()
	if msg == platform.WM_CLOSE && proc != nil {
		proc(hwnd, platform.WM_DESTROY, 0, 0)
	}
	return 0
}

// DefWindowProcCalls counts DefWindowProc invocations.
func (f *Fake) DefWindowProcCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defProcs
}

func (f *Fake) InstallHook(kind platform.HookKind, entry platform.HookEntry, module platform.Handle, threadID uint32) (platform.Handle, error) {
	if err := f.HookErr[kind]; err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	h := platform.Handle(0x500 + len(f.hooks))
	f.hooks = append(f.hooks, InstalledHook{kind, module, threadID, h, entry})
	return h, nil
}

// Hooks returns the installed hooks in install order.
func (f *Fake) Hooks() []InstalledHook {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InstalledHook(nil), f.hooks...)
}

// Fire calls the installed hook of the given kind as the OS would, through
// Dispatch in place of the exported entry point.
func (f *Fake) Fire(kind platform.HookKind, code int32, wParam, lParam uintptr) uintptr {
	for _, h := range f.Hooks() {
		if h.Kind == kind {
			if f.Dispatch == nil {
				panic(fmt.Sprintf("%v hook installed at %#x but no Dispatch set", kind, uintptr(h.Entry)))
			}
			return f.Dispatch(kind, code, wParam, lParam)
		}
	}
	panic(fmt.Sprintf("no %v hook installed", kind))
}

func (f *Fake) CallNextHook(code int32, wParam, lParam uintptr) uintptr {
	f.mu.Lock()
	f.nextCalls = append(f.nextCalls, NextHookCall{code, wParam, lParam})
	f.mu.Unlock()
	return f.NextHookResult
}

// NextHookCalls returns every CallNextHook call in order.
func (f *Fake) NextHookCalls() []NextHookCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NextHookCall(nil), f.nextCalls...)
}

// SetRecord makes lParam decode to rec.
func (f *Fake) SetRecord(lParam uintptr, rec platform.HookRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[lParam] = rec
}

func (f *Fake) HookRecord(_ platform.HookKind, lParam uintptr) (platform.HookRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[lParam]
	return rec, ok
}

// SetClassName sets what ClassName reports for hwnd.
func (f *Fake) SetClassName(hwnd platform.Handle, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[hwnd] = name
}

func (f *Fake) ClassName(hwnd platform.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.names[hwnd]; ok {
		return name
	}
	return f.windows[hwnd]
}

// AddTopLevel registers a findable window owned by the given thread and process.
func (f *Fake) AddTopLevel(className string, hwnd platform.Handle, threadID, processID uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.found[className] = hwnd
	f.threads[hwnd] = [2]uint32{threadID, processID}
}

func (f *Fake) FindWindow(className string) (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.found[className]; ok {
		return h, nil
	}
	for h, c := range f.windows {
		if c == className {
			return h, nil
		}
	}
	return 0, ErrNoWindow
}

func (f *Fake) WindowThreadProcessID(hwnd platform.Handle) (uint32, uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.threads[hwnd]
	return t[0], t[1]
}

// Module is a fake loaded library.
type Module struct {
	Procs    map[string]func(args ...uintptr) uintptr
	released atomic.Bool
}

// Released reports whether Release was called.
func (m *Module) Released() bool {
	return m.released.Load()
}

func (m *Module) Call(proc string, args ...uintptr) (uintptr, error) {
	fn, ok := m.Procs[proc]
	if !ok {
		return 0, fmt.Errorf("%s: %w", proc, ErrNoProc)
	}
	return fn(args...), nil
}

func (m *Module) Release() error {
	m.released.Store(true)
	return nil
}

// AddLibrary makes path loadable.
func (f *Fake) AddLibrary(path string, m *Module) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libs[path] = m
}

func (f *Fake) Load(path string) (platform.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.libs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoLibrary)
	}
	return m, nil
}

// SetDevice makes lParam decode to ev.
func (f *Fake) SetDevice(lParam uintptr, ev platform.DeviceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[lParam] = ev
}

func (f *Fake) DecodeDeviceChange(wParam, lParam uintptr) (platform.DeviceEvent, bool) {
	if wParam != platform.DBT_DEVICEARRIVAL && wParam != platform.DBT_DEVICEREMOVECOMPLETE {
		return platform.DeviceEvent{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.devices[lParam]
	return ev, ok
}
