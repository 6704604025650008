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

// Package platform is the thin capability layer between the sentinel logic and
// the native windowing API. The real implementation lives in platform/win32,
// tests use platform/platformtest.
package platform

import "fmt"

// Handle is an opaque native handle (HWND, HHOOK, HMODULE) as a plain integer.
type Handle uintptr

// WindowProc is the window procedure bound to a registered class. It runs on
// the thread that owns the window.
type WindowProc func(hwnd Handle, msg uint32, wParam, lParam uintptr) uintptr

// HookEntry is the address of a hook procedure exported by the module the
// hook is anchored to. Every process the OS maps that module into calls the
// same address, so it must be a static export of the module and not a
// callback created at run time by one loaded copy.
type HookEntry uintptr

// GUID mirrors the native GUID layout.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// GUID_DEVINTERFACE_MONITOR is the device interface class of display monitors.
var GUID_DEVINTERFACE_MONITOR = GUID{0xe6f07b5f, 0xee97, 0x4a90, [8]byte{0xb0, 0x76, 0x33, 0xf5, 0x7b, 0xf4, 0xea, 0xa7}}

// Win32 message constants used by the sentinel.
const (
	WM_DESTROY      = 0x0002
	WM_CLOSE        = 0x0010
	WM_QUIT         = 0x0012
	WM_DEVICECHANGE = 0x0219
	WM_APP          = 0x8000

	DBT_DEVICEARRIVAL        = 0x8000
	DBT_DEVICEREMOVECOMPLETE = 0x8004
)

// Windowing creates the sentinel window and drains its queue. Every method
// except PostMessage must be called on the thread that runs RunMessageLoop.
type Windowing interface {
	RegisterClass(className string, proc WindowProc) error
	CreateWindow(className, title string) (Handle, error)
	RegisterDeviceNotification(hwnd Handle, class GUID) error
	// RunMessageLoop blocks retrieving and dispatching messages until a quit
	// is posted on the calling thread.
	RunMessageLoop(hwnd Handle) error
	PostMessage(hwnd Handle, msg uint32, wParam, lParam uintptr) error
	PostQuit(code int)
	DefWindowProc(hwnd Handle, msg uint32, wParam, lParam uintptr) uintptr
}

// HookKind identifies one of the chained message hooks, in install order.
type HookKind int

const (
	HookCallWndProc HookKind = iota
	HookCallWndProcRet
	HookGetMessage
)

// HookKinds lists every hook in the order they are installed.
var HookKinds = [...]HookKind{HookCallWndProc, HookCallWndProcRet, HookGetMessage}

func (k HookKind) String() string {
	switch k {
	case HookCallWndProc:
		return "win_proc_hook"
	case HookCallWndProcRet:
		return "win_proc_ret_hook"
	case HookGetMessage:
		return "get_message_hook"
	}
	return fmt.Sprintf("hook(%d)", int(k))
}

// HookRecord is the part of an intercepted call that observers care about.
type HookRecord struct {
	Window  Handle
	Message uint32
}

// Hooking installs thread-scoped message hooks and reads their payloads.
type Hooking interface {
	InstallHook(kind HookKind, entry HookEntry, module Handle, threadID uint32) (Handle, error)
	CallNextHook(code int32, wParam, lParam uintptr) uintptr
	// HookRecord decodes the OS structure lParam points to. It reports false for
	// a nil payload.
	HookRecord(kind HookKind, lParam uintptr) (HookRecord, bool)
	ClassName(hwnd Handle) string
}

// WindowFinder locates top-level windows by class.
type WindowFinder interface {
	FindWindow(className string) (Handle, error)
	WindowThreadProcessID(hwnd Handle) (threadID, processID uint32)
}

// Poster is the subset of Windowing needed to post into another window's queue.
type Poster interface {
	PostMessage(hwnd Handle, msg uint32, wParam, lParam uintptr) error
}

// Library loads shared libraries.
type Library interface {
	Load(path string) (Module, error)
}

// Module is a loaded shared library.
type Module interface {
	Call(proc string, args ...uintptr) (uintptr, error)
	Release() error
}

// DeviceEventKind says what happened to a device interface.
type DeviceEventKind int

const (
	DeviceArrived DeviceEventKind = iota
	DeviceRemoved
)

func (k DeviceEventKind) String() string {
	if k == DeviceArrived {
		return "arrived"
	}
	return "removed"
}

// DeviceEvent is a decoded device-interface notification.
type DeviceEvent struct {
	Kind  DeviceEventKind
	Class GUID
	Name  string
}

// DeviceDecoder reads the payload of WM_DEVICECHANGE.
type DeviceDecoder interface {
	DecodeDeviceChange(wParam, lParam uintptr) (DeviceEvent, bool)
}
