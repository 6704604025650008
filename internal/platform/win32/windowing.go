//go:build windows

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

// Package win32 implements the platform capabilities on top of user32 and
// kernel32 through golang.org/x/sys/windows.
package win32

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

// Native is the real platform. A single value may be shared by the pump
// thread and any poster.
type Native struct {
	mu    sync.Mutex
	hinst windows.Handle
	// callbacks created by windows.NewCallback are never freed, keep one per class
	wndProcs map[string]uintptr
}

// New returns the native platform.
func New() *Native {
	return &Native{wndProcs: map[string]uintptr{}}
}

var (
	_ platform.Windowing     = (*Native)(nil)
	_ platform.Hooking       = (*Native)(nil)
	_ platform.WindowFinder  = (*Native)(nil)
	_ platform.Library       = (*Native)(nil)
	_ platform.DeviceDecoder = (*Native)(nil)
)

func (n *Native) instance() windows.Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hinst == 0 {
		// NULL gives the handle of the file used to create the calling process (.exe)
		h, _, _ := procGetModuleHandle.Call(0)
		n.hinst = windows.Handle(h)
	}
	return n.hinst
}

func (n *Native) RegisterClass(className string, proc platform.WindowProc) error {
	name, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return errors.Wrapf(err, "class name %q", className)
	}

	n.mu.Lock()
	cb, ok := n.wndProcs[className]
	if !ok {
		cb = windows.NewCallback(func(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
			return proc(platform.Handle(hwnd), msg, wParam, lParam)
		})
		n.wndProcs[className] = cb
	}
	n.mu.Unlock()

	var wc WNDCLASSEX
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	wc.LpfnWndProc = cb
	wc.LpszClassName = name
	wc.HInstance = n.instance()

	procSetLastError.Call(0)
	ret, _, callErr := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if ret == 0 {
		return errors.Wrap(callErr, "RegisterClassExW")
	}
	return nil
}

func (n *Native) CreateWindow(className, title string) (platform.Handle, error) {
	class, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return 0, errors.Wrapf(err, "class name %q", className)
	}
	text, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, errors.Wrapf(err, "window title %q", title)
	}

	hwnd, _, callErr := procCreateWindowEx.Call(
		WS_EX_TOPMOST,
		uintptr(unsafe.Pointer(class)),
		uintptr(unsafe.Pointer(text)),
		0,          // no style bits: never shown
		0, 0, 0, 0, // zero size at the origin
		0,
		0,
		uintptr(n.instance()),
		0,
	)
	if hwnd == 0 {
		return 0, errors.Wrap(callErr, "CreateWindowExW")
	}
	return platform.Handle(hwnd), nil
}

func (n *Native) RegisterDeviceNotification(hwnd platform.Handle, class platform.GUID) error {
	filter := DEV_BROADCAST_DEVICEINTERFACE{
		DeviceType: DBT_DEVTYP_DEVICEINTERFACE,
		ClassGUID:  windows.GUID(class),
	}
	filter.Size = uint32(unsafe.Sizeof(filter))

	h, _, callErr := procRegisterDeviceNotification.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&filter)),
		DEVICE_NOTIFY_WINDOW_HANDLE,
	)
	if h == 0 {
		return errors.Wrapf(callErr, "RegisterDeviceNotificationW %v", class)
	}
	return nil
}

// RunMessageLoop drains the calling thread's queue. GetMessage returns 0 for
// WM_QUIT and -1 on failure.
func (n *Native) RunMessageLoop(_ platform.Handle) error {
	var msg MSG
	for {
		r, _, callErr := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(r) {
		case 0:
			return nil
		case -1:
			return errors.Wrap(callErr, "GetMessageW")
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func (n *Native) PostMessage(hwnd platform.Handle, msg uint32, wParam, lParam uintptr) error {
	ret, _, callErr := procPostMessage.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	if ret == 0 {
		return errors.Wrapf(callErr, "PostMessageW 0x%x", msg)
	}
	return nil
}

func (n *Native) PostQuit(code int) {
	procPostQuitMessage.Call(uintptr(code))
}

func (n *Native) DefWindowProc(hwnd platform.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	ret, _, _ := procDefWindowProc.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	return ret
}

func (n *Native) FindWindow(className string) (platform.Handle, error) {
	class, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return 0, errors.Wrapf(err, "class name %q", className)
	}
	hwnd, _, callErr := procFindWindowEx.Call(0, 0, uintptr(unsafe.Pointer(class)), 0)
	if hwnd == 0 {
		return 0, errors.Wrapf(callErr, "FindWindowExW %q", className)
	}
	return platform.Handle(hwnd), nil
}

func (n *Native) WindowThreadProcessID(hwnd platform.Handle) (uint32, uint32) {
	var pid uint32
	tid, _, _ := procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
	return uint32(tid), pid
}
