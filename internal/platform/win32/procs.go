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

package win32

import (
	"golang.org/x/sys/windows"
)

/* ---------------- DLLs & Procs ---------------- */

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassEx            = user32.NewProc("RegisterClassExW")
	procCreateWindowEx             = user32.NewProc("CreateWindowExW")
	procDefWindowProc              = user32.NewProc("DefWindowProcW")
	procRegisterDeviceNotification = user32.NewProc("RegisterDeviceNotificationW")
	procGetMessage                 = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessage            = user32.NewProc("DispatchMessageW")
	procPostMessage                = user32.NewProc("PostMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")

	procSetWindowsHookEx = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx   = user32.NewProc("CallNextHookEx")
	procGetClassName     = user32.NewProc("GetClassNameW")

	procFindWindowEx             = user32.NewProc("FindWindowExW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")

	procGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
	procSetLastError    = kernel32.NewProc("SetLastError")
	procCreateMutex     = kernel32.NewProc("CreateMutexW")
	procReleaseMutex    = kernel32.NewProc("ReleaseMutex")
	procCloseHandle     = kernel32.NewProc("CloseHandle")
)

/* ---------------- Constants ---------------- */

const (
	WS_EX_TOPMOST = 0x00000008

	WH_GETMESSAGE     = 3
	WH_CALLWNDPROC    = 4
	WH_CALLWNDPROCRET = 12

	DEVICE_NOTIFY_WINDOW_HANDLE = 0x00000000
	DBT_DEVTYP_DEVICEINTERFACE  = 0x00000005

	classNameBufLen = 512
)

/* ---------------- Types ---------------- */

type WNDCLASSEX struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

type POINT struct {
	X, Y int32
}

type MSG struct {
	HWnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}

// CWPSTRUCT is what WH_CALLWNDPROC hooks receive in lParam.
type CWPSTRUCT struct {
	LParam  uintptr
	WParam  uintptr
	Message uint32
	HWnd    windows.Handle
}

// CWPRETSTRUCT is what WH_CALLWNDPROCRET hooks receive in lParam.
type CWPRETSTRUCT struct {
	LResult uintptr
	LParam  uintptr
	WParam  uintptr
	Message uint32
	HWnd    windows.Handle
}

type DEV_BROADCAST_HDR struct {
	Size       uint32
	DeviceType uint32
	Reserved   uint32
}

// DEV_BROADCAST_DEVICEINTERFACE is the W variant; Name is variable length.
type DEV_BROADCAST_DEVICEINTERFACE struct {
	Size       uint32
	DeviceType uint32
	Reserved   uint32
	ClassGUID  windows.GUID
	Name       [1]uint16
}
