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
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

func hookID(kind platform.HookKind) (uintptr, error) {
	switch kind {
	case platform.HookCallWndProc:
		return WH_CALLWNDPROC, nil
	case platform.HookCallWndProcRet:
		return WH_CALLWNDPROCRET, nil
	case platform.HookGetMessage:
		return WH_GETMESSAGE, nil
	}
	return 0, fmt.Errorf("unknown hook kind %d", int(kind))
}

// InstallHook installs entry for one thread. For a thread of another process
// the OS maps module there and calls entry inside that copy, so entry must be
// an export of module. A windows.NewCallback trampoline only exists in the
// runtime that created it and cannot be used here.
func (n *Native) InstallHook(kind platform.HookKind, entry platform.HookEntry, module platform.Handle, threadID uint32) (platform.Handle, error) {
	id, err := hookID(kind)
	if err != nil {
		return 0, err
	}
	if entry == 0 {
		return 0, errors.Errorf("no entry point for %v", kind)
	}
	h, _, callErr := procSetWindowsHookEx.Call(id, uintptr(entry), uintptr(module), uintptr(threadID))
	if h == 0 {
		return 0, errors.Wrapf(callErr, "SetWindowsHookExW(%v, thread %d)", kind, threadID)
	}
	return platform.Handle(h), nil
}

// CallNextHook forwards to the next hook. The hook handle argument is ignored
// by the OS and always passed as 0.
func (n *Native) CallNextHook(code int32, wParam, lParam uintptr) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

// HookRecord reads the OS-owned structure lParam points to, valid only for
// the duration of the hook call.
func (n *Native) HookRecord(kind platform.HookKind, lParam uintptr) (platform.HookRecord, bool) {
	if lParam == 0 {
		return platform.HookRecord{}, false
	}
	switch kind {
	case platform.HookCallWndProc:
		// nolint:govet //for unsafeptr
		s := (*CWPSTRUCT)(unsafe.Pointer(lParam))
		return platform.HookRecord{Window: platform.Handle(s.HWnd), Message: s.Message}, true
	case platform.HookCallWndProcRet:
		// nolint:govet //for unsafeptr
		s := (*CWPRETSTRUCT)(unsafe.Pointer(lParam))
		return platform.HookRecord{Window: platform.Handle(s.HWnd), Message: s.Message}, true
	case platform.HookGetMessage:
		// nolint:govet //for unsafeptr
		m := (*MSG)(unsafe.Pointer(lParam))
		return platform.HookRecord{Window: platform.Handle(m.HWnd), Message: m.Message}, true
	}
	return platform.HookRecord{}, false
}

func (n *Native) ClassName(hwnd platform.Handle) string {
	if hwnd == 0 {
		return ""
	}
	buf := make([]uint16, classNameBufLen)
	ret, _, _ := procGetClassName.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ret == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:ret])
}

// PinModule returns the handle of the loaded image containing addr and keeps
// that image loaded until the process exits. A Go runtime cannot be unloaded,
// and the OS unloads a hook module from foreign processes once its hooks go.
func PinModule(addr uintptr) (platform.Handle, error) {
	var h windows.Handle
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS|windows.GET_MODULE_HANDLE_EX_FLAG_PIN,
		(*uint16)(unsafe.Pointer(addr)), // nolint:govet //for unsafeptr
		&h,
	)
	if err != nil {
		return 0, errors.Wrap(err, "GetModuleHandleExW")
	}
	return platform.Handle(h), nil
}
