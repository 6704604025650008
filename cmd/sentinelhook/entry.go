//go:build windows && cgo && (amd64 || arm64)

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

package main

/*
#include <stdint.h>

typedef intptr_t (*hook_proc)(int, uintptr_t, uintptr_t);

extern intptr_t win_proc_hook(int, uintptr_t, uintptr_t);
extern intptr_t win_proc_ret_hook(int, uintptr_t, uintptr_t);
extern intptr_t get_message_hook(int, uintptr_t, uintptr_t);
*/
import "C"

import (
	"unsafe"

	"github.com/workturnedplay/winsentinel/internal/hook"
	"github.com/workturnedplay/winsentinel/internal/platform"
)

// entryPoints returns the addresses of the exported hook procedures below.
func entryPoints() hook.EntryPoints {
	var e hook.EntryPoints
	e[platform.HookCallWndProc] = platform.HookEntry(unsafe.Pointer(C.hook_proc(C.win_proc_hook)))
	e[platform.HookCallWndProcRet] = platform.HookEntry(unsafe.Pointer(C.hook_proc(C.win_proc_ret_hook)))
	e[platform.HookGetMessage] = platform.HookEntry(unsafe.Pointer(C.hook_proc(C.get_message_hook)))
	return e
}

//export win_proc_hook
func win_proc_hook(code C.int, wParam, lParam C.uintptr_t) C.intptr_t {
	return C.intptr_t(hook.Dispatch(native, platform.HookCallWndProc, int32(code), uintptr(wParam), uintptr(lParam)))
}

//export win_proc_ret_hook
func win_proc_ret_hook(code C.int, wParam, lParam C.uintptr_t) C.intptr_t {
	return C.intptr_t(hook.Dispatch(native, platform.HookCallWndProcRet, int32(code), uintptr(wParam), uintptr(lParam)))
}

//export get_message_hook
func get_message_hook(code C.int, wParam, lParam C.uintptr_t) C.intptr_t {
	return C.intptr_t(hook.Dispatch(native, platform.HookGetMessage, int32(code), uintptr(wParam), uintptr(lParam)))
}
