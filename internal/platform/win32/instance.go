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
)

type MutexScope int

const (
	MutexScopeSession MutexScope = iota
	MutexScopeMachine
)

func (s MutexScope) Prefix() string {
	switch s {
	case MutexScopeSession:
		return `Local\`
	case MutexScopeMachine:
		return `Global\`
	default:
		panic(fmt.Sprintf("Unhandled MutexScope value: %d", s))
	}
}

// Instance is an owned named mutex.
type Instance struct {
	handle uintptr
}

// AcquireInstance takes ownership of the named mutex. Two sentinel windows
// with the same class would make lookups by class ambiguous, so the host
// holds one of these while it runs.
func AcquireInstance(name string, scope MutexScope) (*Instance, error) {
	full := scope.Prefix() + name
	namePtr, err := windows.UTF16PtrFromString(full)
	if err != nil {
		return nil, errors.Wrapf(err, "mutex name %q", full)
	}

	ret, _, callErr := procCreateMutex.Call(0, 1, uintptr(unsafe.Pointer(namePtr)))
	if ret == 0 {
		extra := ""
		if errors.Is(callErr, windows.ERROR_ACCESS_DENIED) {
			extra = ` (a Global\ mutex held by an elevated process)`
		}
		return nil, errors.Errorf("CreateMutex %q failed: %v%s", full, callErr, extra)
	}
	if errors.Is(callErr, windows.ERROR_ALREADY_EXISTS) {
		procCloseHandle.Call(ret)
		return nil, errors.Wrap(ErrAlreadyRunning, full)
	}
	return &Instance{handle: ret}, nil
}

// Release gives up the mutex. It is safe to call more than once.
func (i *Instance) Release() error {
	if i == nil || i.handle == 0 {
		return nil
	}
	h := i.handle
	i.handle = 0
	var first error
	if r, _, e := procReleaseMutex.Call(h); r == 0 {
		first = errors.Wrap(e, "ReleaseMutex")
	}
	if r, _, e := procCloseHandle.Call(h); r == 0 && first == nil {
		first = errors.Wrap(e, "CloseHandle")
	}
	return first
}
