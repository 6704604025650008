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
	"errors"
	"fmt"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

var (
	// ErrHookInstall matches every *InstallError.
	ErrHookInstall = errors.New("hook install failed")
	// ErrModuleHandleUnavailable means Install ran before the library recorded
	// its own module handle.
	ErrModuleHandleUnavailable = errors.New("module handle unavailable")
	// ErrNoEntryPoint means no exported hook procedure was given for a kind.
	ErrNoEntryPoint = errors.New("hook entry point missing")
	// ErrNoState is returned by the exported entry points when no State was bound.
	ErrNoState = errors.New("hook state not initialised")
)

// InstallError reports the hook that failed to install. Hooks before it stay
// installed.
type InstallError struct {
	Kind     platform.HookKind
	ThreadID uint32
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %v for thread %d: %v", e.Kind, e.ThreadID, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

func (e *InstallError) Is(target error) bool {
	return target == ErrHookInstall
}
