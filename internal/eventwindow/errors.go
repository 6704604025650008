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

package eventwindow

import (
	"errors"
	"fmt"
)

var (
	ErrWindowClassRegistration  = errors.New("window class registration failed")
	ErrWindowCreation           = errors.New("window creation failed")
	ErrNotificationRegistration = errors.New("device notification registration failed")
	// ErrThreadSpawn reports that the pump thread died during bootstrap.
	ErrThreadSpawn = errors.New("pump thread failed to start")

	ErrAlreadyStarted = errors.New("event window already started")
	// ErrNotReady is returned when posting before Start has succeeded.
	ErrNotReady = errors.New("event window not ready")
	// ErrStopped is returned when posting after the pump loop has ended.
	ErrStopped = errors.New("event window stopped")
)

// Stage is a step of the pump thread bootstrap.
type Stage int

const (
	StageSpawnThread Stage = iota
	StageRegisterClass
	StageCreateWindow
	StageRegisterNotification
)

func (s Stage) String() string {
	switch s {
	case StageSpawnThread:
		return "spawn pump thread"
	case StageRegisterClass:
		return "register window class"
	case StageCreateWindow:
		return "create window"
	case StageRegisterNotification:
		return "register device notification"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) sentinel() error {
	switch s {
	case StageRegisterClass:
		return ErrWindowClassRegistration
	case StageCreateWindow:
		return ErrWindowCreation
	case StageRegisterNotification:
		return ErrNotificationRegistration
	}
	return ErrThreadSpawn
}

// SetupError is what Start returns when the pump thread could not become
// ready. errors.Is matches it against the sentinel of its stage.
type SetupError struct {
	Stage Stage
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("event window: %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func (e *SetupError) Is(target error) bool {
	return target == e.Stage.sentinel()
}
