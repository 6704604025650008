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

// Package hookhost loads the hook library into the host process and asks it
// to hook the thread that owns a given top-level window.
package hookhost

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/logging"
	"github.com/workturnedplay/winsentinel/internal/platform"
)

// InstallExport is the name the hook library exports its installer under.
const InstallExport = "install_hook"


// Loader wires the hook library to a target thread.
type Loader struct {
	Library platform.Library
	Finder  platform.WindowFinder
	Logger  log.FieldLogger
}

func (l *Loader) logger() log.FieldLogger {
	if l.Logger == nil {
		return logging.Discard()
	}
	return l.Logger
}

// ResolveThread returns the thread and process owning the first top-level
// window of className.
func (l *Loader) ResolveThread(className string) (threadID, processID uint32, err error) {
	hwnd, err := l.Finder.FindWindow(className)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrTargetNotFound, "%s: %v", className, err)
	}
	if hwnd == 0 {
		return 0, 0, errors.Wrap(ErrTargetNotFound, className)
	}
	threadID, processID = l.Finder.WindowThreadProcessID(hwnd)
	if threadID == 0 {
		return 0, 0, errors.Wrapf(ErrTargetNotFound, "%s: window %08X has no owner thread", className, uintptr(hwnd))
	}
	l.logger().Debugf("Native shell hwnd: %08X, thread id: %08X, process id: %08X", uintptr(hwnd), threadID, processID)
	return threadID, processID, nil
}

// Install loads the library at path and calls its installer for the thread
// owning className. Once the installer has run the library stays loaded:
// hooks it managed to set are anchored to it.
//
// Hooks live as long as the calling OS thread, see Start.
func (l *Loader) Install(path, className string) error {
	mod, err := l.Library.Load(path)
	if err != nil {
		return errors.Wrapf(ErrLibraryLoad, "%s: %v", path, err)
	}

	threadID, _, err := l.ResolveThread(className)
	if err != nil {
		_ = mod.Release()
		return err
	}

	ret, err := mod.Call(InstallExport, uintptr(threadID))
	if err != nil {
		_ = mod.Release()
		return errors.Wrapf(err, "call %s in %s", InstallExport, path)
	}
	// the export returns a C int; the upper half of the register is undefined
	if uint32(ret) == 0 {
		return errors.Wrapf(ErrInstallRejected, "thread %d", threadID)
	}
	l.logger().WithFields(log.Fields{"library": path, "thread": threadID}).Info("Hooks installed")
	return nil
}

// Start runs Install on a dedicated OS thread and keeps that thread parked
// until ctx is done, since the OS removes hooks when their installing thread
// exits. It returns once installation finished; the returned channel closes
// when the thread has been released.
func (l *Loader) Start(ctx context.Context, path, className string) (<-chan struct{}, error) {
	result := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// never unlocked: the thread exits with the goroutine, taking the hooks with it
		runtime.LockOSThread()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("hook installer panicked: %v", r)
				}
			}()
			return l.Install(path, className)
		}()
		result <- err
		if err != nil {
			return
		}
		<-ctx.Done()
		l.logger().Debug("Releasing hook thread")
	}()

	if err := <-result; err != nil {
		return done, fmt.Errorf("hook host: %w", err)
	}
	return done, nil
}
