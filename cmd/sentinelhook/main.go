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

// Command sentinelhook is the hook library. Build it with
//
//	go build -buildmode=c-shared -o sentinelhook.dll ./cmd/sentinelhook
//
// and hand the path to winsentinel. The host calls install_hook with the id
// of the thread to observe. The three hook procedures are plain exports, so
// every process the OS maps the library into can call them. Only 64-bit
// targets are built: there the exported C calling convention is the one the
// OS uses for hook procedures.
package main

import "C"

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/config"
	"github.com/workturnedplay/winsentinel/internal/hook"
	"github.com/workturnedplay/winsentinel/internal/logging"
	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/platform/win32"
)

// native serves the entry points while no state is bound.
var native = win32.New()

// init plays the part of DllMain's process attach: the Go runtime of a
// c-shared library runs it when the library is loaded.
func init() {
	cfg, err := config.Load()
	logger := newLogger(cfg, err)

	observers := hook.Observers{hook.LogObserver{Logger: logger}}
	if cfg.ForwardHookEvents {
		observers = append(observers, hook.NewForwarder(native, native, cfg.ClassName))
	}
	entries := entryPoints()
	state := hook.NewState(native,
		hook.WithLogger(logger),
		hook.WithObserver(observers),
		hook.WithEntryPoints(entries),
	)

	// a Go runtime cannot be unloaded, so this image stays until the process exits
	module, err := win32.PinModule(uintptr(entries[platform.HookGetMessage]))
	if err != nil {
		logger.WithError(err).Error("Failed to get module handle")
	}
	state.Notify(hook.ProcessAttach, module)

	if err := hook.Bind(state); err != nil {
		logger.WithError(err).Error("Hook state bound twice")
	}
}

func newLogger(cfg config.Config, cfgErr error) log.FieldLogger {
	if cfgErr != nil || cfg.HookLogFile == "" {
		// the hook runs inside processes that have nowhere to show output
		return logging.Discard()
	}
	opts := cfg.Logging()
	opts.File = cfg.HookLogFile
	l, err := logging.New(opts)
	if err != nil {
		return logging.Discard()
	}
	entry := logging.WithSession(l).WithField("pid", os.Getpid())
	entry.Debug("Hook library loaded")
	return entry
}

//export install_hook
func install_hook(threadID C.uint) C.int {
	state, err := hook.Default()
	if err != nil {
		return 0
	}
	if err := state.Install(uint32(threadID)); err != nil {
		// already logged by Install
		return 0
	}
	return 1
}

func main() {}
