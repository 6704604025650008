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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sys/windows"

	"github.com/workturnedplay/winsentinel/internal/config"
	"github.com/workturnedplay/winsentinel/internal/eventwindow"
	"github.com/workturnedplay/winsentinel/internal/hookhost"
	"github.com/workturnedplay/winsentinel/internal/logging"
	"github.com/workturnedplay/winsentinel/internal/platform/win32"
)

func runService(c *cli.Context, cfg config.Config, base *logging.Logger) error {
	logger := logging.WithSession(base)
	instance, err := win32.AcquireInstance("winsentinel_"+cfg.ClassName, win32.MutexScopeSession)
	if err != nil {
		return cli.Exit(err.Error(), 5)
	}
	defer func() {
		if err := instance.Release(); err != nil {
			logger.WithError(err).Warn("Releasing instance mutex")
		}
	}()

	native := win32.New()
	svc := eventwindow.New(native,
		eventwindow.WithClassName(cfg.ClassName),
		eventwindow.WithTitle(cfg.WindowTitle),
		eventwindow.WithLogger(logger),
		eventwindow.WithDeviceNotifications(cfg.DeviceNotifications),
	)
	for _, cb := range hostSubscribers(logger, native, native) {
		svc.Subscribe(cb)
	}

	if err := svc.Start(); err != nil {
		return err
	}
	hwnd, _ := svc.WindowHandle()
	logger.WithFields(log.Fields{
		"hwnd":     fmt.Sprintf("%08X", uintptr(hwnd)),
		"elevated": windows.GetCurrentProcessToken().IsElevated(),
	}).Info("Sentinel window ready")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hookDone <-chan struct{}
	if cfg.InstallHook {
		loader := &hookhost.Loader{Library: native, Finder: native, Logger: logger}
		done, err := loader.Start(ctx, cfg.HookLibrary, cfg.HookTargetClass)
		if err != nil {
			// the window keeps serving without hooks
			logger.WithError(err).Error("Hook install failed")
		} else {
			hookDone = done
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		if err := svc.Close(); err != nil {
			logger.WithError(err).Warn("Closing background window")
		}
		<-svc.Done()
	case <-svc.Done():
		logger.Warn("Background window loop ended on its own")
	}

	stop()
	if hookDone != nil {
		<-hookDone
	}
	return svc.Err()
}

func resolveThread(class string) (uint32, uint32, error) {
	native := win32.New()
	l := &hookhost.Loader{Library: native, Finder: native}
	return l.ResolveThread(class)
}
