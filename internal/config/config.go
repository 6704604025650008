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

// Package config loads WINSENTINEL_* environment variables.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/workturnedplay/winsentinel/internal/logging"
)

// Prefix is prepended to every variable name.
const Prefix = "WINSENTINEL_"

// Config is shared by the host and the hook library. The library is loaded
// into other processes whose environment usually lacks these variables, so
// every field has a usable default.
type Config struct {
	// ClassName is the window class of the sentinel window; the hook library
	// finds the window by it when forwarding.
	ClassName   string `env:"CLASS_NAME" envDefault:"WinSentinelShell"`
	WindowTitle string `env:"WINDOW_TITLE" envDefault:"WinSentinel Background Window"`
	// DeviceNotifications registers the window for monitor interface changes.
	DeviceNotifications bool `env:"DEVICE_NOTIFICATIONS" envDefault:"true"`

	InstallHook     bool   `env:"INSTALL_HOOK" envDefault:"false"`
	HookLibrary     string `env:"HOOK_LIBRARY" envDefault:"sentinelhook.dll"`
	HookTargetClass string `env:"HOOK_TARGET_CLASS" envDefault:"Shell_TrayWnd"`
	// ForwardHookEvents makes hook callbacks post observations to the
	// sentinel window instead of only logging them.
	ForwardHookEvents bool `env:"FORWARD_HOOK_EVENTS" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogBuffer int    `env:"LOG_BUFFER" envDefault:"4096"`
	// HookLogFile is where the hook library logs; empty disables its log.
	HookLogFile string `env:"HOOK_LOG_FILE"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if cfg.LogBuffer < 1 {
		return Config{}, errors.Errorf("%sLOG_BUFFER must be positive, got %d", Prefix, cfg.LogBuffer)
	}
	return cfg, nil
}

// Logging returns the logger options for the host.
func (c Config) Logging() logging.Options {
	return logging.Options{
		Level:  c.LogLevel,
		File:   c.LogFile,
		Buffer: c.LogBuffer,
		Format: c.LogFormat,
	}
}
