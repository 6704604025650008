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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "WinSentinelShell", cfg.ClassName)
	assert.Equal(t, "WinSentinel Background Window", cfg.WindowTitle)
	assert.True(t, cfg.DeviceNotifications)
	assert.False(t, cfg.InstallHook)
	assert.Equal(t, "Shell_TrayWnd", cfg.HookTargetClass)
	assert.False(t, cfg.ForwardHookEvents)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4096, cfg.LogBuffer)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("WINSENTINEL_CLASS_NAME", "TestShell")
	t.Setenv("WINSENTINEL_INSTALL_HOOK", "true")
	t.Setenv("WINSENTINEL_FORWARD_HOOK_EVENTS", "1")
	t.Setenv("WINSENTINEL_LOG_BUFFER", "16")
	t.Setenv("WINSENTINEL_LOG_FILE", "sentinel.log")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "TestShell", cfg.ClassName)
	assert.True(t, cfg.InstallHook)
	assert.True(t, cfg.ForwardHookEvents)

	opts := cfg.Logging()
	assert.Equal(t, 16, opts.Buffer)
	assert.Equal(t, "sentinel.log", opts.File)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"non numeric buffer", "WINSENTINEL_LOG_BUFFER", "lots"},
		{"zero buffer", "WINSENTINEL_LOG_BUFFER", "0"},
		{"bad bool", "WINSENTINEL_INSTALL_HOOK", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
