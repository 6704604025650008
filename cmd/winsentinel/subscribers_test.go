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
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workturnedplay/winsentinel/internal/eventwindow"
	"github.com/workturnedplay/winsentinel/internal/hook"
	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/platform/platformtest"
)

func notifyAll(cbs []eventwindow.Callback, msg uint32, wParam, lParam uintptr) error {
	for _, cb := range cbs {
		if err := cb(msg, wParam, lParam); err != nil {
			return err
		}
	}
	return nil
}

func TestHostSubscribers_ForwardedObservation(t *testing.T) {
	logger, hooked := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	fake := platformtest.New()
	fake.SetClassName(0x2000, "Shell_TrayWnd")

	w, l := hook.EncodeForwarded(hook.Observation{Kind: platform.HookCallWndProcRet, Window: 0x2000, Message: 0x0046})
	require.NoError(t, notifyAll(hostSubscribers(logger, fake, fake), hook.ForwardedMessage, w, l))

	entry := hooked.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "win_proc_ret_hook Window: 00002000 Class: Shell_TrayWnd", entry.Message)
	assert.Equal(t, "forwarded", entry.Data["source"])
}

func TestHostSubscribers_MalformedForwardedMessage(t *testing.T) {
	fake := platformtest.New()
	cbs := hostSubscribers(logrus.New(), fake, fake)
	assert.Error(t, notifyAll(cbs, hook.ForwardedMessage, 0, 0x7F<<16))
}

func TestHostSubscribers_MonitorArrival(t *testing.T) {
	logger, hooked := test.NewNullLogger()
	fake := platformtest.New()
	fake.SetDevice(0xD0, platform.DeviceEvent{
		Kind:  platform.DeviceArrived,
		Class: platform.GUID_DEVINTERFACE_MONITOR,
		Name:  `\\?\DISPLAY#DEL4321#1`,
	})

	require.NoError(t, notifyAll(hostSubscribers(logger, fake, fake), platform.WM_DEVICECHANGE, platform.DBT_DEVICEARRIVAL, 0xD0))

	entry := hooked.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Monitor arrived", entry.Message)
	assert.Equal(t, `\\?\DISPLAY#DEL4321#1`, entry.Data["device"])
}

func TestHostSubscribers_OtherDevicesAtDebug(t *testing.T) {
	logger, hooked := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	fake := platformtest.New()
	fake.SetDevice(0xD1, platform.DeviceEvent{Kind: platform.DeviceRemoved, Name: "usb"})

	require.NoError(t, notifyAll(hostSubscribers(logger, fake, fake), platform.WM_DEVICECHANGE, platform.DBT_DEVICEREMOVECOMPLETE, 0xD1))

	entry := hooked.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "Device interface removed", entry.Message)
}

func TestHostSubscribers_TraceEveryMessage(t *testing.T) {
	logger, hooked := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	fake := platformtest.New()

	require.NoError(t, notifyAll(hostSubscribers(logger, fake, fake), 0x001A, 1, 2))

	require.Len(t, hooked.AllEntries(), 1)
	assert.Equal(t, "message 0x001A", hooked.LastEntry().Message)
}
