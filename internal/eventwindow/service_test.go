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
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/platform/platformtest"
)

const waitFor = 5 * time.Second

func waitDone(t *testing.T, s *Service) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("pump loop did not exit")
	}
}

type entry struct {
	name   string
	msg    uint32
	wParam uintptr
	lParam uintptr
}

type sharedLog struct {
	mu      sync.Mutex
	entries []entry
}

func (l *sharedLog) appender(name string) Callback {
	return func(msg uint32, wParam, lParam uintptr) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.entries = append(l.entries, entry{name, msg, wParam, lParam})
		return nil
	}
}

func (l *sharedLog) snapshot() []entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entry(nil), l.entries...)
}

func TestService_Scenario(t *testing.T) {
	fake := platformtest.New()
	s := New(fake)
	require.NoError(t, s.Start())

	var log sharedLog
	s.Subscribe(log.appender("A"))
	s.Subscribe(log.appender("B"))

	require.NoError(t, s.Post(42, 7, 9))
	require.NoError(t, s.Post(platform.WM_DESTROY, 0, 0))
	waitDone(t, s)

	assert.Equal(t, []entry{{"A", 42, 7, 9}, {"B", 42, 7, 9}}, log.snapshot())
	assert.NoError(t, s.Err())

	assert.ErrorIs(t, s.Post(42, 7, 9), ErrStopped)
	assert.Len(t, log.snapshot(), 2, "no dispatch after destroy")
}

func TestService_HandleNotReadyBeforeStart(t *testing.T) {
	s := New(platformtest.New())
	h, ok := s.WindowHandle()
	assert.False(t, ok)
	assert.Zero(t, h)
	assert.ErrorIs(t, s.Post(1, 0, 0), ErrNotReady)
}

func TestService_HandleStableAfterStart(t *testing.T) {
	fake := platformtest.New()
	s := New(fake)

	// Readers racing Start must either see nothing or the final handle.
	var wg sync.WaitGroup
	seen := make(chan platform.Handle, 1024)
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if h, ok := s.WindowHandle(); ok {
					select {
					case seen <- h:
					default:
					}
				}
			}
		}()
	}

	require.NoError(t, s.Start())
	h, ok := s.WindowHandle()
	require.True(t, ok)
	require.NotZero(t, h)

	close(stop)
	wg.Wait()
	close(seen)
	for got := range seen {
		assert.Equal(t, h, got)
	}

	assert.Equal(t, []platform.Handle{h}, fake.DeviceNotifications())

	require.NoError(t, s.Close())
	waitDone(t, s)
	again, ok := s.WindowHandle()
	assert.True(t, ok)
	assert.Equal(t, h, again)
}

func TestService_SetupFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*platformtest.Fake)
		want  error
		stage Stage
	}{
		{"register class", func(f *platformtest.Fake) { f.RegisterClassErr = boom }, ErrWindowClassRegistration, StageRegisterClass},
		{"create window", func(f *platformtest.Fake) { f.CreateWindowErr = boom }, ErrWindowCreation, StageCreateWindow},
		{"device notification", func(f *platformtest.Fake) { f.DeviceNotificationErr = boom }, ErrNotificationRegistration, StageRegisterNotification},
		{"bootstrap panic", func(f *platformtest.Fake) { f.PanicOnCreate = true }, ErrThreadSpawn, StageSpawnThread},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := platformtest.New()
			tt.setup(fake)
			s := New(fake)

			err := s.Start()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *SetupError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stage, se.Stage)
			if tt.stage != StageSpawnThread {
				assert.ErrorIs(t, err, boom)
			}

			_, ok := s.WindowHandle()
			assert.False(t, ok, "handle must not be published on failure")
			waitDone(t, s)
			assert.Equal(t, err, s.Err())
		})
	}
}

func TestService_StartTwice(t *testing.T) {
	s := New(platformtest.New())
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
	require.NoError(t, s.Close())
	waitDone(t, s)
}

func TestService_WithoutDeviceNotifications(t *testing.T) {
	fake := platformtest.New()
	s := New(fake, WithDeviceNotifications(false), WithClassName("Other"), WithTitle("t"))
	require.NoError(t, s.Start())
	assert.Empty(t, fake.DeviceNotifications())

	h, _ := s.WindowHandle()
	assert.Equal(t, "Other", fake.ClassName(h))
	require.NoError(t, s.Close())
	waitDone(t, s)
}

func TestService_LogsCreationThroughEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := New(platformtest.New(), WithLogger(logger.WithField("session", "s1")))
	require.NoError(t, s.Start())
	require.NoError(t, s.Close())
	waitDone(t, s)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Creating background window..." {
			found = true
			assert.Equal(t, logrus.DebugLevel, e.Level)
			assert.Equal(t, "s1", e.Data["session"])
		}
	}
	assert.True(t, found)
}

func TestService_SubscribeBeforeStart(t *testing.T) {
	s := New(platformtest.New())
	var log sharedLog
	s.Subscribe(log.appender("early"))

	require.NoError(t, s.Start())
	require.NoError(t, s.Post(0x400, 1, 2))
	require.NoError(t, s.Close())
	waitDone(t, s)

	got := log.snapshot()
	require.Len(t, got, 2, "user message then WM_CLOSE, never WM_DESTROY")
	assert.Equal(t, entry{"early", 0x400, 1, 2}, got[0])
	assert.Equal(t, uint32(platform.WM_CLOSE), got[1].msg)
}

func TestService_DestroyStopsDeliveryForAllSubscribers(t *testing.T) {
	fake := platformtest.New()
	s := New(fake)
	var log sharedLog
	for range 25 {
		s.Subscribe(log.appender("x"))
	}
	require.NoError(t, s.Start())
	require.NoError(t, s.Post(platform.WM_DESTROY, 0, 0))
	waitDone(t, s)

	assert.Empty(t, log.snapshot())
	assert.ErrorIs(t, s.Post(1, 0, 0), ErrStopped)
	assert.NoError(t, s.Close(), "closing a stopped window is a no-op")
}

func TestService_DefaultProcessingStillRuns(t *testing.T) {
	fake := platformtest.New()
	s := New(fake)
	require.NoError(t, s.Start())
	require.NoError(t, s.Post(0x401, 0, 0))
	require.NoError(t, s.Post(platform.WM_DESTROY, 0, 0))
	waitDone(t, s)
	assert.Equal(t, 1, fake.DefWindowProcCalls())
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []uint32
}

func (r *recordingSink) Notify(msg uint32, _, _ uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type panickingSink struct{}

func (panickingSink) Notify(uint32, uintptr, uintptr) { panic("sink bug") }

func TestService_CustomSink(t *testing.T) {
	sink := &recordingSink{}
	s := New(platformtest.New(), WithSink(sink))
	require.NoError(t, s.Start())
	require.NoError(t, s.Post(0x500, 0, 0))
	require.NoError(t, s.Post(platform.WM_DESTROY, 0, 0))
	waitDone(t, s)
	assert.Equal(t, []uint32{0x500}, sink.msgs)
}

func TestService_PanickingSinkDoesNotKillPump(t *testing.T) {
	s := New(platformtest.New(), WithSink(panickingSink{}))
	require.NoError(t, s.Start())
	require.NoError(t, s.Post(0x500, 0, 0))
	require.NoError(t, s.Post(platform.WM_DESTROY, 0, 0))
	waitDone(t, s)
	assert.NoError(t, s.Err())
}

func TestDeviceChanges(t *testing.T) {
	fake := platformtest.New()
	monitor := platform.DeviceEvent{Kind: platform.DeviceArrived, Class: platform.GUID_DEVINTERFACE_MONITOR, Name: `\\?\DISPLAY#1`}
	fake.SetDevice(0xAA, monitor)

	var got []platform.DeviceEvent
	cb := DeviceChanges(fake, func(ev platform.DeviceEvent) error {
		got = append(got, ev)
		return nil
	})

	require.NoError(t, cb(platform.WM_DEVICECHANGE, platform.DBT_DEVICEARRIVAL, 0xAA))
	require.NoError(t, cb(platform.WM_DEVICECHANGE, 0x0007, 0))
	require.NoError(t, cb(0x400, platform.DBT_DEVICEARRIVAL, 0xAA))
	assert.Equal(t, []platform.DeviceEvent{monitor}, got)
}

func TestOnMessage(t *testing.T) {
	hits := 0
	cb := OnMessage(5, func(uint32, uintptr, uintptr) error {
		hits++
		return errors.New("handled")
	})
	assert.NoError(t, cb(4, 0, 0))
	assert.Error(t, cb(5, 0, 0))
	assert.Equal(t, 1, hits)
}
