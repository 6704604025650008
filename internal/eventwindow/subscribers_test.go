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
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workturnedplay/winsentinel/internal/logging"
)

type call struct {
	who    int
	msg    uint32
	wParam uintptr
	lParam uintptr
}

func recorder(log *[]call, who int, err error) Callback {
	return func(msg uint32, wParam, lParam uintptr) error {
		*log = append(*log, call{who, msg, wParam, lParam})
		return err
	}
}

func TestSubscribers_RegistrationOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 32} {
		t.Run(fmt.Sprintf("%d callbacks", n), func(t *testing.T) {
			s := NewSubscribers(logging.Discard())
			var got []call
			for i := range n {
				s.Add(recorder(&got, i, nil))
			}
			s.Notify(0x401, 3, 4)

			require.Len(t, got, n)
			for i, c := range got {
				assert.Equal(t, call{i, 0x401, 3, 4}, c)
			}
			assert.EqualValues(t, n, s.Stats().Delivered)
		})
	}
}

func TestSubscribers_FailureIsIsolated(t *testing.T) {
	const n = 6
	for k := range n {
		t.Run(fmt.Sprintf("callback %d fails", k), func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			s := NewSubscribers(logger)
			var got []call
			for i := range n {
				var err error
				if i == k {
					err = errors.New("boom")
				}
				s.Add(recorder(&got, i, err))
			}

			s.Notify(7, 0, 0)
			s.Notify(8, 0, 0)

			require.Len(t, got, 2*n)
			for i := range n {
				assert.Equal(t, i, got[i].who)
				assert.Equal(t, i, got[n+i].who)
			}
			st := s.Stats()
			assert.EqualValues(t, 2, st.Failed)
			assert.EqualValues(t, 2*(n-1), st.Delivered)
			require.Len(t, hook.AllEntries(), 2)
			assert.Equal(t, k, hook.LastEntry().Data["subscriber"])
		})
	}
}

func TestSubscribers_PanicIsIsolated(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSubscribers(logger)
	var got []call
	s.Add(recorder(&got, 0, nil))
	s.Add(func(uint32, uintptr, uintptr) error { panic("subscriber bug") })
	s.Add(recorder(&got, 2, nil))

	require.NotPanics(t, func() { s.Notify(1, 2, 3) })

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].who)
	assert.Equal(t, 2, got[1].who)
	assert.EqualValues(t, 1, s.Stats().Panicked)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "subscriber bug")
}

func TestSubscribers_AddDuringNotifyTakesEffectNextMessage(t *testing.T) {
	s := NewSubscribers(logging.Discard())
	var got []call
	added := false
	s.Add(func(msg uint32, w, l uintptr) error {
		got = append(got, call{0, msg, w, l})
		if !added {
			added = true
			s.Add(recorder(&got, 1, nil))
		}
		return nil
	})

	s.Notify(1, 0, 0)
	require.Len(t, got, 1)

	s.Notify(2, 0, 0)
	require.Len(t, got, 3)
	assert.Equal(t, call{0, 2, 0, 0}, got[1])
	assert.Equal(t, call{1, 2, 0, 0}, got[2])
}

func TestSubscribers_ConcurrentAdd(t *testing.T) {
	s := NewSubscribers(logging.Discard())
	var mu sync.Mutex
	calls := 0
	cb := func(uint32, uintptr, uintptr) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				s.Add(cb)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			s.Notify(0, 0, 0)
		}
	}()
	wg.Wait()

	assert.Equal(t, 400, s.Len())
	calls = 0
	s.Notify(0, 0, 0)
	assert.Equal(t, 400, calls)
}

func TestSubscribers_NilIgnored(t *testing.T) {
	s := NewSubscribers(logging.Discard())
	s.Add(nil)
	assert.Zero(t, s.Len())
}
