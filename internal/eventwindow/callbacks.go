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
	"fmt"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

// OnMessage narrows cb to a single message id.
func OnMessage(msg uint32, cb Callback) Callback {
	return func(m uint32, wParam, lParam uintptr) error {
		if m != msg {
			return nil
		}
		return cb(m, wParam, lParam)
	}
}

// DeviceChanges turns WM_DEVICECHANGE arrivals and removals into typed events.
// Other device-change codes carry no interface payload and are skipped.
func DeviceChanges(decoder platform.DeviceDecoder, fn func(platform.DeviceEvent) error) Callback {
	return OnMessage(platform.WM_DEVICECHANGE, func(_ uint32, wParam, lParam uintptr) error {
		ev, ok := decoder.DecodeDeviceChange(wParam, lParam)
		if !ok {
			return nil
		}
		return fn(ev)
	})
}

func hexHandle(h platform.Handle) string {
	return fmt.Sprintf("%08X", uintptr(h))
}
