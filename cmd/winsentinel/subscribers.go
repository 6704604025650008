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

	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/eventwindow"
	"github.com/workturnedplay/winsentinel/internal/hook"
	"github.com/workturnedplay/winsentinel/internal/platform"
)

type classNamer interface {
	ClassName(hwnd platform.Handle) string
}

// hostSubscribers is what the run command attaches to the sentinel window,
// in delivery order.
func hostSubscribers(logger log.FieldLogger, decoder platform.DeviceDecoder, namer classNamer) []eventwindow.Callback {
	return []eventwindow.Callback{
		traceMessages(logger),
		eventwindow.DeviceChanges(decoder, logDevice(logger)),
		forwardedObservations(logger, namer),
	}
}

func traceMessages(logger log.FieldLogger) eventwindow.Callback {
	return func(msg uint32, wParam, lParam uintptr) error {
		logger.WithFields(log.Fields{
			"wparam": fmt.Sprintf("%#x", wParam),
			"lparam": fmt.Sprintf("%#x", lParam),
		}).Tracef("message 0x%04X", msg)
		return nil
	}
}

func logDevice(logger log.FieldLogger) func(platform.DeviceEvent) error {
	return func(ev platform.DeviceEvent) error {
		entry := logger.WithFields(log.Fields{"class": ev.Class.String(), "device": ev.Name})
		if ev.Class == platform.GUID_DEVINTERFACE_MONITOR {
			entry.Infof("Monitor %s", ev.Kind)
			return nil
		}
		entry.Debugf("Device interface %s", ev.Kind)
		return nil
	}
}

// forwardedObservations logs what the hook library posted to the sentinel
// window. The class name is resolved here because it does not fit in the
// message.
func forwardedObservations(logger log.FieldLogger, namer classNamer) eventwindow.Callback {
	out := hook.LogObserver{Logger: logger.WithField("source", "forwarded")}
	return eventwindow.OnMessage(hook.ForwardedMessage, func(msg uint32, wParam, lParam uintptr) error {
		ob, ok := hook.DecodeForwarded(msg, wParam, lParam)
		if !ok {
			return fmt.Errorf("malformed forwarded observation %#x", lParam)
		}
		ob.Class = namer.ClassName(ob.Window)
		out.Observe(ob)
		return nil
	})
}
