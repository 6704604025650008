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

package win32

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/workturnedplay/winsentinel/internal/platform"
)

type module struct {
	dll *windows.DLL
}

func (n *Native) Load(path string) (platform.Module, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadLibraryW %q", path)
	}
	return &module{dll: dll}, nil
}

// Call ignores the error of the underlying call: it is GetLastError, which
// is meaningless for functions that report through their return value.
func (m *module) Call(name string, args ...uintptr) (uintptr, error) {
	proc, err := m.dll.FindProc(name)
	if err != nil {
		return 0, errors.Wrapf(err, "GetProcAddress %q", name)
	}
	r, _, _ := proc.Call(args...)
	return r, nil
}

func (m *module) Release() error {
	return m.dll.Release()
}

// DecodeDeviceChange reads a WM_DEVICECHANGE payload. Only arrivals and
// removals of device interfaces are decoded.
func (n *Native) DecodeDeviceChange(wParam, lParam uintptr) (platform.DeviceEvent, bool) {
	var kind platform.DeviceEventKind
	switch wParam {
	case platform.DBT_DEVICEARRIVAL:
		kind = platform.DeviceArrived
	case platform.DBT_DEVICEREMOVECOMPLETE:
		kind = platform.DeviceRemoved
	default:
		return platform.DeviceEvent{}, false
	}
	if lParam == 0 {
		return platform.DeviceEvent{}, false
	}

	// nolint:govet //for unsafeptr
	hdr := (*DEV_BROADCAST_HDR)(unsafe.Pointer(lParam))
	if hdr.DeviceType != DBT_DEVTYP_DEVICEINTERFACE {
		return platform.DeviceEvent{}, false
	}
	// nolint:govet //for unsafeptr
	d := (*DEV_BROADCAST_DEVICEINTERFACE)(unsafe.Pointer(lParam))

	ev := platform.DeviceEvent{Kind: kind, Class: platform.GUID(d.ClassGUID)}
	nameOffset := unsafe.Offsetof(d.Name)
	if uintptr(d.Size) > nameOffset {
		chars := (uintptr(d.Size) - nameOffset) / 2
		ev.Name = windows.UTF16ToString(unsafe.Slice(&d.Name[0], chars))
	}
	return ev, true
}
