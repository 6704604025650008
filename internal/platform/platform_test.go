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

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGUID_String(t *testing.T) {
	assert.Equal(t, "{E6F07B5F-EE97-4A90-B076-33F57BF4EAA7}", GUID_DEVINTERFACE_MONITOR.String())
}

func TestHookKind_String(t *testing.T) {
	tests := []struct {
		kind HookKind
		want string
	}{
		{HookCallWndProc, "win_proc_hook"},
		{HookCallWndProcRet, "win_proc_ret_hook"},
		{HookGetMessage, "get_message_hook"},
		{HookKind(7), "hook(7)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestHookKinds_InstallOrder(t *testing.T) {
	assert.Equal(t, [...]HookKind{HookCallWndProc, HookCallWndProcRet, HookGetMessage}, HookKinds)
}
