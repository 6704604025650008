//go:build !windows

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
	"github.com/urfave/cli/v2"

	"github.com/workturnedplay/winsentinel/internal/config"
	"github.com/workturnedplay/winsentinel/internal/logging"
)

const unsupported = "winsentinel needs Windows"

func runService(*cli.Context, config.Config, *logging.Logger) error {
	return cli.Exit(unsupported, 6)
}

func resolveThread(string) (uint32, uint32, error) {
	return 0, 0, cli.Exit(unsupported, 6)
}
