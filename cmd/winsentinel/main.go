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

// Command winsentinel runs the hidden event window and, optionally, hooks the
// shell's window thread through the sentinelhook library.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v2"
)

func main() {
	// the instance mutex is owned by this thread until release
	runtime.LockOSThread()
	os.Exit(run(os.Args, os.Stderr))
}

// run is the only place an exit code is decided. Panics are caught here so
// deferred cleanup in the commands has already run when we report them.
func run(args []string, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "--- CRASH: %v ---\nStack: %s\n--- END---\n", r, debug.Stack())
			code = 1
		}
	}()

	err := newApp(&appState{}).Run(args)
	if err == nil {
		return 0
	}
	if ec, ok := err.(cli.ExitCoder); ok {
		if msg := ec.Error(); msg != "" {
			fmt.Fprintf(stderr, "Error: %s\n", msg)
		}
		return ec.ExitCode()
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 2
}
