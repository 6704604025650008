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

	"github.com/urfave/cli/v2"

	"github.com/workturnedplay/winsentinel/internal/config"
	"github.com/workturnedplay/winsentinel/internal/logging"
)

const (
	FlagLogLevel      = "log-level"
	FlagLogLevelUsage = "Log level (trace, debug, info, warn, error)"

	FlagLogFile      = "log-file"
	FlagLogFileUsage = "Append logs to this file instead of stderr"

	FlagLogFormat      = "log-format"
	FlagLogFormatUsage = "Log format: text or json"

	FlagClassName      = "class"
	FlagClassNameUsage = "Window class of the sentinel window"
)

const (
	FlagTitle      = "title"
	FlagTitleUsage = "Title of the sentinel window"

	FlagNoDevices      = "no-device-notifications"
	FlagNoDevicesUsage = "Do not register for monitor interface notifications"

	FlagInstallHook      = "install-hook"
	FlagInstallHookUsage = "Load the hook library and hook the target thread"

	FlagHookLibrary      = "hook-library"
	FlagHookLibraryUsage = "Path of the hook library"

	FlagHookTarget      = "hook-target"
	FlagHookTargetUsage = "Window class whose owner thread gets hooked"
)

// appState carries what Before prepares for the commands.
type appState struct {
	cfg config.Config
	log *logging.Logger
}

func newApp(st *appState) *cli.App {
	return &cli.App{
		Name:  "winsentinel",
		Usage: "Hidden message window that reports display and shell events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: FlagLogLevel, Usage: FlagLogLevelUsage},
			&cli.StringFlag{Name: FlagLogFile, Usage: FlagLogFileUsage},
			&cli.StringFlag{Name: FlagLogFormat, Usage: FlagLogFormatUsage},
			&cli.StringFlag{Name: FlagClassName, Usage: FlagClassNameUsage},
		},
		Before: st.before,
		After:  st.after,
		Commands: []*cli.Command{
			runCommand(st),
			shellThreadCommand(st),
		},
		// exit codes are mapped in main, after deferred cleanup
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func runCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Create the sentinel window and pump its messages until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: FlagTitle, Usage: FlagTitleUsage},
			&cli.BoolFlag{Name: FlagNoDevices, Usage: FlagNoDevicesUsage},
			&cli.BoolFlag{Name: FlagInstallHook, Usage: FlagInstallHookUsage},
			&cli.StringFlag{Name: FlagHookLibrary, Usage: FlagHookLibraryUsage},
			&cli.StringFlag{Name: FlagHookTarget, Usage: FlagHookTargetUsage},
		},
		Action: func(c *cli.Context) error {
			applyRunFlags(c, &st.cfg)
			return runService(c, st.cfg, st.log)
		},
	}
}

func shellThreadCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:      "shell-thread",
		Usage:     "Print the thread and process owning the hook target window",
		ArgsUsage: "[class]",
		Action: func(c *cli.Context) error {
			class := st.cfg.HookTargetClass
			if c.Args().Present() {
				class = c.Args().First()
			}
			tid, pid, err := resolveThread(class)
			if err != nil {
				return cli.Exit(err.Error(), 4)
			}
			_, err = fmt.Fprintf(c.App.Writer, "%s: thread %d process %d\n", class, tid, pid)
			return err
		},
	}
}

func (st *appState) before(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	applyGlobalFlags(c, &cfg)
	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	st.cfg = cfg
	st.log = logger
	return nil
}

func (st *appState) after(*cli.Context) error {
	if st.log == nil {
		return nil
	}
	st.log.Info("Execution finished.")
	return st.log.Close()
}

// applyGlobalFlags overrides the environment with flags given explicitly.
func applyGlobalFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(FlagLogLevel) {
		cfg.LogLevel = c.String(FlagLogLevel)
	}
	if c.IsSet(FlagLogFile) {
		cfg.LogFile = c.String(FlagLogFile)
	}
	if c.IsSet(FlagLogFormat) {
		cfg.LogFormat = c.String(FlagLogFormat)
	}
	if c.IsSet(FlagClassName) {
		cfg.ClassName = c.String(FlagClassName)
	}
}

func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(FlagTitle) {
		cfg.WindowTitle = c.String(FlagTitle)
	}
	if c.Bool(FlagNoDevices) {
		cfg.DeviceNotifications = false
	}
	if c.IsSet(FlagInstallHook) {
		cfg.InstallHook = c.Bool(FlagInstallHook)
	}
	if c.IsSet(FlagHookLibrary) {
		cfg.HookLibrary = c.String(FlagHookLibrary)
	}
	if c.IsSet(FlagHookTarget) {
		cfg.HookTargetClass = c.String(FlagHookTarget)
	}
}
