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
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/workturnedplay/winsentinel/internal/logging"
	"github.com/workturnedplay/winsentinel/internal/platform"
	"github.com/workturnedplay/winsentinel/internal/published"
)

const (
	DefaultClassName = "WinSentinelShell"
	DefaultTitle     = "WinSentinel Background Window"
)

// Service owns the hidden sentinel window and the thread pumping its queue.
type Service struct {
	native              platform.Windowing
	subs                *Subscribers
	sink                Sink
	logger              log.FieldLogger
	className           string
	title               string
	deviceNotifications bool

	hwnd      published.Cell[platform.Handle]
	started   atomic.Bool
	destroyed atomic.Bool
	stopped   atomic.Bool
	done      chan struct{}
	// written by the pump goroutine before done is closed
	err error
}

// Option configures a Service.
type Option func(*Service)

func WithClassName(name string) Option {
	return func(s *Service) { s.className = name }
}

func WithTitle(title string) Option {
	return func(s *Service) { s.title = title }
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithDeviceNotifications toggles registration for monitor interface changes.
func WithDeviceNotifications(on bool) Option {
	return func(s *Service) { s.deviceNotifications = on }
}

// WithSink routes window messages to sink instead of the subscriber list.
// Subscribe then only reaches sink if sink forwards to Subscribers().
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// New returns a stopped service.
func New(native platform.Windowing, opts ...Option) *Service {
	s := &Service{
		native:              native,
		className:           DefaultClassName,
		title:               DefaultTitle,
		deviceNotifications: true,
		done:                make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.subs = NewSubscribers(s.logger)
	if s.sink == nil {
		s.sink = s.subs
	}
	return s
}

// Subscribe registers cb for every message the window receives from now on.
// It may be called at any time from any goroutine.
func (s *Service) Subscribe(cb Callback) {
	s.subs.Add(cb)
}

// Subscribers returns the default subscriber list.
func (s *Service) Subscribers() *Subscribers {
	return s.subs
}

// Start creates the window on a dedicated OS thread and blocks until the
// window is ready or setup failed. Messages are delivered on that thread.
func (s *Service) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	// One slot: the pump never blocks on a caller that is already gone.
	ready := make(chan error, 1)
	go s.pump(ready)

	if err := <-ready; err != nil {
		s.logger.WithError(err).Error("Background window setup failed")
		return err
	}
	hwnd, _ := s.hwnd.Load()
	s.logger.WithField("hwnd", hexHandle(hwnd)).Debug("Background window created")
	return nil
}

func (s *Service) pump(ready chan<- error) {
	// Window messages are drained only by the thread that created the window.
	// The thread is never unlocked so it exits together with this goroutine.
	runtime.LockOSThread()

	signalled := false
	defer func() {
		s.stopped.Store(true)
		close(s.done)
	}()
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("pump thread panicked: %v", r)
			if !signalled {
				s.err = &SetupError{Stage: StageSpawnThread, Err: err}
				ready <- s.err
				return
			}
			s.err = err
			s.logger.Errorf("%+v", err)
		}
	}()

	s.logger.Debug("Creating background window...")
	hwnd, stage, err := s.bootstrap()
	if err != nil {
		s.err = &SetupError{Stage: stage, Err: err}
		signalled = true
		ready <- s.err
		return
	}
	if err := s.hwnd.Publish(hwnd); err != nil {
		s.err = &SetupError{Stage: StageCreateWindow, Err: err}
		signalled = true
		ready <- s.err
		return
	}
	signalled = true
	ready <- nil

	// GetMessage runs until PostQuit is called from WM_DESTROY
	if err := s.native.RunMessageLoop(hwnd); err != nil {
		s.err = err
		s.logger.WithError(err).Error("Background window message loop failed")
		return
	}
	s.logger.Debug("Background window message loop exited normally")
}

func (s *Service) bootstrap() (platform.Handle, Stage, error) {
	if err := s.native.RegisterClass(s.className, s.windowProc); err != nil {
		return 0, StageRegisterClass, err
	}
	hwnd, err := s.native.CreateWindow(s.className, s.title)
	if err != nil {
		return 0, StageCreateWindow, err
	}
	if s.deviceNotifications {
		if err := s.native.RegisterDeviceNotification(hwnd, platform.GUID_DEVINTERFACE_MONITOR); err != nil {
			return 0, StageRegisterNotification, err
		}
	}
	return hwnd, 0, nil
}

func (s *Service) windowProc(hwnd platform.Handle, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == platform.WM_DESTROY {
		s.destroyed.Store(true)
		s.native.PostQuit(0)
		return 0
	}
	if !s.destroyed.Load() {
		s.notify(msg, wParam, lParam)
	}
	return s.native.DefWindowProc(hwnd, msg, wParam, lParam)
}

// notify keeps a panicking sink from unwinding through the native callback.
func (s *Service) notify(msg uint32, wParam, lParam uintptr) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("%+v", errors.Errorf("sink panicked on msg 0x%x: %v", msg, r))
		}
	}()
	s.sink.Notify(msg, wParam, lParam)
}

// WindowHandle returns the sentinel window, or false until Start succeeded.
func (s *Service) WindowHandle() (platform.Handle, bool) {
	return s.hwnd.Load()
}

// Post queues a message for the sentinel window. It returns without waiting
// for delivery.
func (s *Service) Post(msg uint32, wParam, lParam uintptr) error {
	hwnd, ok := s.hwnd.Load()
	if !ok {
		return ErrNotReady
	}
	if s.stopped.Load() || s.destroyed.Load() {
		return ErrStopped
	}
	if err := s.native.PostMessage(hwnd, msg, wParam, lParam); err != nil {
		if s.stopped.Load() {
			return ErrStopped
		}
		return errors.Wrapf(err, "post 0x%x to sentinel window", msg)
	}
	return nil
}

// Close asks the window to close; default processing destroys it and the
// pump loop ends. Wait on Done for completion.
func (s *Service) Close() error {
	err := s.Post(platform.WM_CLOSE, 0, 0)
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}

// Done is closed when the pump thread has exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Err returns why the pump thread exited; nil for a normal quit. Only
// meaningful after Done is closed.
func (s *Service) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
