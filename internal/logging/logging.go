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

// Package logging builds the logrus loggers used by the host and the hook
// library. Output always goes through an AsyncWriter.
package logging

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
)

// TimestampFormat must be used exactly, the values are layout placeholders.
const TimestampFormat = "Mon Jan 2 15:04:05.000000000 MST 2006"

// Options selects level and destination.
type Options struct {
	Level string
	// File is appended to; empty means stderr.
	File string
	// Buffer is the number of queued lines before dropping.
	Buffer int
	// Format is "text" or "json".
	Format string
}

// Logger is a logrus logger plus the writer that must be flushed on exit.
type Logger struct {
	*log.Logger
	out    *AsyncWriter
	closer io.Closer
}

// New creates a logger according to opts.
func New(opts Options) (*Logger, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		lvl, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
		level = lvl
	}

	var dst io.Writer = os.Stderr
	var closer io.Closer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %q", opts.File)
		}
		dst = f
		closer = f
	}

	l := log.New()
	l.SetLevel(level)
	switch opts.Format {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: TimestampFormat,
		})
	case "json":
		l.SetFormatter(&log.JSONFormatter{TimestampFormat: TimestampFormat})
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}

	out := NewAsyncWriter(dst, opts.Buffer)
	l.SetOutput(out)
	return &Logger{Logger: l, out: out, closer: closer}, nil
}

// Close flushes queued lines, reports drops, and closes the log file. Lines
// logged afterwards go straight to stderr, or nowhere once a file was closed.
func (l *Logger) Close() error {
	if err := l.out.Close(); err != nil {
		return err
	}
	// the async writer is closed, write straight to the destination
	l.Logger.SetOutput(l.destination())
	st := l.out.Stats()
	if st.Dropped > 0 || st.Slow > 0 {
		l.Logger.WithFields(log.Fields{
			"dropped":  humanize.Comma(int64(st.Dropped)),
			"peak":     humanize.Comma(int64(st.Peak)),
			"capacity": humanize.Comma(int64(l.out.Capacity())),
			"slow":     st.Slow,
		}).Warn("log lines were dropped or slow")
	}
	if l.closer != nil {
		l.Logger.SetOutput(io.Discard)
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) destination() io.Writer {
	return l.out.out
}

// Stats exposes the async writer counters.
func (l *Logger) Stats() Stats {
	return l.out.Stats()
}

// WithSession tags every entry with a fresh sortable id, so that lines from
// several processes sharing one log file can be told apart.
func WithSession(l log.FieldLogger) log.FieldLogger {
	id, err := ksuid.NewRandom()
	if err != nil {
		l.WithError(err).Warn("ksuid.NewRandom")
		return l
	}
	return l.WithField("session", id.String())
}

// Discard returns a logger that writes nowhere, for tests and defaults.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
