// SPDX-License-Identifier: MIT

// Package logging builds the slog loggers used by the samplers and examples.
//
// Output is human-oriented: tint renders level, time and attributes in
// colour on terminals. Libraries in this module default to a discarding
// logger and accept one of these through WithLogger options.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// DefaultTimeFormat is the clock-only timestamp used by New.
const DefaultTimeFormat = "15:04:05"

// New returns a tint-backed logger writing records at or above level to w.
// Colour is disabled when noColor is set, e.g. for files and test buffers.
func New(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: DefaultTimeFormat,
		NoColor:    noColor,
	}))
}

// ForFile is New with colour enabled only when f is a terminal.
func ForFile(f *os.File, level slog.Leveler) *slog.Logger {
	fd := f.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return New(f, level, !tty)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

// ParseLevel maps "debug", "info", "warn" or "error" (any case) to a level.
// Unknown names yield slog.LevelInfo and false.
func ParseLevel(name string) (slog.Level, bool) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, false
	}
	return l, true
}
