// SPDX-License-Identifier: MIT

package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/internal/logging"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, true)
	logger.Debug("hidden")
	logger.Info("window closed", "chain", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "window closed")
	assert.Contains(t, out, "chain=2")
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"WARN", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"chatty", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, ok := logging.ParseLevel(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestDiscard(t *testing.T) {
	assert.False(t, logging.Discard().Enabled(context.Background(), slog.LevelError))
}

func TestForFileWithoutTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	logging.ForFile(f, slog.LevelInfo).Info("sampling", "chains", 4)
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "chains=4")
	assert.NotContains(t, string(out), "\x1b[", "colour codes in a plain file")
}
