package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IceyWu/live-photo/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	require.Equal(slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(slog.LevelWarn, ParseLevel("warning"))
	require.Equal(slog.LevelError, ParseLevel(" error "))
	require.Equal(slog.LevelInfo, ParseLevel("chatty"))
}

// Setup replaces the slog default, so these run sequentially.
func TestSetupJSONToFile(t *testing.T) {
	require := require.New(t)
	defer slog.SetDefault(slog.Default())

	var out bytes.Buffer
	file := filepath.Join(t.TempDir(), "livephoto.log")
	logger, closer := Setup(config.LogConfig{Level: "warn", Format: "json", File: file, MaxSizeMB: 1}, &out)

	logger.Info("dropped")
	logger.Warn("kept", "component", "test")
	require.NoError(closer.Close())

	require.NotContains(out.String(), "dropped")
	require.Contains(out.String(), `"msg":"kept"`)

	data, err := os.ReadFile(file)
	require.NoError(err)
	require.Equal(out.String(), string(data))
}

func TestSetupText(t *testing.T) {
	require := require.New(t)
	defer slog.SetDefault(slog.Default())

	var out bytes.Buffer
	_, closer := Setup(config.LogConfig{Level: "debug", Format: "text"}, &out)
	slog.Debug("hello", "component", "test")
	require.NoError(closer.Close())

	require.True(strings.Contains(out.String(), "msg=hello"), out.String())
}
