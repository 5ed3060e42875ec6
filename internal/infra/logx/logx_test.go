package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("multiple video files", zap.String("dir", "/s"))
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "multiple video files")
	assert.Contains(t, out, "/s")
}

func TestNew_FileRotatorWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidtrack.log")
	log, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("resolved", zap.Int("frames", 3))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "{"), "期望 JSON 行：%s", b)
	assert.Contains(t, string(b), `"frames":3`)
}

func TestNew_NoTargetsIsNop(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
