//go:build unix

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(&stdout, &stderr, args)
	return stdout.String(), stderr.String(), err
}

func TestCLI_CreateInfoSyncDB(t *testing.T) {
	base := t.TempDir()

	video := filepath.Join(base, "raw.mp4")
	require.NoError(t, os.WriteFile(video, []byte("v"), 0o644))
	n2v := filepath.Join(base, "n2v.txt")
	require.NoError(t, os.WriteFile(n2v, []byte("1 2\n3 4\n"), 0o644))

	dir := filepath.Join(base, "s01")
	out, _, err := runCLI(t, "create", dir, "--video", video, "--n2v", n2v)
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.png"), []byte("x"), 0o644))

	out, _, err = runCLI(t, "info", dir)
	require.NoError(t, err)
	var info sessionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "s01", info.Name)
	assert.Equal(t, filepath.Join(dir, "raw.mp4"), info.Video)
	assert.Equal(t, []int{1, 2}, info.Frames)
	assert.True(t, info.SyncIn.Exists)
	assert.Equal(t, 2, info.SyncIn.Rows)
	assert.False(t, info.SyncOut.Exists)
	assert.False(t, info.Database.Exists)

	out, _, err = runCLI(t, "sync", "show", dir, "n2v")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	out, errOut, err := runCLI(t, "sync", "show", dir, "v2n")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "V2N_SYNC")

	_, _, err = runCLI(t, "db", "dump", dir)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	_, _, err = runCLI(t, "label", "set", dir, "2", "left", "10", "20.5")
	require.NoError(t, err)

	out, _, err = runCLI(t, "db", "dump", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0002.png")
	assert.Contains(t, out, "20.5")

	out, _, err = runCLI(t, "label", "status", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "完成：0/2")
	assert.Contains(t, out, "0001.png")
}

func TestCLI_SyncWriteAndBadDirection(t *testing.T) {
	dir := t.TempDir()
	tbl := filepath.Join(t.TempDir(), "t.txt")
	require.NoError(t, os.WriteFile(tbl, []byte("0.5\n1.5\n"), 0o644))

	_, _, err := runCLI(t, "sync", "write", dir, "v2n", tbl)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "V2N_SYNC"))
	assert.NoError(t, err)

	_, _, err = runCLI(t, "sync", "show", dir, "sideways")
	assert.Error(t, err)
}

func TestFrameArg(t *testing.T) {
	for in, want := range map[string]string{"35": "0035.png", "35.png": "0035.png", "0035.png": "0035.png"} {
		got, err := frameArg(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := frameArg("frame")
	assert.Error(t, err)
}

func TestCLI_FailureStillFlushesLogFile(t *testing.T) {
	base := t.TempDir()
	logFile := filepath.Join(base, "logs", "vidtrack.log")

	video := filepath.Join(base, "v.mp4")
	require.NoError(t, os.WriteFile(video, []byte("v"), 0o644))
	dir := filepath.Join(base, "s01")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// 同名普通文件占位：目录已存在，链接视频失败。
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.mp4"), []byte("x"), 0o644))

	_, _, err := runCLI(t, "--log-level", "debug", "--log-file", logFile, "create", dir, "--video", video)
	require.Error(t, err)

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "命令失败")
	assert.Contains(t, string(b), "链接视频失败")

	_, _, err = runCLI(t, "--log-file", logFile, "db", "dump", dir)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestCLI_DBDumpKeepsTypes(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "label", "set", dir, "1", "left", "10", "20")
	require.Error(t, err, "没有帧时无法标注")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001.png"), []byte("x"), 0o644))
	_, _, err = runCLI(t, "label", "set", dir, "1", "left", "10", "20")
	require.NoError(t, err)

	out, _, err := runCLI(t, "db", "dump", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "x: !!float 10")
	assert.Contains(t, out, "y: !!float 20")
}
