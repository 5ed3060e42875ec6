package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/pdict"
	"github.com/John-Robertt/vidtrack/internal/schema"
	"github.com/John-Robertt/vidtrack/internal/synctab"
)

func TestReadSync_MissingIsNoData(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	tbl, ok, err := s.ReadSyncIn()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tbl)

	tbl, ok, err = s.ReadSyncOut()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tbl)
}

func TestWriteReadSync_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	out := synctab.Table{{0.5, 1033.25}, {1.5, 1066.125}, {2.25, 1099.0001}}
	require.NoError(t, s.WriteSyncOut(out))

	got, ok, err := s.ReadSyncOut()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, synctab.Equal(out, got, 1e-12))

	// 只写了 V2N，N2V 仍然没有数据。
	_, ok, err = s.ReadSyncIn()
	require.NoError(t, err)
	assert.False(t, ok)

	// 覆盖写入。
	in := synctab.Column(1, 2, 3)
	require.NoError(t, s.WriteSyncIn(in))
	require.NoError(t, s.WriteSyncIn(synctab.Column(4)))
	got, ok, err = s.ReadSyncIn()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, synctab.Column(4), got)

	_, err = os.Stat(filepath.Join(root, "N2V_SYNC"))
	assert.NoError(t, err)
}

func TestWriteSync_RaggedTableNotWritten(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	err = s.WriteSyncOut(synctab.Table{{1, 2}, {3}})
	assert.ErrorIs(t, err, synctab.ErrRagged)
	err = s.WriteSyncIn(synctab.Table{{1}, {}})
	assert.ErrorIs(t, err, synctab.ErrEmptyRow)

	_, ok, err := s.ReadSyncOut()
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.ReadSyncIn()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadSync_MalformedPropagates(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.SyncInName), []byte("1 oops\n"), 0o644))

	s, err := Open(root)
	require.NoError(t, err)

	_, _, err = s.ReadSyncIn()
	require.Error(t, err)
	assert.True(t, synctab.IsParseError(err))
}

func TestDatabase_NotFoundThenRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "m07_0412")
	require.NoError(t, os.Mkdir(root, 0o755))

	s, err := Open(root)
	require.NoError(t, err)

	_, err = s.LoadDatabaseMap()
	require.Error(t, err)
	assert.True(t, pdict.IsNotFound(err))

	has, err := s.HasDatabase()
	require.NoError(t, err)
	assert.False(t, has)

	db := map[string]any{
		"0035.png": map[string]any{"left": []any{1.5, 2.5}},
		"trials":   []any{35, 36},
	}
	require.NoError(t, s.SaveDatabase(db))

	got, err := s.LoadDatabaseMap()
	require.NoError(t, err)
	assert.Equal(t, db, got)

	_, err = os.Stat(filepath.Join(root, "m07_0412.pdict"))
	assert.NoError(t, err)
}

func TestDatabase_WholeFloatAndBytesKeepTypes(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveDatabase(map[string]any{"fps": 30.0, "thumb": []byte{0x89, 'P', 'N', 'G'}}))

	m, err := s.LoadDatabaseMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fps": float64(30), "thumb": []byte{0x89, 'P', 'N', 'G'}}, m)
}

func TestFromSchema_NoDiscovery(t *testing.T) {
	root := t.TempDir()
	sc, err := schema.New(root)
	require.NoError(t, err)

	// FromSchema 不做发现：之后写入的帧只有 Refresh 才能看到。
	s := FromSchema(sc)
	require.NoError(t, os.WriteFile(filepath.Join(root, "0007.png"), []byte("x"), 0o644))
	assert.Empty(t, s.Schema().FrameNumbers())

	require.NoError(t, s.Refresh())
	assert.Equal(t, []int{7}, s.Schema().FrameNumbers())
}

func TestOpen_MissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
