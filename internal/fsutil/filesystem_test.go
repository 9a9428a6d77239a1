package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	assert.True(t, fs.Exists("filesystem.go"))
	assert.False(t, fs.Exists("nonexistent_file_xyz.go"))
}

func TestOSFileSystem_ListFilesAndRemove(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "run-1")
	require.NoError(t, fs.MkdirAll(dir, 0755))

	for _, name := range []string{"frame_0002.jpg", "frame_0001.jpg", "notes.txt"} {
		require.NoError(t, fs.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame_dir.jpg"), 0755))

	files, err := fs.ListFiles(dir, "frame_*.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "frame_0001.jpg"),
		filepath.Join(dir, "frame_0002.jpg"),
	}, files)

	info, err := fs.Stat(files[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Size())

	require.NoError(t, fs.RemoveAll(dir))
	assert.False(t, fs.Exists(dir))
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	require.NoError(t, mfs.WriteFile("/test.txt", []byte("hello, world"), 0644))

	data, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))

	_, err = mfs.ReadFile("/missing.txt")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMemoryFileSystem_ListFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/work/run-a", 0755))
	require.NoError(t, mfs.WriteFile("/work/run-a/frame_0002.jpg", nil, 0644))
	require.NoError(t, mfs.WriteFile("/work/run-a/frame_0001.jpg", nil, 0644))
	require.NoError(t, mfs.WriteFile("/work/run-a/sub/frame_0003.jpg", nil, 0644))

	files, err := mfs.ListFiles("/work/run-a", "frame_*.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/run-a/frame_0001.jpg", "/work/run-a/frame_0002.jpg"}, files)

	_, err = mfs.ListFiles("/work/none", "*")
	assert.Error(t, err)

	info, err := mfs.Stat("/work")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFileSystem_RemoveAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/work/run-a", 0755))
	require.NoError(t, mfs.WriteFile("/work/run-a/frame_0001.jpg", nil, 0644))
	require.NoError(t, mfs.WriteFile("/work/run-ab.jpg", nil, 0644))

	require.NoError(t, mfs.RemoveAll("/work/run-a"))
	assert.False(t, mfs.Exists("/work/run-a"))
	assert.False(t, mfs.Exists("/work/run-a/frame_0001.jpg"))
	assert.True(t, mfs.Exists("/work/run-ab.jpg"), "prefix match must respect path boundaries")
}

func TestMemoryFileSystem_RemoveErr(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/work/run-a", 0755))
	mfs.RemoveErr = errors.New("device busy")

	assert.EqualError(t, mfs.RemoveAll("/work/run-a"), "device busy")
	assert.True(t, mfs.Exists("/work/run-a"))
}
