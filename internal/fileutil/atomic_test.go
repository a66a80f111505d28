package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFill = errors.New("backend failed mid-stream")

func TestWriteAtomic_Success(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644)) //nolint:gosec // G306: Test file, relaxed perms OK
	require.NoError(t, WriteAtomic(target, []byte("new"), 0o600))

	data, err := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteAtomicFunc_Streams(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "random.bin")
	err := WriteAtomicFunc(target, 0o600, func(w io.Writer) error {
		for i := 0; i < 4; i++ {
			if _, err := w.Write([]byte{byte(i)}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, data)
}

func TestWriteAtomicFunc_UnbufferedWriter(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "random.bin")
	err := WriteAtomicFunc(target, 0o600, func(w io.Writer) error {
		f, ok := w.(*os.File)
		require.True(t, ok, "fill must write to the temp file directly, got %T", w)
		_, err := f.Write([]byte("abc"))
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestWriteAtomicFunc_FillErrorLeavesOriginal(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "random.bin")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o600))

	err := WriteAtomicFunc(target, 0o600, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errFill
	})
	require.ErrorIs(t, err, errFill)

	data, readErr := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(data))

	entries, readErr := os.ReadDir(tmpDir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestWriteAtomic_UnwritableDirLeavesOriginal(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644)) //nolint:gosec // G306: Test file, relaxed perms OK

	require.NoError(t, os.Chmod(tmpDir, 0o500)) //nolint:gosec // G302: Test uses intentionally restrictive perms
	defer func() {
		_ = os.Chmod(tmpDir, 0o700) //nolint:gosec // G302: Restoring perms in test cleanup
	}()

	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	err := WriteAtomic(target, []byte("replacement"), 0o600)
	require.Error(t, err)

	data, readErr := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(data))
}

func TestWriteAtomic_EmptyPath(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, WriteAtomic("", []byte("data"), 0o600), ErrEmptyPath)
}
