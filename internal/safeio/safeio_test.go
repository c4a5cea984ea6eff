package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.gs")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	fs, err := NewSafeFS(dir)
	require.NoError(t, err)
	got, err := fs.ReadFile(p, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	inner := filepath.Join(base, "inner")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("x"), 0o644))

	fs, err := NewSafeFS(inner)
	require.NoError(t, err)

	_, err = fs.ReadFile("../secret.txt", 0)
	assert.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)

	_, err = fs.ReadFile(filepath.Join(base, "secret.txt"), 0)
	assert.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)
}

func TestSafeFSReadLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.gs"), []byte("0123456789"), 0o644))
	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	got, err := fs.ReadFile("big.gs", 4)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, "0123", string(got))
}

func TestSafeFSSub(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "proj"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj", "Code.gs"), []byte("function a(){}"), 0o644))

	root, err := NewSafeFS(dir)
	require.NoError(t, err)
	sub, err := root.Sub("proj")
	require.NoError(t, err)

	got, err := sub.ReadFile("Code.gs", 0)
	require.NoError(t, err)
	assert.Equal(t, "function a(){}", string(got))

	_, err = root.Sub("missing")
	assert.Error(t, err)
}
