package services

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierml/atelier/internal/types"
)

func newArtifactsFixture(t *testing.T) (*Artifacts, string) {
	t.Helper()

	root := t.TempDir()
	svc, err := NewArtifactsService(root)
	require.NoError(t, err)
	return svc, root
}

// writeModelDir creates a model directory with one weights file inside.
func writeModelDir(t *testing.T, root, name string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pytorch_lora_weights.safetensors"), []byte("weights"), 0o644))
}

func TestArtifacts_List(t *testing.T) {
	svc, root := newArtifactsFixture(t)

	writeModelDir(t, root, "a_dog-20240101-120000")
	writeModelDir(t, root, "a_cat-20240301-083000")

	artifacts, err := svc.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	// Newest first.
	assert.Equal(t, "a_cat-20240301-083000", artifacts[0].Name)
	assert.Equal(t, "a cat", artifacts[0].Prompt)
	assert.Equal(t, "a_dog-20240101-120000", artifacts[1].Name)
	assert.Equal(t, "a dog", artifacts[1].Prompt)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), artifacts[1].CreatedAt)
}

func TestArtifacts_ListPrunesEmptyDirectories(t *testing.T) {
	svc, root := newArtifactsFixture(t)

	writeModelDir(t, root, "a_dog-20240101-120000")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "crashed_run-20240202-000000"), 0o755))

	artifacts, err := svc.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "a_dog-20240101-120000", artifacts[0].Name)

	// The empty directory was removed from disk.
	_, statErr := os.Stat(filepath.Join(root, "crashed_run-20240202-000000"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestArtifacts_ListSkipsMalformedNames(t *testing.T) {
	svc, root := newArtifactsFixture(t)

	writeModelDir(t, root, "a_dog-20240101-120000")
	writeModelDir(t, root, "not-conforming")
	writeModelDir(t, root, "noseparators")

	artifacts, err := svc.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "a_dog-20240101-120000", artifacts[0].Name)

	// Malformed directories are left alone, only skipped.
	_, statErr := os.Stat(filepath.Join(root, "not-conforming"))
	assert.NoError(t, statErr)
}

func TestArtifacts_ListEmptyRoot(t *testing.T) {
	svc, _ := newArtifactsFixture(t)

	artifacts, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestArtifacts_Archive(t *testing.T) {
	svc, root := newArtifactsFixture(t)
	writeModelDir(t, root, "a_dog-20240101-120000")

	var buf bytes.Buffer
	require.NoError(t, svc.Archive("a_dog-20240101-120000", &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "pytorch_lora_weights.safetensors", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(content))
}

func TestArtifacts_ArchiveNotFound(t *testing.T) {
	svc, _ := newArtifactsFixture(t)

	var buf bytes.Buffer
	err := svc.Archive("missing-20240101-120000", &buf)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestArtifacts_ArchiveEmptyDirSelfHeals(t *testing.T) {
	svc, root := newArtifactsFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-20240101-120000"), 0o755))

	var buf bytes.Buffer
	err := svc.Archive("empty-20240101-120000", &buf)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))

	_, statErr := os.Stat(filepath.Join(root, "empty-20240101-120000"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestArtifacts_Delete(t *testing.T) {
	svc, root := newArtifactsFixture(t)
	writeModelDir(t, root, "a_dog-20240101-120000")

	require.NoError(t, svc.Delete("a_dog-20240101-120000"))
	_, statErr := os.Stat(filepath.Join(root, "a_dog-20240101-120000"))
	assert.True(t, os.IsNotExist(statErr))

	err := svc.Delete("a_dog-20240101-120000")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestArtifacts_NameValidation(t *testing.T) {
	svc, _ := newArtifactsFixture(t)

	for _, name := range []string{"", "..", "a/b", `a\b`, "../../etc"} {
		err := svc.Delete(name)
		require.Error(t, err, "name %q must be rejected", name)
		assert.Equal(t, types.ErrKindValidation, types.KindOf(err), "name %q", name)
	}
}
