package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/types"
)

// Artifacts manages the persisted model directories under a single root.
// Every call works against the live filesystem; nothing is cached.
type Artifacts struct {
	root string
}

// NewArtifactsService creates the registry over root, creating the directory
// if needed.
func NewArtifactsService(root string) (*Artifacts, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, types.NewStorageError(fmt.Sprintf("failed to create model root %s", root), err)
	}
	return &Artifacts{root: root}, nil
}

// Root returns the artifact root directory.
func (a *Artifacts) Root() string {
	return a.root
}

// List scans the model root and returns one ModelArtifact per valid
// subdirectory, newest first. Empty subdirectories are deleted and skipped;
// directories whose names do not parse are skipped with a warning.
func (a *Artifacts) List() ([]types.ModelArtifact, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, types.NewStorageError("failed to read model root", err)
	}

	artifacts := make([]types.ModelArtifact, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		empty, err := a.pruneIfEmpty(entry.Name())
		if err != nil {
			logger.Warnf("Skipping model directory %s: %v", entry.Name(), err)
			continue
		}
		if empty {
			continue
		}

		artifact, err := types.ParseArtifactName(entry.Name())
		if err != nil {
			logger.Warnf("Skipping unrecognized model directory: %v", err)
			continue
		}
		artifacts = append(artifacts, artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})
	return artifacts, nil
}

// Archive writes a fresh zip of the named model directory to w. Returns a
// not-found error if the directory does not exist or turns out to be empty
// (empty directories are deleted on sight).
func (a *Artifacts) Archive(name string, w io.Writer) error {
	dir, err := a.modelDir(name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return types.NewNotFoundError(fmt.Sprintf("model %q not found", name))
	} else if err != nil {
		return types.NewStorageError(fmt.Sprintf("failed to stat model %q", name), err)
	}

	empty, err := a.pruneIfEmpty(name)
	if err != nil {
		return types.NewStorageError(fmt.Sprintf("failed to read model %q", name), err)
	}
	if empty {
		return types.NewNotFoundError(fmt.Sprintf("model %q not found", name))
	}

	zw := zip.NewWriter(w)
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		f, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(f, src)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return types.NewStorageError(fmt.Sprintf("failed to archive model %q", name), walkErr)
	}

	if err := zw.Close(); err != nil {
		return types.NewStorageError(fmt.Sprintf("failed to finalize archive of model %q", name), err)
	}
	return nil
}

// Delete recursively removes the named model directory.
func (a *Artifacts) Delete(name string) error {
	dir, err := a.modelDir(name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return types.NewNotFoundError(fmt.Sprintf("model %q not found", name))
	}

	if err := os.RemoveAll(dir); err != nil {
		return types.NewStorageError(fmt.Sprintf("failed to delete model %q", name), err)
	}
	logger.Infof("Deleted model %s", name)
	return nil
}

// modelDir validates name and resolves it inside the root. Names carrying
// path separators or traversal sequences are rejected before touching the
// filesystem.
func (a *Artifacts) modelDir(name string) (string, error) {
	if name == "" {
		return "", types.NewValidationError("model name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", types.NewValidationError(fmt.Sprintf("invalid model name %q", name))
	}
	return filepath.Join(a.root, name), nil
}

// pruneIfEmpty deletes the named subdirectory if it has no entries and
// reports whether it was empty.
func (a *Artifacts) pruneIfEmpty(name string) (bool, error) {
	dir := filepath.Join(a.root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}

	if err := os.Remove(dir); err != nil {
		logger.Warnf("Failed to remove empty model directory %s: %v", name, err)
	} else {
		logger.Infof("Removed empty model directory %s", name)
	}
	return true, nil
}
