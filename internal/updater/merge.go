// SPDX-License-Identifier: MPL-2.0

package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/web2board/web2board/internal/version"
)

// MergeInstaller installs a release by replacing each top-level entry of the
// destination that also exists in the archive. Entries only present in the
// destination are left alone.
type MergeInstaller struct {
	Destination string
}

// MoveToDestination implements Installer.
func (m MergeInstaller) MoveToDestination(ctx context.Context, extractedDir string, _ version.Info) error {
	if err := os.MkdirAll(m.Destination, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", m.Destination, err)
	}

	entries, err := os.ReadDir(extractedDir)
	if err != nil {
		return fmt.Errorf("listing extracted files: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(extractedDir, e.Name())
		dst := filepath.Join(m.Destination, e.Name())
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("removing old %s: %w", e.Name(), err)
		}
		if err := moveEntry(src, dst); err != nil {
			return fmt.Errorf("installing %s: %w", e.Name(), err)
		}
	}
	return nil
}

// moveEntry renames src to dst, falling back to a copy when they live on
// different filesystems.
func moveEntry(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	info, statErr := os.Stat(src)
	if statErr != nil {
		return statErr
	}
	if info.IsDir() {
		if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
			return err
		}
		return os.RemoveAll(src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Remove(src)
}
