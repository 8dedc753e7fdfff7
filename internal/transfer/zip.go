// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// defaultMaxFileBytes is the upper bound on a single extracted file (1 GB).
// Prevents decompression bombs from a tampered archive.
const defaultMaxFileBytes = 1 << 30

// ErrUnsafeArchivePath is returned for entries that would be written outside
// the destination directory.
var ErrUnsafeArchivePath = errors.New("archive entry escapes destination")

// ZipExtractor unpacks zip archives.
type ZipExtractor struct {
	// MaxFileBytes limits the size of any single extracted file. Zero means
	// the 1 GB default.
	MaxFileBytes int64
}

// Extract unpacks archivePath into dstDir, creating dstDir if needed.
// File modes stored in the archive are preserved; entries without mode
// information become 0644 files and 0755 directories.
func (z ZipExtractor) Extract(archivePath, dstDir string) error {
	limit := z.MaxFileBytes
	if limit <= 0 {
		limit = defaultMaxFileBytes
	}

	absDest, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolving destination directory: %w", err)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = zr.Close() }() // read-only archive handle

	for _, file := range zr.File {
		target, err := entryPath(absDest, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode(file)); err != nil {
				return fmt.Errorf("creating directory %s: %w", file.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating parent directory for %s: %w", file.Name, err)
		}
		if err := extractFile(file, target, limit); err != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, err)
		}
	}
	return nil
}

// entryPath joins name onto dest and rejects results outside dest.
func entryPath(dest, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	return target, nil
}

func extractFile(file *zip.File, target string, limit int64) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }() // read-only archive entry

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(file))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return fmt.Errorf("file exceeds %d bytes", limit)
	}
	return nil
}

func fileMode(file *zip.File) os.FileMode {
	mode := file.Mode().Perm()
	if mode == 0 {
		return 0o644
	}
	return mode
}

func dirMode(file *zip.File) os.FileMode {
	mode := file.Mode().Perm()
	if mode == 0 {
		return 0o755
	}
	return mode | 0o700
}
