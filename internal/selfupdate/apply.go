// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/web2board/web2board/internal/launch"
	"github.com/web2board/web2board/internal/version"
)

// ApplyUpdate is run by the auxiliary copy. It replaces the original tree
// with the release staged at stagedPath, records the new version, starts the
// new original executable and terminates the process: exit status 0 on
// success, 1 on any failure.
//
// It refuses to run anywhere but the copy tree, or when the copy tree is the
// original tree, and leaves the original tree untouched in that case. A failure after the original tree was removed
// leaves it empty or partial; the staged release is kept so the next launch
// of the copy can retry.
func (s *SelfUpdater) ApplyUpdate(ctx context.Context, stagedPath string) error {
	code := 1
	defer func() { s.exit(code) }()

	if err := s.applyUpdate(ctx, stagedPath); err != nil {
		s.critical("applying update failed", "staged", stagedPath, "err", err)
		s.setState(StateFailed)
		return err
	}
	code = 0
	return nil
}

func (s *SelfUpdater) applyUpdate(ctx context.Context, stagedPath string) error {
	l := s.layout
	if !samePath(l.MainDir, l.CopyDir) || samePath(l.CopyDir, l.OriginalDir) {
		return &InvalidApplyContextError{MainDir: l.MainDir, CopyDir: l.CopyDir, OriginalDir: l.OriginalDir}
	}

	v := filepath.Base(stagedPath)
	if _, err := version.ParseOrdinal(v); err != nil {
		return fmt.Errorf("staged path %s: %w", stagedPath, err)
	}
	confirm := stagedPath + confirmSuffix
	if !fileExists(confirm) {
		return fmt.Errorf("%w: %s has no %s marker", ErrStageIncomplete, stagedPath, confirmSuffix)
	}

	s.setState(StateApplying)
	original := s.layout.OriginalDir

	killed, err := s.killer.KillByName(ctx, s.layout.ExecutableName)
	if err != nil {
		s.logger.Warn("could not terminate every original process", "err", err)
	}
	s.logger.Debug("terminated original processes", "count", killed)

	if err := removeTree(original); err != nil {
		return fmt.Errorf("removing %s: %w", original, err)
	}
	if err := copyTree(stagedPath, original); err != nil {
		return fmt.Errorf("installing %s into %s: %w", v, original, err)
	}

	installed := version.Info{Version: v}
	if url, err := s.DownloadURL(installed); err == nil {
		installed.Download = version.Locator{URL: url}
	}
	if err := s.updater.Commit(installed); err != nil {
		return fmt.Errorf("recording version %s: %w", v, err)
	}

	if err := os.Remove(confirm); err != nil {
		s.logger.Warn("could not remove confirmation marker", "path", confirm, "err", err)
	}
	if err := os.RemoveAll(stagedPath); err != nil {
		s.logger.Warn("could not remove staged release", "path", stagedPath, "err", err)
	}

	exe := s.layout.OriginalExecutable()
	if err := os.Chmod(exe, 0o755); err != nil {
		return fmt.Errorf("making %s executable: %w", exe, err)
	}

	pid, err := s.launcher.Spawn(ctx, launch.Spec{Path: exe, Dir: original, LogFile: s.childLog})
	if err != nil {
		return fmt.Errorf("relaunching %s: %w", exe, err)
	}
	s.setState(StateRelaunched)
	s.logger.Info("update applied", "version", v, "pid", pid)
	return nil
}
