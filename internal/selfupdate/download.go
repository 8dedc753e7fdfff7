// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/web2board/web2board/internal/transfer"
	"github.com/web2board/web2board/internal/version"
)

type (
	// Callbacks receive the outcome of DownloadVersion. Both are optional.
	// OnProgress is called from the downloading goroutine. OnDone is called
	// from that goroutine too, except for a release that is already staged:
	// then it runs on the caller's goroutine before DownloadVersion returns.
	Callbacks struct {
		OnProgress transfer.ProgressFunc
		OnDone     func(stagedPath string, err error)
	}

	// Download is a staging operation started by DownloadVersion.
	Download struct {
		group   *errgroup.Group
		staged  string
		skipped bool
	}
)

// Wait blocks until the download finished and returns the staged path.
func (d *Download) Wait() (string, error) {
	if err := d.group.Wait(); err != nil {
		return "", err
	}
	return d.staged, nil
}

// Skipped reports whether the release was already staged and nothing was
// downloaded.
func (d *Download) Skipped() bool { return d.skipped }

// DownloadVersion stages target under the stage directory in the
// background. When the confirmation marker of target already exists nothing
// is downloaded and OnDone fires immediately. Concurrent callers in
// different processes are not coordinated beyond that marker.
func (s *SelfUpdater) DownloadVersion(ctx context.Context, target version.Info, cb Callbacks) *Download {
	staged := s.layout.StagedPath(target.Version)
	g, gctx := errgroup.WithContext(ctx)
	d := &Download{group: g, staged: staged}

	if _, err := version.ParseOrdinal(target.Version); err != nil {
		g.Go(func() error {
			s.setState(StateFailed)
			s.finish(cb, staged, err)
			return err
		})
		return d
	}

	if fileExists(s.layout.ConfirmPath(target.Version)) {
		s.logger.Info("release already staged", "version", target.Version, "path", staged)
		d.skipped = true
		s.setState(StateStaged)
		s.finish(cb, staged, nil)
		return d
	}

	s.setState(StateDownloading)
	g.Go(func() error {
		err := s.stage(gctx, target, cb.OnProgress)
		if err != nil {
			s.logger.Error("staging failed", "version", target.Version, "err", err)
			s.setState(StateFailed)
		} else {
			s.setState(StateStaged)
		}
		s.finish(cb, staged, err)
		return err
	})
	return d
}

// stage downloads and extracts target, then writes the confirmation marker.
// A tree or archive left behind by an interrupted run is discarded first.
func (s *SelfUpdater) stage(ctx context.Context, target version.Info, progress transfer.ProgressFunc) error {
	url, err := s.DownloadURL(target)
	if err != nil {
		return err
	}

	staged := s.layout.StagedPath(target.Version)
	if err := os.RemoveAll(staged); err != nil {
		return fmt.Errorf("removing stale stage %s: %w", staged, err)
	}
	if archive := s.layout.ArchivePath(target.Version); fileExists(archive) {
		s.logger.Debug("removing stale archive", "path", archive)
		if err := os.Remove(archive); err != nil {
			return fmt.Errorf("removing stale archive %s: %w", archive, err)
		}
	}

	if err := s.updater.Stage(ctx, url, staged, progress); err != nil {
		return err
	}

	marker, err := os.Create(s.layout.ConfirmPath(target.Version))
	if err == nil {
		err = marker.Close()
	}
	if err != nil {
		_ = os.RemoveAll(staged) // Best-effort: an unmarked stage is never used
		return fmt.Errorf("writing confirmation marker: %w", err)
	}

	s.logger.Info("release staged", "version", target.Version, "path", staged)
	return nil
}

func (s *SelfUpdater) finish(cb Callbacks, staged string, err error) {
	if cb.OnDone == nil {
		return
	}
	if err != nil {
		staged = ""
	}
	cb.OnDone(staged, err)
}

func (s *SelfUpdater) logProgress(p transfer.Progress) {
	if pct := p.Percent(); pct >= 0 {
		s.logger.Debug("downloading", "percent", fmt.Sprintf("%.0f", pct))
		return
	}
	s.logger.Debug("downloading", "bytes", p.Done)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
