// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/web2board/web2board/internal/launch"
	"github.com/web2board/web2board/internal/version"
)

// MakeAnAuxiliaryCopy replaces the copy tree with a fresh copy of the
// running installation and renames its executable to the copy name. Any
// previous copy is discarded, whatever state it was left in.
func (s *SelfUpdater) MakeAnAuxiliaryCopy() error {
	src, dst := s.layout.MainDir, s.layout.CopyDir
	if samePath(src, dst) {
		return s.copyFailed(src, dst, fmt.Errorf("source and target are the same directory"))
	}

	s.logger.Info("creating auxiliary copy", "from", src, "to", dst)

	if err := removeTree(dst); err != nil {
		return s.copyFailed(src, dst, fmt.Errorf("removing previous copy: %w", err))
	}
	if err := copyTree(src, dst); err != nil {
		return s.copyFailed(src, dst, err)
	}

	from := filepath.Join(dst, s.layout.ExecutableName)
	if err := os.Rename(from, s.layout.CopyExecutable()); err != nil {
		return s.copyFailed(src, dst, fmt.Errorf("renaming copied executable: %w", err))
	}

	s.setState(StateCopyCreated)
	return nil
}

func (s *SelfUpdater) copyFailed(src, dst string, err error) error {
	cErr := &CopyCreationError{Source: src, Target: dst, Err: err}
	s.critical("auxiliary copy failed", "err", cErr)
	s.setState(StateFailed)
	return cErr
}

// RunAuxiliaryCopy starts the copy executable with the apply flag for v and
// then waits for the copy to terminate this process. Returning at all means
// the handoff failed: either the copy could not be started or the grace
// period elapsed, in which case a *HandoffTimeoutError is returned. The wait
// is not cancelable.
func (s *SelfUpdater) RunAuxiliaryCopy(ctx context.Context, v string) error {
	if s.State() != StateCopyCreated {
		return fmt.Errorf("%w (state %s)", ErrCopyNotReady, s.State())
	}
	if _, err := version.ParseOrdinal(v); err != nil {
		s.setState(StateFailed)
		return err
	}

	spec := launch.Spec{
		Path:    s.layout.CopyExecutable(),
		Args:    []string{"--" + ApplyFlag, v},
		Dir:     s.layout.CopyDir,
		LogFile: s.childLog,
	}
	pid, err := s.launcher.Spawn(ctx, spec)
	if err != nil {
		s.critical("launching auxiliary copy failed", "path", spec.Path, "err", err)
		s.setState(StateFailed)
		return fmt.Errorf("launching auxiliary copy: %w", err)
	}

	s.setState(StateHandoffRequested)
	s.logger.Info("waiting for auxiliary copy to take over", "pid", pid, "grace", s.grace)
	time.Sleep(s.grace)

	tErr := &HandoffTimeoutError{PID: pid, Grace: s.grace}
	s.critical("handoff timed out", "err", tErr)
	s.setState(StateFailed)
	return tErr
}
