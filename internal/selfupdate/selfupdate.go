// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/web2board/web2board/internal/launch"
	"github.com/web2board/web2board/internal/updater"
	"github.com/web2board/web2board/internal/version"
)

const (
	// ApplyFlag is the command-line flag (without dashes) that tells the
	// auxiliary copy which staged version to apply.
	ApplyFlag = "update2version"

	// DefaultHandoffGrace is how long the original waits to be terminated
	// after launching the copy.
	DefaultHandoffGrace = 10 * time.Second
)

type (
	// UpdateCheck is the result of comparing the installation with the
	// remote descriptor.
	UpdateCheck struct {
		Current         version.Info // Installed release
		Latest          version.Info // Release described by the remote descriptor
		Role            Role         // Role of the running process
		UpdateAvailable bool         // True if Latest should be installed
	}

	// SelfUpdater drives the self-replacement protocol for the launcher's
	// own installation. It wraps an updater.Updater whose destination is the
	// original installation tree.
	SelfUpdater struct {
		updater     *updater.Updater
		layout      Layout
		urlTemplate string
		launcher    launch.Launcher
		killer      launch.Killer
		grace       time.Duration
		childLog    string
		exit        func(code int)
		goos        string
		goarch      string
		logger      *log.Logger
		state       atomic.Int32
	}

	// Option configures a SelfUpdater during construction.
	Option func(*SelfUpdater)
)

// WithURLTemplate sets the archive URL template used when a descriptor
// carries no usable locator. See ExpandURLTemplate.
func WithURLTemplate(tpl string) Option {
	return func(s *SelfUpdater) {
		s.urlTemplate = tpl
	}
}

// WithLauncher overrides how detached processes are started.
func WithLauncher(l launch.Launcher) Option {
	return func(s *SelfUpdater) {
		s.launcher = l
	}
}

// WithKiller overrides how lingering original processes are terminated.
func WithKiller(k launch.Killer) Option {
	return func(s *SelfUpdater) {
		s.killer = k
	}
}

// WithHandoffGrace sets how long RunAuxiliaryCopy waits to be terminated.
func WithHandoffGrace(d time.Duration) Option {
	return func(s *SelfUpdater) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithChildLog redirects the output of spawned processes to path.
func WithChildLog(path string) Option {
	return func(s *SelfUpdater) {
		s.childLog = path
	}
}

// WithExit replaces os.Exit as the finalizer of ApplyUpdate.
func WithExit(exit func(code int)) Option {
	return func(s *SelfUpdater) {
		s.exit = exit
	}
}

// WithPlatform overrides the platform used for URL resolution.
func WithPlatform(goos, goarch string) Option {
	return func(s *SelfUpdater) {
		s.goos = goos
		s.goarch = goarch
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *SelfUpdater) {
		s.logger = l
	}
}

// New creates a SelfUpdater for layout. u must keep layout.OriginalDir in
// sync with the installation state.
func New(u *updater.Updater, layout Layout, opts ...Option) *SelfUpdater {
	s := &SelfUpdater{
		updater:  u,
		layout:   layout,
		launcher: launch.Detached{},
		killer:   launch.ProcessKiller{},
		grace:    DefaultHandoffGrace,
		exit:     os.Exit,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "self-update"})
	}
	return s
}

// Layout returns the installation layout.
func (s *SelfUpdater) Layout() Layout { return s.layout }

// State returns the current protocol state.
func (s *SelfUpdater) State() State {
	return State(s.state.Load())
}

// Current returns the installed release.
func (s *SelfUpdater) Current() version.Info {
	return s.updater.Current()
}

// Check fetches the remote descriptor and reports whether it should be
// installed.
func (s *SelfUpdater) Check(ctx context.Context) (*UpdateCheck, error) {
	s.setState(StateChecking)

	latest, err := s.updater.DownloadOnlineVersionInfo(ctx)
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	chk := &UpdateCheck{
		Current:         s.updater.Current(),
		Latest:          latest,
		Role:            s.layout.Role(),
		UpdateAvailable: s.updater.IsNecessaryToUpdate(&latest),
	}
	if !chk.UpdateAvailable {
		s.setState(StateIdle)
	}
	return chk, nil
}

// CheckAndUpdate runs the original's half of the protocol: check, stage,
// copy and hand off. It returns false with a nil error when the installation
// is up to date. When an update was started it returns true together with
// the error that stopped it; in production the copy terminates this process
// before the handoff grace period ends, so a return means failure.
func (s *SelfUpdater) CheckAndUpdate(ctx context.Context) (bool, error) {
	if role := s.layout.Role(); role != RoleOriginal {
		return false, fmt.Errorf("%w: running as %s from %s", ErrUnmanagedInstall, role, s.layout.MainDir)
	}

	chk, err := s.Check(ctx)
	if err != nil {
		return false, err
	}
	if !chk.UpdateAvailable {
		s.logger.Debug("installation is up to date", "version", chk.Current.Version)
		return false, nil
	}

	s.logger.Info("update available", "current", chk.Current.Version, "latest", chk.Latest.Version)

	dl := s.DownloadVersion(ctx, chk.Latest, Callbacks{OnProgress: s.logProgress})
	if _, err := dl.Wait(); err != nil {
		return true, err
	}
	if err := s.MakeAnAuxiliaryCopy(); err != nil {
		return true, err
	}
	return true, s.RunAuxiliaryCopy(ctx, chk.Latest.Version)
}

func (s *SelfUpdater) setState(to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		s.logger.Debug("state changed", "from", from, "to", to)
	}
}

// critical logs at the highest severity without exiting.
func (s *SelfUpdater) critical(msg string, keyvals ...any) {
	s.logger.Log(log.FatalLevel, msg, keyvals...)
}
