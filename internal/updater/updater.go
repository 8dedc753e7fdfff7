// SPDX-License-Identifier: MPL-2.0

package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/web2board/web2board/internal/store"
	"github.com/web2board/web2board/internal/transfer"
	"github.com/web2board/web2board/internal/version"
)

type (
	// Installer moves an extracted release into its final location.
	// extractedDir is a scratch directory that is deleted after the call
	// returns, whatever the outcome.
	Installer interface {
		MoveToDestination(ctx context.Context, extractedDir string, candidate version.Info) error
	}

	// Fetcher retrieves small documents such as version descriptors.
	Fetcher interface {
		Fetch(ctx context.Context, url string) ([]byte, error)
	}

	// Downloader streams an archive to a local file.
	Downloader interface {
		Download(ctx context.Context, url, dst string, progress transfer.ProgressFunc) error
	}

	// Extractor unpacks an archive into a directory.
	Extractor interface {
		Extract(archivePath, dstDir string) error
	}

	// Updater compares the installed release against a remote descriptor and,
	// when asked, replaces it. One Updater exists per updatable component.
	Updater struct {
		name        string
		store       *store.Store
		destination string
		versionURL  string
		installer   Installer
		fetcher     Fetcher
		downloader  Downloader
		extractor   Extractor
		tempDir     string
		goos        string
		goarch      string
		logger      *log.Logger
	}

	// Option configures an Updater during construction.
	Option func(*Updater)
)

// WithInstaller sets the install step used by Update.
func WithInstaller(i Installer) Option {
	return func(u *Updater) {
		u.installer = i
	}
}

// WithVersionURL sets where DownloadOnlineVersionInfo reads the descriptor.
func WithVersionURL(url string) Option {
	return func(u *Updater) {
		u.versionURL = url
	}
}

// WithTransfer overrides the descriptor fetcher and archive downloader.
func WithTransfer(f Fetcher, d Downloader) Option {
	return func(u *Updater) {
		u.fetcher = f
		u.downloader = d
	}
}

// WithExtractor overrides the archive extractor.
func WithExtractor(e Extractor) Option {
	return func(u *Updater) {
		u.extractor = e
	}
}

// WithTempDir sets the parent directory for scratch files created by Update.
func WithTempDir(dir string) Option {
	return func(u *Updater) {
		u.tempDir = dir
	}
}

// WithPlatform overrides the platform used to resolve download URLs.
func WithPlatform(goos, goarch string) Option {
	return func(u *Updater) {
		u.goos = goos
		u.goarch = goarch
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// New creates an Updater named name that keeps destination in sync with the
// release recorded in st.
func New(name string, st *store.Store, destination string, opts ...Option) *Updater {
	u := &Updater{
		name:        name,
		store:       st,
		destination: destination,
		goos:        runtime.GOOS,
		goarch:      runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.fetcher == nil || u.downloader == nil {
		c := transfer.NewClient()
		if u.fetcher == nil {
			u.fetcher = c
		}
		if u.downloader == nil {
			u.downloader = c
		}
	}
	if u.extractor == nil {
		u.extractor = transfer.ZipExtractor{}
	}
	if u.tempDir == "" {
		u.tempDir = os.TempDir()
	}
	if u.logger == nil {
		u.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: name})
	}
	return u
}

// Name returns the updater's name.
func (u *Updater) Name() string { return u.name }

// Destination returns the directory this updater keeps in sync.
func (u *Updater) Destination() string { return u.destination }

// Current returns the installed release.
func (u *Updater) Current() version.Info { return u.store.Current() }

// DownloadOnlineVersionInfo fetches and validates the remote descriptor.
func (u *Updater) DownloadOnlineVersionInfo(ctx context.Context) (version.Info, error) {
	if u.versionURL == "" {
		return version.Info{}, errors.New("no version URL configured")
	}
	data, err := u.fetcher.Fetch(ctx, u.versionURL)
	if err != nil {
		return version.Info{}, fmt.Errorf("fetching version descriptor: %w", err)
	}
	info, err := version.ParseDescriptor(data, u.versionURL)
	if err != nil {
		return version.Info{}, fmt.Errorf("parsing version descriptor: %w", err)
	}
	u.logger.Debug("online version", "version", info.Version, "current", u.Current().Version)
	return info, nil
}

// IsNecessaryToUpdate reports whether candidate should be installed: its
// ordinal differs from the current one, or the destination is missing at
// least one expected asset of the current release. The candidate's own
// asset list is not checked; Commit records what an archive really ships.
// A nil candidate only checks the destination. Malformed versions count as
// "update due".
func (u *Updater) IsNecessaryToUpdate(candidate *version.Info) bool {
	current := u.store.Current()
	if candidate == nil {
		candidate = &current
	}

	newer, err := version.IsNewer(candidate.Version, current.Version)
	if err != nil {
		u.logger.Warn("cannot compare versions, treating as update due", "err", err)
		return true
	}
	if newer {
		return true
	}

	if missing := u.missingAssets(current.ExpectedAssets); len(missing) > 0 {
		u.logger.Info("destination incomplete", "dir", u.destination, "missing", missing)
		return true
	}
	if extra := u.missingAssets(candidate.ExpectedAssets); len(candidate.ExpectedAssets) > 0 && len(extra) > 0 {
		u.logger.Debug("release lists assets not installed", "version", candidate.Version, "assets", extra)
	}
	return false
}

// missingAssets returns the expected names without a case-insensitive match
// in the destination listing. A missing destination misses everything.
func (u *Updater) missingAssets(expected []string) []string {
	if len(expected) == 0 {
		if _, err := os.Stat(u.destination); err != nil {
			return []string{u.destination}
		}
		return nil
	}

	present := make(map[string]struct{})
	entries, err := os.ReadDir(u.destination)
	if err == nil {
		for _, e := range entries {
			present[strings.ToLower(e.Name())] = struct{}{}
		}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, name := range expected {
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := present[key]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// DownloadURL resolves candidate's archive URL for the configured platform.
func (u *Updater) DownloadURL(candidate version.Info) (string, error) {
	url, ok := candidate.Download.Resolve(u.goos, u.goarch)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s in release %s", ErrNoDownloadURL, u.goos, u.goarch, candidate.Version)
	}
	return url, nil
}

// ArchivePath returns where Stage downloads the archive extracted into dst.
func ArchivePath(dst string) string { return dst + ".zip" }

// Stage downloads the archive at url to ArchivePath(dst) and extracts it
// into dst. The archive is always removed; dst is removed when extraction
// fails.
func (u *Updater) Stage(ctx context.Context, url, dst string, progress transfer.ProgressFunc) error {
	archive := ArchivePath(dst)
	defer func() { _ = os.Remove(archive) }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}

	u.logger.Debug("downloading", "url", url, "to", archive)
	if err := u.downloader.Download(ctx, url, archive, progress); err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	u.logger.Debug("extracting", "archive", archive, "to", dst)
	if err := u.extractor.Extract(archive, dst); err != nil {
		_ = os.RemoveAll(dst) // Best-effort removal of partial extraction
		return &ExtractionError{Archive: archive, Err: err}
	}
	return nil
}

// Update installs candidate: download, extract into scratch space, hand the
// result to the Installer and commit candidate to the store. Scratch files
// are removed on every path. A failing Installer leaves the destination in
// whatever state it produced.
func (u *Updater) Update(ctx context.Context, candidate version.Info, progress transfer.ProgressFunc) error {
	if u.installer == nil {
		return ErrNoInstaller
	}

	url, err := u.DownloadURL(candidate)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp(u.tempDir, "web2board-"+sanitize(u.name)+"-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	if err := u.Stage(ctx, url, scratch, progress); err != nil {
		return err
	}

	if err := u.installer.MoveToDestination(ctx, scratch, candidate); err != nil {
		return fmt.Errorf("installing %s %s: %w", u.name, candidate.Version, err)
	}

	if err := u.Commit(candidate); err != nil {
		return err
	}
	u.logger.Info("updated", "version", candidate.Version)
	return nil
}

// Commit records candidate as installed. The expected assets are replaced by
// the current listing of the destination so later completeness checks test
// what was actually installed.
func (u *Updater) Commit(candidate version.Info) error {
	next := candidate.Clone()
	entries, err := os.ReadDir(u.destination)
	if err != nil {
		return fmt.Errorf("listing %s: %w", u.destination, err)
	}
	next.ExpectedAssets = make([]string, 0, len(entries))
	for _, e := range entries {
		next.ExpectedAssets = append(next.ExpectedAssets, e.Name())
	}
	return u.store.Commit(next)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
