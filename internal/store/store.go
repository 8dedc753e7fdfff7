// SPDX-License-Identifier: MPL-2.0

package store

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/web2board/web2board/internal/version"
)

// DefaultFileName is the state file name used inside the config directory.
const DefaultFileName = "web2board-config.json"

//go:embed default_state.json
var defaultSeed []byte

type (
	// Store holds the current installation's version.Info and persists it.
	// It is safe for concurrent use.
	Store struct {
		path    string
		mu      sync.RWMutex
		current version.Info
	}
)

// DefaultSeed returns the built-in seed descriptor (version 0.0.0).
func DefaultSeed() []byte {
	return append([]byte(nil), defaultSeed...)
}

// SeedFromInstall returns the bundled descriptor at <installDir>/res/config.json
// when present, falling back to DefaultSeed.
func SeedFromInstall(installDir string) []byte {
	data, err := os.ReadFile(filepath.Join(installDir, "res", "config.json"))
	if err != nil || len(data) == 0 {
		return DefaultSeed()
	}
	return data
}

// Open loads the state file at path. When the file does not exist it is
// created from seed (DefaultSeed when seed is empty).
func Open(path string, seed []byte) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info, parseErr := version.ParseDescriptor(data, path)
		if parseErr != nil {
			return nil, fmt.Errorf("reading installation state: %w", parseErr)
		}
		s.current = info
		return s, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading installation state: %w", err)
	}

	if len(seed) == 0 {
		seed = defaultSeed
	}
	info, err := version.ParseDescriptor(seed, "seed descriptor")
	if err != nil {
		return nil, fmt.Errorf("seeding installation state: %w", err)
	}
	if err := writeAtomic(path, info); err != nil {
		return nil, fmt.Errorf("seeding installation state: %w", err)
	}
	s.current = info
	return s, nil
}

// Path returns the location of the state file.
func (s *Store) Path() string { return s.path }

// Current returns a copy of the installed version.Info.
func (s *Store) Current() version.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Commit records info as the installed release. The in-memory value changes
// only after the file has been replaced successfully.
func (s *Store) Commit(info version.Info) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("committing installation state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.path, info); err != nil {
		return fmt.Errorf("committing installation state: %w", err)
	}
	s.current = info.Clone()
	return nil
}

// writeAtomic writes info to a temp file next to path and renames it into place.
func writeAtomic(path string, info version.Info) (err error) {
	data, err := version.MarshalDescriptor(info)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
