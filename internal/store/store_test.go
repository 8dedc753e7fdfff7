// SPDX-License-Identifier: MPL-2.0

package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/web2board/web2board/internal/version"
)

func TestOpen_SeedsMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Current().Version; got != version.None {
		t.Errorf("seeded version = %q, want %q", got, version.None)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file should exist after seeding: %v", err)
	}
}

func TestOpen_SeedFromInstall(t *testing.T) {
	t.Parallel()

	install := t.TempDir()
	if err := os.MkdirAll(filepath.Join(install, "res"), 0o755); err != nil {
		t.Fatal(err)
	}
	bundled := `{"version": "1.0.0", "librariesNames": ["Servo"]}`
	if err := os.WriteFile(filepath.Join(install, "res", "config.json"), []byte(bundled), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName), SeedFromInstall(install))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cur := s.Current()
	if cur.Version != "1.0.0" || len(cur.ExpectedAssets) != 1 {
		t.Errorf("unexpected seeded state: %+v", cur)
	}
}

func TestSeedFromInstall_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	if got := string(SeedFromInstall(t.TempDir())); got != string(defaultSeed) {
		t.Errorf("expected default seed, got %q", got)
	}
}

func TestOpen_ExistingFileWins(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(`{"version": "2.0.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path, []byte(`{"version": "1.0.0"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Current().Version; got != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", got)
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(`{"version": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, nil); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestCommit_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := version.Info{Version: "1.1.0", Download: version.Locator{URL: "http://x/1.1.0.zip"}, ExpectedAssets: []string{"web2board", "res"}}
	if err := s.Commit(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(next, reopened.Current()); diff != "" {
		t.Errorf("persisted state differs (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestCommit_RejectsMalformedVersion(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Commit(version.Info{Version: "beta"}); err == nil {
		t.Fatal("expected error for malformed version")
	}
	if got := s.Current().Version; got != version.None {
		t.Errorf("state changed after failed commit: %q", got)
	}
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName), []byte(`{"version": "1.0", "librariesNames": ["a"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := s.Current()
	c.ExpectedAssets[0] = "mutated"
	if s.Current().ExpectedAssets[0] != "a" {
		t.Error("Current exposes internal state")
	}
}

func TestCommit_Concurrent(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), DefaultFileName), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0", "1.3.0"} {
		wg.Go(func() {
			if err := s.Commit(version.Info{Version: v}); err != nil {
				t.Errorf("commit %s: %v", v, err)
			}
			_ = s.Current()
		})
	}
	wg.Wait()

	if _, err := version.ParseOrdinal(s.Current().Version); err != nil {
		t.Errorf("final state is malformed: %v", err)
	}
}
