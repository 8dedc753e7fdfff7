// SPDX-License-Identifier: MPL-2.0

package updater

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/web2board/web2board/internal/store"
	"github.com/web2board/web2board/internal/testutil"
	"github.com/web2board/web2board/internal/version"
)

// newTestServer serves each path in files with its content; unknown paths 404.
func newTestServer(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, seed string) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"), []byte(seed))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return st
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

type failingInstaller struct{ err error }

func (f failingInstaller) MoveToDestination(context.Context, string, version.Info) error {
	return f.err
}

func TestIsNecessaryToUpdate(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	for _, name := range []string{"Servo", "res"} {
		if err := os.Mkdir(filepath.Join(dest, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	st := newTestStore(t, `{"version": "1.0.0", "librariesNames": ["servo", "RES"]}`)
	u := New("test", st, dest, WithLogger(quietLogger()))

	tests := []struct {
		name      string
		candidate *version.Info
		want      bool
	}{
		{name: "same version, assets present (case-insensitive)", candidate: &version.Info{Version: "1.0.0"}, want: false},
		{name: "different version", candidate: &version.Info{Version: "1.1.0"}, want: true},
		{name: "older version", candidate: &version.Info{Version: "0.9.0"}, want: true},
		{name: "candidate lists asset not installed", candidate: &version.Info{Version: "1.0.0", ExpectedAssets: []string{"Stepper"}}, want: false},
		{name: "malformed candidate", candidate: &version.Info{Version: "latest"}, want: true},
		{name: "nil candidate", candidate: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := u.IsNecessaryToUpdate(tt.candidate); got != tt.want {
				t.Errorf("IsNecessaryToUpdate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNecessaryToUpdate_MissingDestination(t *testing.T) {
	t.Parallel()

	st := newTestStore(t, `{"version": "1.0.0", "librariesNames": ["Servo"]}`)
	u := New("test", st, filepath.Join(t.TempDir(), "absent"), WithLogger(quietLogger()))

	if !u.IsNecessaryToUpdate(nil) {
		t.Error("missing destination should require an update")
	}
	if !u.IsNecessaryToUpdate(&version.Info{Version: "1.0.0"}) {
		t.Error("missing destination should require an update for an equal version")
	}
}

func TestIsNecessaryToUpdate_AssetRemovedAfterInstall(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	asset := filepath.Join(dest, "Servo")
	if err := os.Mkdir(asset, 0o755); err != nil {
		t.Fatal(err)
	}
	st := newTestStore(t, `{"version": "1.0.0", "librariesNames": ["Servo"]}`)
	u := New("test", st, dest, WithLogger(quietLogger()))

	if u.IsNecessaryToUpdate(nil) {
		t.Fatal("complete destination should not require an update")
	}
	if err := os.RemoveAll(asset); err != nil {
		t.Fatal(err)
	}
	if !u.IsNecessaryToUpdate(nil) {
		t.Error("deleting an expected asset should require an update")
	}
}

func TestIsNecessaryToUpdate_InstalledReleaseMissingListedAsset(t *testing.T) {
	t.Parallel()

	archive := testutil.ZipArchive(t, map[string]string{"Servo/Servo.h": "servo"})
	srv := newTestServer(t, map[string][]byte{"/libs-1.1.0.zip": archive})

	dest := t.TempDir()
	st := newTestStore(t, `{"version": "1.0.0"}`)
	u := New("libraries", st, dest,
		WithInstaller(MergeInstaller{Destination: dest}),
		WithLogger(quietLogger()),
	)

	// The descriptor lists an entry the archive does not ship.
	candidate := version.Info{
		Version:        "1.1.0",
		Download:       version.Locator{URL: srv.URL + "/libs-1.1.0.zip"},
		ExpectedAssets: []string{"Servo", "Docs"},
	}
	if !u.IsNecessaryToUpdate(&candidate) {
		t.Fatal("different version should require an update")
	}
	if err := u.Update(context.Background(), candidate, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.IsNecessaryToUpdate(&candidate) {
		t.Error("installed release reported as needing the same update again")
	}
}

func TestDownloadOnlineVersionInfo(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string][]byte{
		"/version.json": []byte(`{"version": "1.1.0", "file2DownloadUrl": "http://x/1.1.0.zip"}`),
		"/broken.json":  []byte(`{"version": 11}`),
	})
	st := newTestStore(t, `{"version": "1.0.0"}`)

	u := New("test", st, t.TempDir(), WithVersionURL(srv.URL+"/version.json"), WithLogger(quietLogger()))
	info, err := u.DownloadOnlineVersionInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version != "1.1.0" {
		t.Errorf("Version = %q, want 1.1.0", info.Version)
	}

	broken := New("test", st, t.TempDir(), WithVersionURL(srv.URL+"/broken.json"), WithLogger(quietLogger()))
	if _, err := broken.DownloadOnlineVersionInfo(context.Background()); err == nil {
		t.Error("expected error for invalid descriptor")
	}

	unset := New("test", st, t.TempDir(), WithLogger(quietLogger()))
	if _, err := unset.DownloadOnlineVersionInfo(context.Background()); err == nil {
		t.Error("expected error without a version URL")
	}
}

func TestUpdate_MergesAndCommits(t *testing.T) {
	t.Parallel()

	archive := testutil.ZipArchive(t, map[string]string{
		"Servo/Servo.h":     "new servo",
		"Stepper/Stepper.h": "stepper",
	})
	srv := newTestServer(t, map[string][]byte{"/libs-1.1.0.zip": archive})

	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, "Servo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "Servo", "old.h"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dest, "UserLib"), 0o755); err != nil {
		t.Fatal(err)
	}

	scratchParent := t.TempDir()
	st := newTestStore(t, `{"version": "1.0.0"}`)
	u := New("libraries", st, dest,
		WithInstaller(MergeInstaller{Destination: dest}),
		WithTempDir(scratchParent),
		WithLogger(quietLogger()),
	)

	candidate := version.Info{Version: "1.1.0", Download: version.Locator{URL: srv.URL + "/libs-1.1.0.zip"}}
	if err := u.Update(context.Background(), candidate, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "Servo", "Servo.h"))
	if err != nil || string(got) != "new servo" {
		t.Errorf("Servo.h = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "Servo", "old.h")); !os.IsNotExist(err) {
		t.Error("replaced entry kept stale files")
	}
	if _, err := os.Stat(filepath.Join(dest, "UserLib")); err != nil {
		t.Error("merge removed an entry absent from the archive")
	}

	cur := st.Current()
	if cur.Version != "1.1.0" {
		t.Errorf("committed version = %q, want 1.1.0", cur.Version)
	}
	if len(cur.ExpectedAssets) != 3 {
		t.Errorf("ExpectedAssets = %v, want the 3 destination entries", cur.ExpectedAssets)
	}

	assertEmptyDir(t, scratchParent)
}

func TestUpdate_InstallerFailureCleansUpAndKeepsVersion(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string][]byte{"/a.zip": testutil.ZipArchive(t, map[string]string{"x": "y"})})
	scratchParent := t.TempDir()
	st := newTestStore(t, `{"version": "1.0.0"}`)
	hookErr := errors.New("disk full")
	u := New("test", st, t.TempDir(),
		WithInstaller(failingInstaller{err: hookErr}),
		WithTempDir(scratchParent),
		WithLogger(quietLogger()),
	)

	err := u.Update(context.Background(), version.Info{Version: "1.1.0", Download: version.Locator{URL: srv.URL + "/a.zip"}}, nil)
	if !errors.Is(err, hookErr) {
		t.Fatalf("expected installer error, got %v", err)
	}
	if got := st.Current().Version; got != "1.0.0" {
		t.Errorf("version changed after failed install: %q", got)
	}
	assertEmptyDir(t, scratchParent)
}

func TestUpdate_DownloadFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	scratchParent := t.TempDir()
	u := New("test", newTestStore(t, `{"version": "1.0.0"}`), t.TempDir(),
		WithInstaller(MergeInstaller{Destination: t.TempDir()}),
		WithTempDir(scratchParent),
		WithLogger(quietLogger()),
	)

	err := u.Update(context.Background(), version.Info{Version: "1.1.0", Download: version.Locator{URL: srv.URL + "/missing.zip"}}, nil)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	var dErr *DownloadError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *DownloadError, got %T", err)
	}
	assertEmptyDir(t, scratchParent)
}

func TestUpdate_ExtractionFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string][]byte{"/bad.zip": []byte("not a zip")})
	scratchParent := t.TempDir()
	u := New("test", newTestStore(t, `{"version": "1.0.0"}`), t.TempDir(),
		WithInstaller(MergeInstaller{Destination: t.TempDir()}),
		WithTempDir(scratchParent),
		WithLogger(quietLogger()),
	)

	err := u.Update(context.Background(), version.Info{Version: "1.1.0", Download: version.Locator{URL: srv.URL + "/bad.zip"}}, nil)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	assertEmptyDir(t, scratchParent)
}

func TestUpdate_NoInstaller(t *testing.T) {
	t.Parallel()

	u := New("test", newTestStore(t, `{"version": "1.0.0"}`), t.TempDir(), WithLogger(quietLogger()))
	if err := u.Update(context.Background(), version.Info{Version: "1.1.0"}, nil); !errors.Is(err, ErrNoInstaller) {
		t.Fatalf("expected ErrNoInstaller, got %v", err)
	}
}

func TestDownloadURL_Platform(t *testing.T) {
	t.Parallel()

	u := New("test", newTestStore(t, `{"version": "1.0.0"}`), t.TempDir(),
		WithPlatform("windows", "386"),
		WithLogger(quietLogger()),
	)
	info := version.Info{Version: "1.1.0", Download: version.Locator{ByPlatform: map[string]string{
		"windows-32": "http://x/w32.zip",
		"linux":      "http://x/l.zip",
	}}}

	got, err := u.DownloadURL(info)
	if err != nil || got != "http://x/w32.zip" {
		t.Errorf("DownloadURL() = %q, %v", got, err)
	}

	mac := New("test", newTestStore(t, `{"version": "1.0.0"}`), t.TempDir(), WithPlatform("darwin", "arm64"), WithLogger(quietLogger()))
	if _, err := mac.DownloadURL(info); !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("expected ErrNoDownloadURL, got %v", err)
	}
}

func TestCommit_ListsDestination(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	for _, name := range []string{"web2board", "res"} {
		if err := os.WriteFile(filepath.Join(dest, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	st := newTestStore(t, `{"version": "1.0.0"}`)
	u := New("test", st, dest, WithLogger(quietLogger()))

	if err := u.Commit(version.Info{Version: "1.1.0", ExpectedAssets: []string{"ignored"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := st.Current().ExpectedAssets
	if len(got) != 2 || got[0] != "res" || got[1] != "web2board" {
		t.Errorf("ExpectedAssets = %v, want [res web2board]", got)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected %s to be empty, found %v", dir, names)
	}
}
