// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"strings"
	"testing"
)

// ZipArchive builds an in-memory zip archive from entries. Names ending in
// "/" become directories; files get mode 0o755.
func ZipArchive(t testing.TB, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if strings.HasSuffix(name, "/") {
			hdr.SetMode(os.ModeDir | 0o755)
		} else {
			hdr.SetMode(0o755)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buf.Bytes()
}

// MustWriteZip writes ZipArchive(entries) to path.
func MustWriteZip(t testing.TB, path string, entries map[string]string) {
	t.Helper()
	if err := os.WriteFile(path, ZipArchive(t, entries), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
