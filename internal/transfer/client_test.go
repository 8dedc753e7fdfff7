// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	uaCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"version": "1.1.0"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(WithUserAgent("web2board-test"))
	body, err := c.Fetch(context.Background(), srv.URL+"/version.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"version": "1.1.0"}` {
		t.Errorf("unexpected body: %s", body)
	}
	if gotUA := <-uaCh; gotUA != "web2board-test" {
		t.Errorf("User-Agent = %q, want web2board-test", gotUA)
	}
}

func TestClient_Fetch_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewClient().Fetch(context.Background(), srv.URL+"/missing.json?token=secret")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	var sErr *StatusError
	if !errors.As(err, &sErr) || sErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected *StatusError with 404, got %#v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("error leaks query string: %v", err)
	}
}

func TestClient_Download(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("x"), 3*progressChunk+17)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dst := filepath.Join(t.TempDir(), "1.1.0.zip")
	var last Progress
	calls := 0
	err := NewClient().Download(context.Background(), srv.URL, dst, func(p Progress) {
		calls++
		last = p
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(payload))
	}
	if calls == 0 {
		t.Fatal("progress callback never called")
	}
	if last.Done != int64(len(payload)) {
		t.Errorf("final progress Done = %d, want %d", last.Done, len(payload))
	}
}

func TestClient_Download_FailureRemovesFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	dst := filepath.Join(t.TempDir(), "broken.zip")
	if err := NewClient().Download(context.Background(), srv.URL, dst, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("expected no file after failed download, stat err = %v", err)
	}
}

func TestClient_Download_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := filepath.Join(t.TempDir(), "canceled.zip")
	if err := NewClient().Download(ctx, srv.URL, dst, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProgress_Percent(t *testing.T) {
	t.Parallel()

	if got := (Progress{Done: 50, Total: 200}).Percent(); got != 25 {
		t.Errorf("Percent = %v, want 25", got)
	}
	if got := (Progress{Done: 50, Total: -1}).Percent(); got != -1 {
		t.Errorf("Percent with unknown total = %v, want -1", got)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://example.com/a.zip?sig=abc#frag": "https://example.com/a.zip",
		"http://h/x":                             "http://h/x",
		"://bad":                                 "<invalid-url>",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
