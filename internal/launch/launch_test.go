// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestSameProcessName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{a: "web2board", b: "web2board", want: true},
		{a: "web2board.exe", b: "web2board", want: true},
		{a: "WEB2BOARD.EXE", b: "web2board.exe", want: true},
		{a: "web2board_copy", b: "web2board", want: false},
		{a: ".exe", b: "", want: false},
		{a: "", b: "", want: true},
	}

	for _, tt := range tests {
		if got := SameProcessName(tt.a, tt.b); got != tt.want {
			t.Errorf("SameProcessName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDetached_Spawn(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	t.Parallel()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "child.log")

	pid, err := Detached{}.Spawn(context.Background(), Spec{
		Path:    "/bin/sh",
		Args:    []string{"-c", "pwd; echo done"},
		Dir:     dir,
		LogFile: logFile,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want > 0", pid)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		data, _ := os.ReadFile(logFile)
		if strings.Contains(string(data), "done") {
			resolved, _ := filepath.EvalSymlinks(dir)
			if !strings.Contains(string(data), dir) && !strings.Contains(string(data), resolved) {
				t.Errorf("child did not run in %s, output: %q", dir, data)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("child output never appeared, got %q", data)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDetached_SpawnMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := Detached{}.Spawn(context.Background(), Spec{Path: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestDetached_SpawnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Detached{}).Spawn(ctx, Spec{Path: os.Args[0]}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestProcessKiller_SkipsSelf(t *testing.T) {
	t.Parallel()

	self, err := os.Executable()
	if err != nil {
		t.Skipf("cannot resolve test binary: %v", err)
	}

	// The test binary's own name must never be killed.
	killed, err := ProcessKiller{Poll: 10 * time.Millisecond, MaxPolls: 5}.KillByName(context.Background(), filepath.Base(self))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if killed != 0 {
		t.Errorf("killed = %d, want 0", killed)
	}
}

func TestProcessKiller_NoMatch(t *testing.T) {
	t.Parallel()

	killed, err := ProcessKiller{}.KillByName(context.Background(), "web2board-no-such-process")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if killed != 0 {
		t.Errorf("killed = %d, want 0", killed)
	}
}
