// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/web2board/web2board/internal/testutil"
	"github.com/web2board/web2board/internal/toolchain"
)

func writeSketch(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blink.ino")
	testutil.MustWriteFile(t, path, "void setup() {}\nvoid loop() {}\n")
	return path
}

func TestCompileCommand(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.runner.result = toolchain.Result{Output: "Sketch uses 924 bytes\n"}
	sketch := writeSketch(t)

	stdout, _, err := e.run(t, e.original, "compile", sketch, "--board", "arduino:avr:mega")
	if err != nil {
		t.Fatalf("compile error = %v", err)
	}
	if !strings.Contains(stdout, "Sketch uses 924 bytes") {
		t.Errorf("compiler output not forwarded:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Compiled") {
		t.Errorf("missing success line:\n%s", stdout)
	}

	if len(e.runner.argv) != 1 {
		t.Fatalf("ran %d commands, want 1", len(e.runner.argv))
	}
	argv := e.runner.argv[0]
	if argv[0] != "arduino-cli" || argv[1] != "compile" {
		t.Errorf("argv = %v, want arduino-cli compile ...", argv)
	}
	if !slices.Contains(argv, "arduino:avr:mega") {
		t.Errorf("argv = %v, want the selected board", argv)
	}
}

func TestCompileCommand_Failure(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.runner.result = toolchain.Result{ExitCode: 4, ErrOutput: "blink.ino:1: error: expected ';'\n"}

	_, stderr, err := e.run(t, e.original, "compile", writeSketch(t))
	if got := exitCode(t, err); got != 4 {
		t.Errorf("exit code = %d, want the compiler's status 4", got)
	}
	if !errors.Is(err, toolchain.ErrCommandFailed) {
		t.Errorf("error = %v, want ErrCommandFailed", err)
	}
	if !strings.Contains(stderr, "expected ';'") {
		t.Errorf("compiler diagnostics not forwarded:\n%s", stderr)
	}
}

func TestCompileCommand_MissingFile(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	if _, _, err := e.run(t, e.original, "compile", filepath.Join(t.TempDir(), "missing.ino")); err == nil {
		t.Fatal("compile of a missing file should fail")
	}
	if len(e.runner.argv) != 0 {
		t.Errorf("no command should run, got %v", e.runner.argv)
	}
}

func TestUploadCommand(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	stdout, _, err := e.run(t, e.original, "upload", writeSketch(t), "--port", "/dev/ttyUSB9")
	if err != nil {
		t.Fatalf("upload error = %v", err)
	}
	if !strings.Contains(stdout, "Uploaded") {
		t.Errorf("missing success line:\n%s", stdout)
	}

	argv := e.runner.argv[len(e.runner.argv)-1]
	if argv[1] != "upload" || !slices.Contains(argv, "/dev/ttyUSB9") {
		t.Errorf("argv = %v, want an upload to /dev/ttyUSB9", argv)
	}
}

func TestPortsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"ports found", "/dev/ttyACM0\n\n/dev/ttyACM1\n", "/dev/ttyACM0\n/dev/ttyACM1\n"},
		{"no ports", "", "No serial ports found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newCLIEnv(t)
			e.writeConfig(t, "\n[toolchain]\nlist_ports_command = \"list-ports --plain\"\n")
			e.runner.result = toolchain.Result{Output: tt.output}

			stdout, _, err := e.run(t, e.original, "ports")
			if err != nil {
				t.Fatalf("ports error = %v", err)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("ports output = %q, want %q", stdout, tt.want)
			}
			if argv := e.runner.argv[0]; strings.Join(argv, " ") != "list-ports --plain" {
				t.Errorf("argv = %v", argv)
			}
		})
	}
}
