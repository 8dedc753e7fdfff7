// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

type (
	// Result is the outcome of one toolchain command.
	Result struct {
		ExitCode  int
		Output    string
		ErrOutput string
	}

	// Runner executes a command. A non-zero exit status is reported through
	// Result.ExitCode, not as an error.
	Runner interface {
		Run(ctx context.Context, dir string, argv []string) (*Result, error)
	}

	// ExecRunner runs commands as child processes of the launcher.
	ExecRunner struct{}
)

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, argv []string) (*Result, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Output: stdout.String(), ErrOutput: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
