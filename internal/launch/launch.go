// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

type (
	// Spec describes a process to start.
	Spec struct {
		// Path is the executable to run.
		Path string
		// Args are the arguments, not including the program name.
		Args []string
		// Dir is the working directory; empty means the caller's.
		Dir string
		// LogFile receives the child's stdout and stderr when set; otherwise
		// both are discarded.
		LogFile string
	}

	// Launcher starts a process that outlives its parent.
	Launcher interface {
		Spawn(ctx context.Context, spec Spec) (pid int, err error)
	}

	// Detached is the production Launcher.
	Detached struct{}
)

// Spawn starts spec in its own session or process group, releases it and
// returns its PID without waiting.
func (Detached) Spawn(ctx context.Context, spec Spec) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// exec.Command, not CommandContext: the child must survive ctx.
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = detachedAttrs()

	if spec.LogFile != "" {
		f, err := os.OpenFile(spec.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return 0, fmt.Errorf("opening child log %s: %w", spec.LogFile, err)
		}
		// The child has its own descriptor after Start.
		defer func() { _ = f.Close() }()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", spec.Path, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("releasing process %d: %w", pid, err)
	}
	return pid, nil
}
