// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	// defaultExitPoll is the interval between liveness checks after a kill.
	defaultExitPoll = 100 * time.Millisecond

	// defaultExitPolls bounds how long KillByName waits for each process.
	defaultExitPolls = 50
)

var errStillRunning = errors.New("process still running")

type (
	// Killer terminates every process whose name matches.
	Killer interface {
		KillByName(ctx context.Context, name string) (killed int, err error)
	}

	// ProcessKiller is the production Killer. It never targets the calling
	// process.
	ProcessKiller struct {
		// Poll is the interval between liveness checks; zero means 100ms.
		Poll time.Duration
		// MaxPolls bounds the wait per process; zero means 50.
		MaxPolls uint64
	}
)

// KillByName kills every other process named name and waits for each to
// exit. Matching ignores case and a trailing ".exe". Processes that cannot be
// inspected are skipped. The first kill or wait failure is returned after all
// matches were attempted.
func (k ProcessKiller) KillByName(ctx context.Context, name string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing processes: %w", err)
	}

	self := int32(os.Getpid())
	killed := 0
	var firstErr error
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		pname, err := p.NameWithContext(ctx)
		if err != nil || !SameProcessName(pname, name) {
			continue
		}

		if err := p.KillWithContext(ctx); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("killing %s (pid %d): %w", pname, p.Pid, err)
			}
			continue
		}
		if err := k.waitExit(ctx, p.Pid); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("waiting for pid %d to exit: %w", p.Pid, err)
			}
			continue
		}
		killed++
	}
	return killed, firstErr
}

func (k ProcessKiller) waitExit(ctx context.Context, pid int32) error {
	poll := k.Poll
	if poll <= 0 {
		poll = defaultExitPoll
	}
	polls := k.MaxPolls
	if polls == 0 {
		polls = defaultExitPolls
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(poll), polls), ctx)
	return backoff.Retry(func() error {
		alive, err := process.PidExistsWithContext(ctx, pid)
		if err != nil {
			return backoff.Permanent(err)
		}
		if alive {
			return errStillRunning
		}
		return nil
	}, b)
}

// SameProcessName compares process names the way the operating system
// reports them: case-insensitively and without an ".exe" suffix.
func SameProcessName(a, b string) bool {
	return strings.EqualFold(trimExe(a), trimExe(b))
}

func trimExe(name string) string {
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		return name[:len(name)-4]
	}
	return name
}
