// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launch

import "syscall"

// detachedAttrs starts the child in a new session so it does not receive
// signals aimed at the parent's process group or terminal.
func detachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
