// SPDX-License-Identifier: MPL-2.0

//go:build windows

package launch

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedAttrs starts the child without a console in its own process group
// so it survives the parent exiting and ignores its Ctrl+C.
func detachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
		HideWindow:    true,
	}
}
