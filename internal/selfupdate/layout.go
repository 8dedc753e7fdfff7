// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/web2board/web2board/internal/updater"
)

const (
	// AppName is the base name of the launcher executable.
	AppName = "web2board"

	// copySuffix is appended to the executable name and the installation
	// directory to form the auxiliary copy.
	copySuffix = "_copy"

	// confirmSuffix marks a fully staged release directory.
	confirmSuffix = ".confirm"

	// RoleUnmanaged indicates the executable runs outside both managed trees,
	// for example from a build directory.
	RoleUnmanaged Role = 0

	// RoleOriginal indicates the authoritative installation.
	RoleOriginal Role = 1

	// RoleCopy indicates the auxiliary copy started to apply an update.
	RoleCopy Role = 2
)

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

type (
	// Role identifies which installation tree the running process belongs to.
	Role int

	// Layout holds the on-disk locations used by the update protocol.
	// All directories are absolute.
	Layout struct {
		MainDir            string // Directory of the running executable
		OriginalDir        string // Authoritative installation tree
		CopyDir            string // Auxiliary tree used during the handoff
		StageDir           string // Parent of staged releases
		ExecutableName     string // e.g. web2board or web2board.exe
		CopyExecutableName string // e.g. web2board_copy or web2board_copy.exe
	}

	// LayoutOptions overrides parts of the derived layout. Empty fields are
	// derived from the running executable.
	LayoutOptions struct {
		OriginalDir string
		CopyDir     string
		StageDir    string
	}
)

// String returns a human-readable name for the role.
func (r Role) String() string {
	switch r {
	case RoleOriginal:
		return "original"
	case RoleCopy:
		return "copy"
	case RoleUnmanaged:
		return "unmanaged"
	}
	return "unmanaged"
}

// ResolveLayout derives the layout from the running executable. Without
// overrides the original tree is the executable's directory, or that
// directory minus the "_copy" suffix when running as the copy, and the copy
// tree is the original plus "_copy".
func ResolveLayout(opts LayoutOptions) (Layout, error) {
	execPath, err := resolveExecPath()
	if err != nil {
		return Layout{}, fmt.Errorf("resolving executable path: %w", err)
	}
	return layoutFor(execPath, runtime.GOOS, opts)
}

func layoutFor(execPath, goos string, opts LayoutOptions) (Layout, error) {
	l := Layout{
		MainDir:            filepath.Dir(execPath),
		ExecutableName:     executableName(AppName, goos),
		CopyExecutableName: executableName(AppName+copySuffix, goos),
	}
	runningCopy := samePathName(filepath.Base(execPath), l.CopyExecutableName, goos)

	switch {
	case opts.OriginalDir != "":
		l.OriginalDir = opts.OriginalDir
	case runningCopy && strings.HasSuffix(l.MainDir, copySuffix):
		l.OriginalDir = strings.TrimSuffix(l.MainDir, copySuffix)
	default:
		l.OriginalDir = l.MainDir
	}

	l.CopyDir = opts.CopyDir
	if l.CopyDir == "" {
		l.CopyDir = filepath.Clean(l.OriginalDir) + copySuffix
	}

	l.StageDir = opts.StageDir
	if l.StageDir == "" {
		l.StageDir = filepath.Join(os.TempDir(), AppName+"_versions")
	}

	for _, p := range []*string{&l.MainDir, &l.OriginalDir, &l.CopyDir, &l.StageDir} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return Layout{}, fmt.Errorf("resolving %s: %w", *p, err)
		}
		*p = abs
	}
	if samePathName(l.CopyDir, l.OriginalDir, goos) {
		return Layout{}, fmt.Errorf("%w: %s", ErrOverlappingLayout, l.CopyDir)
	}
	return l, nil
}

// StagedPath returns the directory a release is staged into.
func (l Layout) StagedPath(version string) string {
	return filepath.Join(l.StageDir, version)
}

// ConfirmPath returns the marker that declares a staged release complete.
func (l Layout) ConfirmPath(version string) string {
	return l.StagedPath(version) + confirmSuffix
}

// ArchivePath returns the transient download location of a release.
func (l Layout) ArchivePath(version string) string {
	return updater.ArchivePath(l.StagedPath(version))
}

// OriginalExecutable returns the executable inside the original tree.
func (l Layout) OriginalExecutable() string {
	return filepath.Join(l.OriginalDir, l.ExecutableName)
}

// CopyExecutable returns the renamed executable inside the copy tree.
func (l Layout) CopyExecutable() string {
	return filepath.Join(l.CopyDir, l.CopyExecutableName)
}

// Role classifies the running process by its MainDir.
func (l Layout) Role() Role {
	return DetectRole(filepath.Join(l.MainDir, l.ExecutableName), l)
}

// DetectRole classifies execPath: inside the copy tree means RoleCopy,
// inside the original tree RoleOriginal, anything else RoleUnmanaged. The
// copy is checked first because the copy tree may be nested in the original.
func DetectRole(execPath string, l Layout) Role {
	dir := filepath.Dir(execPath)
	switch {
	case samePath(dir, l.CopyDir):
		return RoleCopy
	case samePath(dir, l.OriginalDir):
		return RoleOriginal
	}
	return RoleUnmanaged
}

// resolveExecPath returns the absolute, symlink-resolved path to the currently
// running binary.
func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}

	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", p, err)
	}

	return resolved, nil
}

func executableName(base, goos string) string {
	if goos == "windows" {
		return base + ".exe"
	}
	return base
}

// samePath compares two directories after cleaning, ignoring case on
// case-insensitive platforms.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return false
	}
	return samePathName(absA, absB, runtime.GOOS)
}

func samePathName(a, b, goos string) bool {
	if goos == "windows" || goos == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
