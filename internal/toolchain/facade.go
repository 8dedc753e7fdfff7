// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/web2board/web2board/internal/version"
)

const sketchName = "sketch"

var (
	// ErrNoCommand is returned when the requested command is not configured.
	ErrNoCommand = errors.New("toolchain command not configured")
	// ErrNoBoard is returned when compiling or uploading without a board.
	ErrNoBoard = errors.New("no board selected")
	// ErrNoPort is returned when no serial port was set or found.
	ErrNoPort = errors.New("no serial port found")
	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("toolchain command failed")
)

type (
	// CommandError is returned when a toolchain command exits with a non-zero
	// status.
	CommandError struct {
		Command string
		Result  *Result
	}

	// Commands are the command lines run by the Facade. $BOARD, $PORT and
	// $SKETCH are expanded; other variables come from the environment.
	Commands struct {
		Compile   string
		Upload    string
		ListPorts string
	}

	// VersionSource reports the installed release.
	VersionSource interface {
		Current() version.Info
	}

	// Facade compiles and uploads sketches through an external toolchain.
	// It is safe for concurrent use.
	Facade struct {
		mu       sync.Mutex
		board    string
		port     string
		cmds     Commands
		versions VersionSource
		runner   Runner
		patterns []string
		tempDir  string
		logger   *log.Logger
	}

	// Option configures a Facade during construction.
	Option func(*Facade)
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Result.ErrOutput)
	if msg == "" {
		msg = strings.TrimSpace(e.Result.Output)
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.Result.ExitCode, msg)
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// WithRunner overrides how commands are executed.
func WithRunner(r Runner) Option {
	return func(f *Facade) {
		f.runner = r
	}
}

// WithBoard sets the initial board.
func WithBoard(board string) Option {
	return func(f *Facade) {
		f.board = board
	}
}

// WithPort sets the initial serial port. Empty means auto-detect.
func WithPort(port string) Option {
	return func(f *Facade) {
		f.port = port
	}
}

// WithPortPatterns replaces the glob patterns SearchPort tries when no
// list-ports command is configured.
func WithPortPatterns(patterns ...string) Option {
	return func(f *Facade) {
		f.patterns = patterns
	}
}

// WithTempDir sets where sketches are written before compiling.
func WithTempDir(dir string) Option {
	return func(f *Facade) {
		f.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Facade) {
		f.logger = l
	}
}

// New creates a Facade running cmds. versions provides the version reported
// by Version.
func New(versions VersionSource, cmds Commands, opts ...Option) *Facade {
	f := &Facade{
		cmds:     cmds,
		versions: versions,
		runner:   ExecRunner{},
		patterns: DefaultPortPatterns(runtime.GOOS),
		tempDir:  os.TempDir(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "toolchain"})
	}
	return f
}

// DefaultPortPatterns returns the device globs where boards usually appear
// on goos. Windows has none; configure a list-ports command there.
func DefaultPortPatterns(goos string) []string {
	switch goos {
	case "linux":
		return []string{"/dev/ttyACM*", "/dev/ttyUSB*"}
	case "darwin":
		return []string{"/dev/cu.usbmodem*", "/dev/cu.usbserial*"}
	default:
		return nil
	}
}

// Version returns the installed release version.
func (f *Facade) Version() string {
	return f.versions.Current().Version
}

// SetBoard selects the board identifier passed as $BOARD.
func (f *Facade) SetBoard(board string) error {
	board = strings.TrimSpace(board)
	if board == "" {
		return ErrNoBoard
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.board = board
	return nil
}

// Board returns the selected board.
func (f *Facade) Board() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.board
}

// SetPort selects the serial port. An empty port re-enables detection.
func (f *Facade) SetPort(port string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.port = strings.TrimSpace(port)
}

// Port returns the selected serial port, empty when detection is used.
func (f *Facade) Port() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.port
}

// SearchPort returns the first serial port a board is connected to. The
// list-ports command is preferred: its first non-empty output line is the
// port. Otherwise the port patterns are globbed in order.
func (f *Facade) SearchPort(ctx context.Context) (string, error) {
	ports, err := f.ListPorts(ctx)
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", ErrNoPort
	}
	return ports[0], nil
}

// ListPorts returns every candidate serial port.
func (f *Facade) ListPorts(ctx context.Context) ([]string, error) {
	if f.cmds.ListPorts != "" {
		res, err := f.run(ctx, "", f.cmds.ListPorts, nil)
		if err != nil {
			return nil, err
		}
		var ports []string
		sc := bufio.NewScanner(strings.NewReader(res.Output))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				ports = append(ports, line)
			}
		}
		return ports, nil
	}

	var ports []string
	for _, pattern := range f.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("port pattern %q: %w", pattern, err)
		}
		ports = append(ports, matches...)
	}
	return ports, nil
}

// Compile builds code as a sketch for the selected board.
func (f *Facade) Compile(ctx context.Context, code string) (*Result, error) {
	board := f.Board()
	if board == "" {
		return nil, ErrNoBoard
	}
	return f.withSketch(code, func(sketch string) (*Result, error) {
		return f.run(ctx, sketch, f.cmds.Compile, map[string]string{"BOARD": board, "SKETCH": sketch})
	})
}

// Upload builds code and flashes it onto the board at the selected port,
// searching for a port when none is selected.
func (f *Facade) Upload(ctx context.Context, code string) (*Result, error) {
	board := f.Board()
	if board == "" {
		return nil, ErrNoBoard
	}
	port := f.Port()
	if port == "" {
		found, err := f.SearchPort(ctx)
		if err != nil {
			return nil, err
		}
		f.logger.Info("using detected port", "port", found)
		port = found
	}
	return f.withSketch(code, func(sketch string) (*Result, error) {
		return f.run(ctx, sketch, f.cmds.Upload, map[string]string{"BOARD": board, "PORT": port, "SKETCH": sketch})
	})
}

// withSketch writes code to <tmp>/sketch/sketch.ino, the layout sketch
// tools expect, and removes it after fn returns.
func (f *Facade) withSketch(code string, fn func(sketchDir string) (*Result, error)) (*Result, error) {
	root, err := os.MkdirTemp(f.tempDir, "web2board-sketch-*")
	if err != nil {
		return nil, fmt.Errorf("creating sketch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(root) }()

	dir := filepath.Join(root, sketchName)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sketch directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sketchName+".ino"), []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("writing sketch: %w", err)
	}
	return fn(dir)
}

// run splits command into argv, expanding vars before the environment, and
// executes it in dir.
func (f *Facade) run(ctx context.Context, dir, command string, vars map[string]string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrNoCommand
	}
	argv, err := shell.Fields(command, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}

	f.logger.Debug("running", "argv", argv, "dir", dir)
	res, err := f.runner.Run(ctx, dir, argv)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", argv[0], err)
	}
	if res.ExitCode != 0 {
		return res, &CommandError{Command: argv[0], Result: res}
	}
	return res, nil
}
