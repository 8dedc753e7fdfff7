// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/web2board/web2board/internal/config"
	"github.com/web2board/web2board/internal/selfupdate"
	"github.com/web2board/web2board/internal/store"
	"github.com/web2board/web2board/internal/toolchain"
	"github.com/web2board/web2board/internal/transfer"
	"github.com/web2board/web2board/internal/updater"
)

const (
	// librariesStateFile records the installed board libraries release.
	librariesStateFile = "libraries-config.json"
	// childLogFile receives the output of the auxiliary copy and the
	// relaunched original.
	childLogFile = "web2board-handoff.log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: command handlers receive an App and build the
	// per-invocation services through it.
	App struct {
		Config    ConfigProvider
		configDir string
		layout    LayoutResolver
		selfOpts  []selfupdate.Option
		toolOpts  []toolchain.Option
		stdout    io.Writer
		stderr    io.Writer

		verbose    bool
		configFile string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// ConfigDir overrides the platform configuration directory.
		ConfigDir string
		// Layout resolves the installation layout of the running executable.
		Layout LayoutResolver
		// SelfUpdate options are applied after the configured ones.
		SelfUpdate []selfupdate.Option
		// Toolchain options are applied after the configured ones.
		Toolchain []toolchain.Option
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// LayoutResolver derives the installation layout.
	LayoutResolver func(opts selfupdate.LayoutOptions) (selfupdate.Layout, error)

	// services are built once per command invocation from the loaded
	// configuration.
	services struct {
		cfg       *config.Config
		cfgDir    string
		logger    *log.Logger
		store     *store.Store
		self      *selfupdate.SelfUpdater
		libraries *updater.Updater
		tools     *toolchain.Facade
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Layout == nil {
		deps.Layout = selfupdate.ResolveLayout
	}
	return &App{
		Config:    deps.Config,
		configDir: deps.ConfigDir,
		layout:    deps.Layout,
		selfOpts:  deps.SelfUpdate,
		toolOpts:  deps.Toolchain,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// loadConfig resolves the configuration directory and loads the
// configuration, honoring --config.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfgDir := a.configDir
	if cfgDir == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, "", err
		}
		cfgDir = dir
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configFile, ConfigDirPath: cfgDir})
	if err != nil {
		return nil, "", err
	}
	return cfg, cfgDir, nil
}

// services loads the configuration and builds every component from it.
func (a *App) services(ctx context.Context) (*services, error) {
	cfg, cfgDir, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(a.stderr, log.Options{ReportTimestamp: true})
	if a.verbose || cfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	layout, err := a.layout(selfupdate.LayoutOptions{
		OriginalDir: cfg.Install.OriginalDir,
		CopyDir:     cfg.Install.CopyDir,
		StageDir:    cfg.Install.StageDir,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving installation layout: %w", err)
	}
	logger.Debug("installation layout", "main", layout.MainDir, "original", layout.OriginalDir,
		"copy", layout.CopyDir, "stage", layout.StageDir, "role", layout.Role())

	st, err := store.Open(cfg.StateFile(cfgDir, store.DefaultFileName), store.SeedFromInstall(layout.OriginalDir))
	if err != nil {
		return nil, err
	}

	client := transfer.NewClient(
		transfer.WithTimeout(cfg.Update.HTTPTimeout()),
		transfer.WithUserAgent("web2board/"+Version),
	)

	self := updater.New(selfupdate.AppName, st, layout.OriginalDir,
		updater.WithVersionURL(cfg.Update.VersionURL.String()),
		updater.WithTransfer(client, client),
		updater.WithTempDir(layout.StageDir),
		updater.WithLogger(logger.WithPrefix("updater")),
	)
	selfOpts := append([]selfupdate.Option{
		selfupdate.WithURLTemplate(cfg.Update.DownloadURLTemplate),
		selfupdate.WithHandoffGrace(cfg.Update.HandoffGrace()),
		selfupdate.WithChildLog(filepath.Join(cfgDir, childLogFile)),
		selfupdate.WithLogger(logger.WithPrefix("self-update")),
	}, a.selfOpts...)

	libDir := cfg.LibrariesDir(cfgDir)
	libStore, err := store.Open(filepath.Join(cfgDir, librariesStateFile), store.DefaultSeed())
	if err != nil {
		return nil, err
	}
	libraries := updater.New("libraries", libStore, libDir,
		updater.WithInstaller(updater.MergeInstaller{Destination: libDir}),
		updater.WithVersionURL(cfg.Libraries.VersionURL.String()),
		updater.WithTransfer(client, client),
		updater.WithLogger(logger.WithPrefix("libraries")),
	)

	toolOpts := append([]toolchain.Option{
		toolchain.WithBoard(cfg.Toolchain.Board),
		toolchain.WithPort(cfg.Toolchain.Port),
		toolchain.WithLogger(logger.WithPrefix("toolchain")),
	}, a.toolOpts...)
	tools := toolchain.New(st, toolchain.Commands{
		Compile:   cfg.Toolchain.CompileCommand,
		Upload:    cfg.Toolchain.UploadCommand,
		ListPorts: cfg.Toolchain.ListPortsCommand,
	}, toolOpts...)

	return &services{
		cfg:       cfg,
		cfgDir:    cfgDir,
		logger:    logger,
		store:     st,
		self:      selfupdate.New(self, layout, selfOpts...),
		libraries: libraries,
		tools:     tools,
	}, nil
}
