// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/web2board/web2board/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "web2board"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvFileName is the optional dotenv file read from the config directory.
	EnvFileName = ".env"
	// EnvPrefix prefixes every environment override, e.g.
	// WEB2BOARD_UPDATE_VERSION_URL.
	EnvPrefix = "WEB2BOARD"
)

// ConfigDir returns the web2board configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the settings file inside cfgDir.
func FilePath(cfgDir string) string {
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
}

// loadWithOptions builds the configuration from defaults, the settings file,
// the dotenv file and the environment, in increasing precedence. It does not
// cache anything.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return nil, err
	}

	// godotenv never overrides variables already set in the environment.
	envPath := filepath.Join(cfgDir, EnvFileName)
	if fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load environment file").
				WithResource(envPath).
				Suggest("Use KEY=value lines, one per line").
				Wrap(err).
				BuildError()
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := opts.ConfigFilePath
	if source != "" {
		if !fileExists(source) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(source).
				Suggest("Verify the file path is correct").
				Suggest("Use 'web2board config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", source)).
				BuildError()
		}
	} else if p := FilePath(cfgDir); fileExists(p) {
		source = p
	}

	if source != "" {
		v.SetConfigFile(source)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(source).
				Suggest("Check that the file contains valid TOML").
				Suggest("Run 'web2board config init' in an empty directory to see every key").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = source

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(source).
			Suggest("URLs must be absolute http or https URLs").
			Suggest("Timeouts must be positive numbers of seconds").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("update.version_url", string(d.Update.VersionURL))
	v.SetDefault("update.download_url_template", d.Update.DownloadURLTemplate)
	v.SetDefault("update.check_on_start", d.Update.CheckOnStart)
	v.SetDefault("update.handoff_grace_seconds", int(d.Update.HandoffGraceSeconds))
	v.SetDefault("update.http_timeout_seconds", int(d.Update.HTTPTimeoutSeconds))
	v.SetDefault("install.original_dir", d.Install.OriginalDir)
	v.SetDefault("install.copy_dir", d.Install.CopyDir)
	v.SetDefault("install.stage_dir", d.Install.StageDir)
	v.SetDefault("install.state_file", d.Install.StateFile)
	v.SetDefault("libraries.version_url", string(d.Libraries.VersionURL))
	v.SetDefault("libraries.dir", d.Libraries.Dir)
	v.SetDefault("toolchain.compile_command", d.Toolchain.CompileCommand)
	v.SetDefault("toolchain.upload_command", d.Toolchain.UploadCommand)
	v.SetDefault("toolchain.list_ports_command", d.Toolchain.ListPortsCommand)
	v.SetDefault("toolchain.board", d.Toolchain.Board)
	v.SetDefault("toolchain.port", d.Toolchain.Port)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// StateFile returns the path of the persisted version state: the configured
// install.state_file, or web2board-config.json in cfgDir.
func (c *Config) StateFile(cfgDir, defaultName string) string {
	if c.Install.StateFile != "" {
		return c.Install.StateFile
	}
	return filepath.Join(cfgDir, defaultName)
}

// LibrariesDir returns the configured libraries directory, or "libraries"
// in cfgDir.
func (c *Config) LibrariesDir(cfgDir string) string {
	if c.Libraries.Dir != "" {
		return c.Libraries.Dir
	}
	return filepath.Join(cfgDir, "libraries")
}

// CreateDefaultConfig writes the default settings file into cfgDir unless
// one exists. It returns the file path and whether it was created.
func CreateDefaultConfig(cfgDir string) (string, bool, error) {
	cfgPath := FilePath(cfgDir)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}
	if err := Save(DefaultConfig(), cfgPath); err != nil {
		return "", false, err
	}
	return cfgPath, true, nil
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := GenerateTOML(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateTOML renders cfg as a commented TOML document.
func GenerateTOML(cfg *Config) ([]byte, error) {
	body, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# web2board configuration file\n")
	sb.WriteString("# Every key can be overridden with WEB2BOARD_<SECTION>_<KEY>.\n\n")
	sb.Write(body)
	return []byte(sb.String()), nil
}
