// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrInvalidRemoteURL is the sentinel error wrapped by InvalidRemoteURLError.
	ErrInvalidRemoteURL = errors.New("invalid remote URL")
	// ErrInvalidSeconds is the sentinel error wrapped by InvalidSecondsError.
	ErrInvalidSeconds = errors.New("invalid duration in seconds")
	// ErrInvalidUpdateConfig is the sentinel error wrapped by InvalidUpdateConfigError.
	ErrInvalidUpdateConfig = errors.New("invalid update config")
	// ErrInvalidInstallConfig is the sentinel error wrapped by InvalidInstallConfigError.
	ErrInvalidInstallConfig = errors.New("invalid install config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

// templatePlaceholders are removed before a URL template is validated.
var templatePlaceholders = strings.NewReplacer("{arch}", "64", "{os}", "os", "{version}", "0")

type (
	// RemoteURL is an absolute http or https URL. The zero value is valid and
	// means "not configured".
	RemoteURL string

	// InvalidRemoteURLError is returned when a RemoteURL is not an absolute
	// http(s) URL. It wraps ErrInvalidRemoteURL for errors.Is() compatibility.
	InvalidRemoteURLError struct {
		Field  string
		Value  string
		Reason string
	}

	// Seconds is a positive duration expressed in whole seconds.
	Seconds int

	// InvalidSecondsError is returned when a Seconds value is not positive.
	InvalidSecondsError struct {
		Field string
		Value Seconds
	}

	// InvalidUpdateConfigError collects the field errors of an UpdateConfig.
	InvalidUpdateConfigError struct {
		FieldErrors []error
	}

	// InvalidInstallConfigError is returned when the copy directory names the
	// original directory.
	InvalidInstallConfigError struct {
		OriginalDir string
		CopyDir     string
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Update configures the self-update of the launcher
		Update UpdateConfig `mapstructure:"update" toml:"update"`
		// Install overrides the installation layout
		Install InstallConfig `mapstructure:"install" toml:"install"`
		// Libraries configures the board libraries updater
		Libraries LibrariesConfig `mapstructure:"libraries" toml:"libraries"`
		// Toolchain configures the external compiler and uploader
		Toolchain ToolchainConfig `mapstructure:"toolchain" toml:"toolchain"`
		// UI configures the user interface
		UI UIConfig `mapstructure:"ui" toml:"ui"`

		// Source is the file the configuration was read from, empty when only
		// defaults and the environment applied.
		Source string `mapstructure:"-" toml:"-"`
	}

	// UpdateConfig configures where releases come from and how the handoff
	// between the original and the auxiliary copy is timed.
	UpdateConfig struct {
		// VersionURL points at the remote version descriptor
		VersionURL RemoteURL `mapstructure:"version_url" toml:"version_url"`
		// DownloadURLTemplate builds archive URLs from {arch}, {os} and {version}
		DownloadURLTemplate string `mapstructure:"download_url_template" toml:"download_url_template"`
		// CheckOnStart runs the self-update on a normal launch
		CheckOnStart bool `mapstructure:"check_on_start" toml:"check_on_start"`
		// HandoffGraceSeconds is how long the original waits to be replaced
		HandoffGraceSeconds Seconds `mapstructure:"handoff_grace_seconds" toml:"handoff_grace_seconds"`
		// HTTPTimeoutSeconds bounds every descriptor fetch and archive download
		HTTPTimeoutSeconds Seconds `mapstructure:"http_timeout_seconds" toml:"http_timeout_seconds"`
	}

	// InstallConfig overrides the directories of the installation. Empty
	// values are derived from the running executable.
	InstallConfig struct {
		OriginalDir string `mapstructure:"original_dir" toml:"original_dir"`
		CopyDir     string `mapstructure:"copy_dir" toml:"copy_dir"`
		StageDir    string `mapstructure:"stage_dir" toml:"stage_dir"`
		StateFile   string `mapstructure:"state_file" toml:"state_file"`
	}

	// LibrariesConfig configures the board libraries updater.
	LibrariesConfig struct {
		VersionURL RemoteURL `mapstructure:"version_url" toml:"version_url"`
		Dir        string    `mapstructure:"dir" toml:"dir"`
	}

	// ToolchainConfig holds the commands run by the compiler and uploader.
	// Commands are parsed with shell quoting rules; $BOARD, $PORT and $SKETCH
	// are expanded.
	ToolchainConfig struct {
		CompileCommand   string `mapstructure:"compile_command" toml:"compile_command"`
		UploadCommand    string `mapstructure:"upload_command" toml:"upload_command"`
		ListPortsCommand string `mapstructure:"list_ports_command" toml:"list_ports_command"`
		Board            string `mapstructure:"board" toml:"board"`
		Port             string `mapstructure:"port" toml:"port"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Update: UpdateConfig{
			CheckOnStart:        true,
			HandoffGraceSeconds: 10,
			HTTPTimeoutSeconds:  300,
		},
		Toolchain: ToolchainConfig{
			CompileCommand: `arduino-cli compile --fqbn "$BOARD" "$SKETCH"`,
			UploadCommand:  `arduino-cli upload --fqbn "$BOARD" --port "$PORT" "$SKETCH"`,
			Board:          "arduino:avr:uno",
		},
	}
}

// String returns the string representation of the RemoteURL.
func (u RemoteURL) String() string { return string(u) }

// IsValid reports whether the URL is empty or an absolute http(s) URL.
func (u RemoteURL) IsValid(field string) (bool, []error) {
	if u == "" {
		return true, nil
	}
	if reason := checkRemoteURL(string(u)); reason != "" {
		return false, []error{&InvalidRemoteURLError{Field: field, Value: string(u), Reason: reason}}
	}
	return true, nil
}

func checkRemoteURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err.Error()
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "scheme must be http or https"
	}
	if parsed.Host == "" {
		return "missing host"
	}
	return ""
}

// Error implements the error interface for InvalidRemoteURLError.
func (e *InvalidRemoteURLError) Error() string {
	return fmt.Sprintf("%s: invalid URL %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRemoteURL for errors.Is() compatibility.
func (e *InvalidRemoteURLError) Unwrap() error { return ErrInvalidRemoteURL }

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) * time.Second }

// IsValid reports whether s is positive.
func (s Seconds) IsValid(field string) (bool, []error) {
	if s <= 0 {
		return false, []error{&InvalidSecondsError{Field: field, Value: s}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSecondsError.
func (e *InvalidSecondsError) Error() string {
	return fmt.Sprintf("%s: %d is not a positive number of seconds", e.Field, e.Value)
}

// Unwrap returns ErrInvalidSeconds for errors.Is() compatibility.
func (e *InvalidSecondsError) Unwrap() error { return ErrInvalidSeconds }

// HandoffGrace returns the handoff grace period.
func (c UpdateConfig) HandoffGrace() time.Duration { return c.HandoffGraceSeconds.Duration() }

// HTTPTimeout returns the timeout for a single transfer.
func (c UpdateConfig) HTTPTimeout() time.Duration { return c.HTTPTimeoutSeconds.Duration() }

// IsValid returns whether the UpdateConfig has valid fields. The URL template
// is checked with its placeholders substituted.
func (c UpdateConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.VersionURL.IsValid("update.version_url"); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.DownloadURLTemplate != "" {
		if reason := checkRemoteURL(templatePlaceholders.Replace(c.DownloadURLTemplate)); reason != "" {
			errs = append(errs, &InvalidRemoteURLError{
				Field:  "update.download_url_template",
				Value:  c.DownloadURLTemplate,
				Reason: reason,
			})
		}
	}
	if valid, fieldErrs := c.HandoffGraceSeconds.IsValid("update.handoff_grace_seconds"); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.HTTPTimeoutSeconds.IsValid("update.http_timeout_seconds"); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUpdateConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUpdateConfigError.
func (e *InvalidUpdateConfigError) Error() string {
	return fmt.Sprintf("invalid update config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidUpdateConfig and the field errors.
func (e *InvalidUpdateConfigError) Unwrap() []error {
	return append([]error{ErrInvalidUpdateConfig}, e.FieldErrors...)
}

// IsValid returns whether the copy directory differs from the original
// directory. Empty directories are derived later and always pass.
func (c InstallConfig) IsValid() (bool, []error) {
	if c.OriginalDir == "" || c.CopyDir == "" {
		return true, nil
	}
	if filepath.Clean(c.OriginalDir) == filepath.Clean(c.CopyDir) {
		return false, []error{&InvalidInstallConfigError{OriginalDir: c.OriginalDir, CopyDir: c.CopyDir}}
	}
	return true, nil
}

// Error implements the error interface for InvalidInstallConfigError.
func (e *InvalidInstallConfigError) Error() string {
	return fmt.Sprintf("install.copy_dir %q must differ from install.original_dir %q", e.CopyDir, e.OriginalDir)
}

// Unwrap returns ErrInvalidInstallConfig for errors.Is() compatibility.
func (e *InvalidInstallConfigError) Unwrap() error { return ErrInvalidInstallConfig }

// IsValid returns whether the Config has valid fields. Toolchain commands
// are free-form and checked when used.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Update.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Install.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Libraries.VersionURL.IsValid("libraries.version_url"); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
