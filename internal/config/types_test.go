// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestRemoteURL_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value RemoteURL
		valid bool
	}{
		{"", true},
		{"https://example.com/version.json", true},
		{"http://127.0.0.1:8080/v.json", true},
		{"ftp://example.com/v.json", false},
		{"/relative/path", false},
		{"https://", false},
		{"::bad", false},
	}

	for _, tt := range tests {
		valid, errs := tt.value.IsValid("field")
		if valid != tt.valid {
			t.Errorf("RemoteURL(%q).IsValid() = %v, want %v", tt.value, valid, tt.valid)
		}
		if !valid {
			var uErr *InvalidRemoteURLError
			if len(errs) != 1 || !errors.As(errs[0], &uErr) || uErr.Field != "field" {
				t.Errorf("RemoteURL(%q): unexpected errors %v", tt.value, errs)
			}
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Parallel()

	if got := Seconds(3).Duration(); got != 3*time.Second {
		t.Errorf("Duration() = %s, want 3s", got)
	}
	for _, s := range []Seconds{0, -1} {
		valid, errs := s.IsValid("update.http_timeout_seconds")
		if valid || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidSeconds) {
			t.Errorf("Seconds(%d).IsValid() = %v, %v", s, valid, errs)
		}
	}
}

func TestConfig_IsValid_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Update.VersionURL = "nope"
	cfg.Update.HTTPTimeoutSeconds = 0
	cfg.Libraries.VersionURL = "file:///tmp/v.json"

	valid, errs := cfg.IsValid()
	if valid || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", valid, errs)
	}
	var cErr *InvalidConfigError
	if !errors.As(errs[0], &cErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
	}
	// One update error wrapping two fields, one libraries error.
	if len(cErr.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v", cErr.FieldErrors)
	}
	for _, target := range []error{ErrInvalidConfig, ErrInvalidUpdateConfig, ErrInvalidRemoteURL, ErrInvalidSeconds} {
		if !errors.Is(errs[0], target) {
			t.Errorf("expected errors.Is(%v)", target)
		}
	}
}

func TestInstallConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		install InstallConfig
		want    bool
	}{
		{name: "derived", install: InstallConfig{}, want: true},
		{name: "copy only", install: InstallConfig{CopyDir: "/opt/web2board"}, want: true},
		{name: "distinct", install: InstallConfig{OriginalDir: "/opt/web2board", CopyDir: "/opt/web2board_copy"}, want: true},
		{name: "same", install: InstallConfig{OriginalDir: "/opt/web2board", CopyDir: "/opt/web2board"}, want: false},
		{name: "same after cleaning", install: InstallConfig{OriginalDir: "/opt/web2board", CopyDir: "/opt/./web2board/"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.install.IsValid()
			if valid != tt.want {
				t.Fatalf("IsValid() = %v, %v, want %v", valid, errs, tt.want)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidInstallConfig) {
				t.Errorf("expected ErrInvalidInstallConfig, got %v", errs[0])
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Install = InstallConfig{OriginalDir: "/opt/web2board", CopyDir: "/opt/web2board"}
	if valid, errs := cfg.IsValid(); valid || !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], ErrInvalidInstallConfig) {
		t.Errorf("Config.IsValid() = %v, %v", valid, errs)
	}
}

func TestUpdateConfig_TemplatePlaceholders(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().Update
	cfg.DownloadURLTemplate = "https://{os}.example.com/{version}/web2board_{arch}.zip"
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("template with placeholders rejected: %v", errs)
	}
}
