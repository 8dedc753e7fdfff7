// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"testing"

	"github.com/web2board/web2board/internal/version"
)

func TestExpandURLTemplate(t *testing.T) {
	t.Parallel()

	tpl := "https://downloads.example.com/{os}/{arch}/web2board-{version}.zip"
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{goos: "linux", goarch: "amd64", want: "https://downloads.example.com/Linux/64/web2board-1.1.0.zip"},
		{goos: "windows", goarch: "386", want: "https://downloads.example.com/Windows/32/web2board-1.1.0.zip"},
		{goos: "darwin", goarch: "arm64", want: "https://downloads.example.com/Darwin/64/web2board-1.1.0.zip"},
	}

	for _, tt := range tests {
		if got := ExpandURLTemplate(tpl, "1.1.0", tt.goos, tt.goarch); got != tt.want {
			t.Errorf("ExpandURLTemplate(%s/%s) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func TestDownloadURL_Precedence(t *testing.T) {
	t.Parallel()

	s := &SelfUpdater{urlTemplate: "http://tpl/{version}.zip", goos: "linux", goarch: "amd64"}

	got, err := s.DownloadURL(version.Info{Version: "1.1.0", Download: version.Locator{URL: "http://desc/1.1.0.zip"}})
	if err != nil || got != "http://desc/1.1.0.zip" {
		t.Errorf("descriptor locator should win, got %q, %v", got, err)
	}

	got, err = s.DownloadURL(version.Info{Version: "1.1.0", Download: version.Locator{ByPlatform: map[string]string{"windows": "http://w"}}})
	if err != nil || got != "http://tpl/1.1.0.zip" {
		t.Errorf("template should be used for unmatched platforms, got %q, %v", got, err)
	}

	bare := &SelfUpdater{goos: "linux", goarch: "amd64"}
	if _, err := bare.DownloadURL(version.Info{Version: "1.1.0"}); err == nil {
		t.Error("expected error without locator or template")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		StateIdle:             "idle",
		StateChecking:         "checking",
		StateDownloading:      "downloading",
		StateStaged:           "staged",
		StateCopyCreated:      "copy-created",
		StateHandoffRequested: "handoff-requested",
		StateApplying:         "applying",
		StateRelaunched:       "relaunched",
		StateFailed:           "failed",
		State(42):             "unknown",
	}
	for st, w := range want {
		if got := st.String(); got != w {
			t.Errorf("State(%d).String() = %q, want %q", st, got, w)
		}
	}
}
