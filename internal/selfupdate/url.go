// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/web2board/web2board/internal/version"
)

// DownloadURL returns the archive URL for target. A locator in the
// descriptor wins; otherwise the configured template is expanded.
func (s *SelfUpdater) DownloadURL(target version.Info) (string, error) {
	if u, ok := target.Download.Resolve(s.goos, s.goarch); ok {
		return u, nil
	}
	if s.urlTemplate == "" {
		return "", fmt.Errorf("no download URL for %s and no URL template configured", target.Version)
	}
	return ExpandURLTemplate(s.urlTemplate, target.Version, s.goos, s.goarch), nil
}

// ExpandURLTemplate substitutes {arch} (32 or 64), {os} (title-cased OS name
// such as "Linux") and {version} in tpl.
func ExpandURLTemplate(tpl, v, goos, goarch string) string {
	return strings.NewReplacer(
		"{arch}", version.ArchBits(goarch),
		"{os}", osDisplayName(goos),
		"{version}", v,
	).Replace(tpl)
}

func osDisplayName(goos string) string {
	return cases.Title(language.Und).String(goos)
}
