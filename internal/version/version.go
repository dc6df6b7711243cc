// Package version exposes build metadata for the framesource binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/smazurov/framesource/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version" example:"1.2.0" doc:"Release version"`
	GitCommit string `json:"git_commit" example:"3f9c2e1" doc:"Source revision"`
	BuildDate string `json:"build_date" example:"2025-01-01T00:00:00Z" doc:"Build or commit time"`
	Modified  bool   `json:"modified,omitempty" doc:"Built from a dirty tree"`
	GoVersion string `json:"go_version" example:"go1.24.0"`
	Platform  string `json:"platform" example:"linux/arm64"`
}

// Get returns version and build information. Values not injected at link
// time fall back to the VCS stamp recorded by the Go toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns the version reported to the host as the library version.
func String() string {
	return Get().Version
}

// Long renders the one-line form printed by the version command.
func (i Info) Long() string {
	commit := i.GitCommit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("framesource %s (%s, %s) %s %s", i.Version, commit, i.BuildDate, i.GoVersion, i.Platform)
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
