package audiodir

import "runtime"

// Version is the semantic version of audiodir.
const Version = "0.1.0"

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// GetVersionInfo returns detailed version information.
//
// GitCommit and BuildTime are set at build time via -ldflags:
//
//	go build -ldflags="-X github.com/simonhull/audiodir.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/audiodir.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/audiodir
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// String formats the version for -version output.
func (v VersionInfo) String() string {
	return "audiodir " + v.Version + " (" + v.GitCommit + ", " + v.BuildTime + ", " + v.GoVersion + ")"
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
