package buildconfig

// Build-time variables injected via ldflags:
//
//	-X github.com/DemocracyDevelopers/irvcheck/internal/buildconfig.version=v1.2.0
var (
	version = "dev"
	commit  = "unknown"
)

// Info is what /version and `irvcheck version` report.
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
}

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo returns full version information
func VersionInfo() Info {
	return Info{Version: version, Commit: commit}
}

func (i Info) String() string {
	return "irvcheck " + i.Version + " (" + i.Commit + ")"
}
