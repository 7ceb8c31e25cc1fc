package version

import "runtime"

// Set at build time with -ldflags "-X github.com/veesix-networks/osvolt/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") built on " + Date + " with " + runtime.Version()
}

func UserAgent(program string) string {
	return program + "/" + Version
}
