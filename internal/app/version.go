package app

import "fmt"

// Version and Commit are injected at build time via -ldflags, e.g.
// go build -ldflags "-X github.com/questforge/questforge/internal/app.Version=0.3.1".
var (
	Version = "dev"
	Commit  = "unknown"
)

// BuildVersion renders the version string reported at startup and by
// the health endpoint.
func BuildVersion() string {
	if Commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
