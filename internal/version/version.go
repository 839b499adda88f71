// Package version carries build identification, injected via -ldflags at
// release time.
package version

var (
	// Version is the current sortcell release
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build identity for logs and the home endpoint.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
