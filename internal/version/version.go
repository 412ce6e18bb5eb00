package version

// Version information for the ushlint server.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the server.
	Version = "0.4.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
