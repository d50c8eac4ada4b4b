// Package version holds the build information of vcgate.
package version

// These are set at build time using -ldflags.
var (
	// Version is the version of vcgate.
	Version = ""

	// CommitSHA is the commit vcgate was built from.
	CommitSHA = ""

	// CommitDate is the date of that commit.
	CommitDate = ""
)

// UserAgent returns the User-Agent vcgate sends with outgoing requests.
func UserAgent() string {
	v := Version
	if v == "" {
		v = "unknown"
	}
	return "vcgate/" + v
}
