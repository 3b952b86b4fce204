package version

// Version is the current matereview release.
const Version = "0.3.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=<sha>".
var Commit = ""

// FullVersion returns the version with the v prefix and, when known, the build commit.
func FullVersion() string {
	if Commit == "" {
		return "v" + Version
	}
	return "v" + Version + " (" + Commit + ")"
}
