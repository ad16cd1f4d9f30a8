// Package version carries build metadata injected with -ldflags -X.
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String renders "keelctl <version> (commit <sha>, built <date>)".
func String() string {
	return "keelctl " + Version + " (commit " + Commit + ", built " + BuildDate + ")"
}
