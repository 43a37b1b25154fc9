// Package buildinfo exposes version data stamped in with -ldflags.
package buildinfo

import "time"

// Set via -ldflags "-X github.com/xelth-com/pharmsearch/internal/buildinfo.CommitHash=..."
var (
	BuildTime  string
	CommitTime string
	CommitHash string
)

var started = time.Now().UTC()

// Info describes the running binary
type Info struct {
	BuildTime  string `json:"build_time,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Commit     string `json:"commit,omitempty"`
	StartedAt  string `json:"started_at"`
	Uptime     string `json:"uptime"`
}

// Current returns the build stamp and how long the process has been up
func Current() Info {
	return Info{
		BuildTime:  BuildTime,
		CommitTime: CommitTime,
		Commit:     CommitHash,
		StartedAt:  started.Format(time.RFC3339),
		Uptime:     time.Since(started).Truncate(time.Second).String(),
	}
}
