package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Version is the current semantic version of medcat
const Version = "0.3.0"

// Set with -ldflags "-X github.com/standardbeagle/medcat/internal/version.GitCommit=..."
var (
	GitCommit = "unknown"
	BuildDate = "development"
)

// Stamp identifies the running binary and, once a catalog is loaded, the
// snapshot it serves. Two processes with equal stamps answer identically.
type Stamp struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Build    string `json:"build"`
	Snapshot string `json:"snapshot,omitempty"`
	Records  int    `json:"records,omitempty"`
}

// Current returns the stamp of this binary with no catalog attached
func Current() Stamp {
	return Stamp{Version: Version, Commit: GitCommit, Built: BuildDate, Build: BuildID()}
}

// WithSnapshot attaches a catalog fingerprint and record count
func (s Stamp) WithSnapshot(fingerprint string, records int) Stamp {
	s.Snapshot = fingerprint
	s.Records = records
	return s
}

func (s Stamp) String() string {
	out := fmt.Sprintf("medcat %s (commit: %s, built: %s, build: %s)", s.Version, s.Commit, s.Built, s.Build)
	if s.Snapshot != "" {
		out += fmt.Sprintf(" catalog %s, %d records", s.Snapshot, s.Records)
	}
	return out
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID fingerprints the binary from its Go version, module and VCS
// settings. Without embedded build info it falls back to version-commit.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID()
	})
	return buildID
}

func computeBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + GitCommit
	}

	h := xxhash.New()
	_, _ = h.WriteString(info.GoVersion)
	_, _ = h.WriteString(info.Main.Path)
	_, _ = h.WriteString(info.Main.Version)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time":
			_, _ = h.WriteString(s.Key)
			_, _ = h.WriteString(s.Value)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
