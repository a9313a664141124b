package version

import (
	"os/exec"
	"strings"
	"sync"
)

// Set through -ldflags at release time.
var (
	Version = "0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)

var (
	resolveOnce sync.Once
	resolved    string
)

// Resolve returns the build version, plus a git describe suffix when run from
// a checkout that is not on a release tag. Git is consulted once per process.
func Resolve() string {
	resolveOnce.Do(func() {
		resolved = resolveVersion(Version, runGit)
	})
	return resolved
}

// UserAgent is sent with every request to the transcription server.
func UserAgent() string {
	return userAgentFor(Resolve())
}

func userAgentFor(v string) string {
	return "voxlate/" + v
}

func resolveVersion(base string, git func(...string) (string, error)) string {
	if base == "" {
		base = "0.0.0"
	}

	suffix := gitSuffix(base, git)
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

func gitSuffix(base string, git func(...string) (string, error)) string {
	if _, err := git("rev-parse", "--git-dir"); err != nil {
		return ""
	}
	if _, err := git("describe", "--tags", "--exact-match"); err == nil {
		return ""
	}

	desc, err := git("describe", "--tags", "--dirty", "--always")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(desc, "v"+base+"-")
}

func runGit(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
