package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	// GitCommit and BuildDate are optional
	_ = GitCommit
	_ = BuildDate
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version = "1.2.3"
	GitCommit = "abc123def456"
	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123def456")
	}
}

func TestColored_Plain(t *testing.T) {
	cases := []string{"0.1.0-dev", "1.2.3", "1.2.3-rc.1+build.123", "dev", "1.2"}
	for _, v := range cases {
		if got := Colored(v, false); got != v {
			t.Errorf("Colored(%q, false) = %q", v, got)
		}
	}
}

func TestColored_Enabled(t *testing.T) {
	got := Colored("1.2.3-dev", true)
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected escape codes, got %q", got)
	}
	if !strings.HasSuffix(got, "-dev") {
		t.Errorf("suffix lost: %q", got)
	}
	if Colored("dev", true) != "dev" {
		t.Error("non-semver value must stay unchanged")
	}
}
