package version

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, GitCommit = "v1.2.3", "unknown"
	if got := String(); got != "v1.2.3" {
		t.Errorf("String() = %q, want bare version", got)
	}

	GitCommit, BuildTime = "abc1234", "2026-01-02"
	if got, want := String(), "v1.2.3 (commit abc1234, built 2026-01-02)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}
