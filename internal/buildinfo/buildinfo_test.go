package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	oldV, oldC, oldT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldT })

	Version, GitCommit, BuildTime = "1.2.3", "abc123", "2026-10-01T00:00:00Z"
	if got, want := Summary(), "1.2.3 (abc123, built 2026-10-01T00:00:00Z)"; got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
