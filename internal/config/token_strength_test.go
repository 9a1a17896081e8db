package config

import "testing"

func TestAdminTokenIssue(t *testing.T) {
	const entry = "https://app.example.com/index.html"
	tests := []struct {
		name  string
		token string
		issue bool
	}{
		{name: "empty_token", token: "", issue: true},
		{name: "common_password", token: "password", issue: true},
		{name: "all_same", token: "aaaaaaaaaaaa", issue: true},
		{name: "simple_sequence", token: "1234567890", issue: true},
		{name: "short_mixed", token: "Ab1!", issue: true},
		{name: "long_hex", token: "a9f73d18e5249b6a35f7419d11c603e2", issue: false},
		{name: "mixed_strong", token: "Stalecheck-2026-Admin!Token", issue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdminTokenIssue(tt.token, entry)
			if (got != "") != tt.issue {
				t.Fatalf("AdminTokenIssue(%q) = %q, want issue=%v", tt.token, got, tt.issue)
			}
		})
	}
}

func TestAdminTokenIssue_HostWordsArePenalized(t *testing.T) {
	// Score 3 on its own.
	if got := AdminTokenIssue("ZTbmfJR", "https://app.example.com/"); got != "" {
		t.Fatalf("unrelated host: got %q", got)
	}
	if got := AdminTokenIssue("ZTbmfJR", "https://ztbmfjr.example/"); got == "" {
		t.Fatal("token equal to a host label should be weak")
	}
}

func TestTokenHints(t *testing.T) {
	got := tokenHints("https://My-Shop.example.co/app")
	want := []string{"stalecheck", "shop", "example"}
	if len(got) != len(want) {
		t.Fatalf("tokenHints: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokenHints: got %v, want %v", got, want)
		}
	}
}
