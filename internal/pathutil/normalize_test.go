package pathutil

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"clients/acme", "clients/acme"},
		{"/clients/acme/", "clients/acme"},
		{"a/./b//c", "a/b/c"},
		{"a/../../secret", "a/secret"},
		{"../../../etc/passwd", "etc/passwd"},
		{`a\b\c`, "a/b/c"},
		{"a/b\x00ad/c", "a/bad/c"},
		{".", ""},
		{"..", ""},
		{"a/..", "a"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
