package pathutil

import "testing"

func TestWildcardMatchesEverything(t *testing.T) {
	t.Parallel()

	grants := []string{Wildcard}
	for _, p := range []string{"", "x", "deep/nested/path"} {
		if !IsReachable(p, grants) {
			t.Errorf("IsReachable(%q, *) = false", p)
		}
		if !IsDescendantOrEqual(p, grants) {
			t.Errorf("IsDescendantOrEqual(%q, *) = false", p)
		}
	}
}

func TestIsDescendantOrEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		grants  []string
		want    bool
	}{
		{"clients/acme", []string{"clients/acme"}, true},
		{"clients/acme/", []string{"clients/acme"}, true},
		{"clients/acme/report.pdf", []string{"clients/acme"}, true},
		{"clients/acmecorp", []string{"clients/acme"}, false},
		{"clients", []string{"clients/acme"}, false},
		// Root never discloses a specific grant.
		{"", []string{"clients/acme"}, false},
		{"other", []string{"clients/acme", "other"}, true},
	}

	for _, tt := range tests {
		if got := IsDescendantOrEqual(tt.path, tt.grants); got != tt.want {
			t.Errorf("IsDescendantOrEqual(%q, %v) = %v, want %v", tt.path, tt.grants, got, tt.want)
		}
	}
}

func TestEquals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"clients/acme", "clients/acme", true},
		{"clients/acme/", "clients/acme", true},
		{"clients/acme", "clients/acme/report.pdf", false},
		{"clients/acme", "clients/acmecorp", false},
	}

	for _, tt := range tests {
		if got := Equals(tt.a, tt.b); got != tt.want {
			t.Errorf("Equals(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsReachable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		grants []string
		want   bool
	}{
		// Equal and descendant cases.
		{"clients/acme", []string{"clients/acme"}, true},
		{"clients/acme/report.pdf", []string{"clients/acme"}, true},
		// Ancestor cases: callers may walk down toward their grant.
		{"", []string{"clients/acme"}, true},
		{"clients", []string{"clients/acme"}, true},
		{"clients/acme", []string{"clients/acme/sub"}, true},
		// Siblings and lookalike prefixes stay unreachable.
		{"clients/globex", []string{"clients/acme"}, false},
		{"clientsfoo", []string{"clients/acme"}, false},
	}

	for _, tt := range tests {
		if got := IsReachable(tt.path, tt.grants); got != tt.want {
			t.Errorf("IsReachable(%q, %v) = %v, want %v", tt.path, tt.grants, got, tt.want)
		}
	}
}

// Reachability must be strictly weaker than disclosure: anything disclosed is
// reachable, but an ancestor is reachable without being disclosed.
func TestReachableVersusDisclosed(t *testing.T) {
	t.Parallel()

	grants := []string{"clients/acme"}
	for _, p := range []string{"clients/acme", "clients/acme/x", "clients", ""} {
		if IsDescendantOrEqual(p, grants) && !IsReachable(p, grants) {
			t.Errorf("path %q disclosed but not reachable", p)
		}
	}
	if IsDescendantOrEqual("clients", grants) {
		t.Error("ancestor folder must not be disclosed")
	}
	if !IsReachable("clients", grants) {
		t.Error("ancestor folder must stay reachable")
	}
}
