package profile

import "testing"

func TestWithChildDefaultsFilters(t *testing.T) {
	p := WithChildDefaults("Child", "child_user")
	if !p.RequiresFiltering() {
		t.Error("expected child profile to require filtering")
	}
	if !p.NeedsSystemProxy() {
		t.Error("expected child profile to need the system proxy")
	}
}

func TestUnrestrictedDoesNotFilter(t *testing.T) {
	p := Unrestricted("Parent", "parent_user")
	if p.RequiresFiltering() {
		t.Error("expected parent profile to not require filtering")
	}
	if p.NeedsSystemProxy() {
		t.Error("expected parent profile to not need the system proxy")
	}
}

func TestMatchesOSUsernameCaseInsensitive(t *testing.T) {
	p := WithChildDefaults("Child", "ChildUser")
	if !p.MatchesOSUsername("childuser") {
		t.Error("expected case-insensitive OS username match")
	}
	if p.MatchesOSUsername("someoneelse") {
		t.Error("expected no match for a different username")
	}
}

func TestDisabledProfileNeverMatches(t *testing.T) {
	p := WithChildDefaults("Child", "child_user")
	p.Enabled = false
	if p.MatchesOSUsername("child_user") {
		t.Error("expected disabled profile to never match")
	}
}

func TestManagerGetByOSUsername(t *testing.T) {
	m, err := NewManager("/nonexistent/path/profiles.yaml")
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	m.AddProfile(WithChildDefaults("Child", "child_user"))

	if got := m.GetByOSUsername("child_user"); got == nil {
		t.Fatal("expected profile to be found")
	}
	if got := m.GetByOSUsername("unknown_user"); got != nil {
		t.Errorf("expected no profile for unknown user, got %+v", got)
	}
}
