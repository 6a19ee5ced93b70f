// Package profile maps OS usernames to per-user rule sets and tracks the
// live protection state (active/paused/disabled) that the proxy consults
// on every request.
//
// An OS username with no matching profile is not treated as parent mode:
// the Controller applies its UnknownUserMode (filtering with defaults unless
// configured otherwise), and internal/mitm evaluates such requests with its
// family-safe fallback engine. See design doc Section 10 for the equivalent
// agent-identity model this package's persistence layer is adapted from.
package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/sujitn/aegis/internal/ruleengine"
)

// ProxyMode controls whether a profile's traffic is filtered.
type ProxyMode int

const (
	// ProxyEnabled filters traffic for this profile.
	ProxyEnabled ProxyMode = iota
	// ProxyDisabled means unrestricted access (typically the parent profile).
	ProxyDisabled
	// ProxyPassthrough runs the MITM proxy without applying any rules.
	ProxyPassthrough
)

func (m ProxyMode) String() string {
	switch m {
	case ProxyEnabled:
		return "enabled"
	case ProxyDisabled:
		return "disabled"
	case ProxyPassthrough:
		return "passthrough"
	default:
		return "enabled"
	}
}

// IsFiltering reports whether this mode applies rule evaluation.
func (m ProxyMode) IsFiltering() bool { return m == ProxyEnabled }

// NeedsSystemProxy reports whether the OS-level proxy setting should point
// at Aegis while this mode is active.
func (m ProxyMode) NeedsSystemProxy() bool { return m == ProxyEnabled || m == ProxyPassthrough }

// Kind distinguishes a child profile (filtered by default) from a parent
// profile (unrestricted by default).
type Kind int

const (
	KindChild Kind = iota
	KindParent
)

func (k Kind) String() string {
	if k == KindParent {
		return "parent"
	}
	return "child"
}

// DefaultProxyMode returns the proxy mode a freshly created profile of
// this kind should start in.
func (k Kind) DefaultProxyMode() ProxyMode {
	if k == KindParent {
		return ProxyDisabled
	}
	return ProxyEnabled
}

// Profile binds an OS username to a rule engine and a proxy mode.
type Profile struct {
	ID         string
	Name       string
	OSUsername string // empty means manual-selection-only, never auto-matched
	Engine     *ruleengine.Engine
	Enabled    bool
	Kind       Kind
	ProxyMode  ProxyMode
}

func slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// New builds an enabled profile around the given rule engine.
func New(name, osUsername string, engine *ruleengine.Engine) *Profile {
	return &Profile{
		ID: fmt.Sprintf("profile_%s", slugify(name)), Name: name, OSUsername: osUsername,
		Engine: engine, Enabled: true, Kind: KindChild, ProxyMode: ProxyEnabled,
	}
}

// WithChildDefaults builds a profile seeded with bedtime time rules and
// family-safe content rules, filtering enabled.
func WithChildDefaults(name, osUsername string) *Profile {
	return New(name, osUsername, ruleengine.WithDefaults())
}

// Unrestricted builds a parent-mode profile: no rules, filtering disabled.
func Unrestricted(name, osUsername string) *Profile {
	p := New(name, osUsername, ruleengine.New())
	p.Kind = KindParent
	p.ProxyMode = ProxyDisabled
	return p
}

// RequiresFiltering reports whether this profile's traffic should be
// evaluated against its rule engine right now.
func (p *Profile) RequiresFiltering() bool { return p.Enabled && p.ProxyMode.IsFiltering() }

// NeedsSystemProxy reports whether the OS proxy setting should route
// through Aegis for this profile.
func (p *Profile) NeedsSystemProxy() bool { return p.Enabled && p.ProxyMode.NeedsSystemProxy() }

// MatchesOSUsername reports whether this enabled profile auto-matches the
// given OS username, case-insensitively.
func (p *Profile) MatchesOSUsername(username string) bool {
	return p.Enabled && p.OSUsername != "" && strings.EqualFold(p.OSUsername, username)
}

// CurrentOSUser returns the logged-in OS username, falling back to
// "unknown" if neither $USER nor $USERNAME is set.
func CurrentOSUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "unknown"
}
