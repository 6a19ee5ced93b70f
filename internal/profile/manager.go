package profile

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// profileFile is a YAML-serializable snapshot of a single profile, used
// for persistence to profiles.yaml — rule engines don't round-trip through
// YAML directly, so persistence stores the profile kind and proxy mode
// rather than the live *ruleengine.Engine pointer. On load the engine is
// rebuilt from the kind's defaults; rule customizations are not persisted.
type profileFile struct {
	Name       string `yaml:"name"`
	OSUsername string `yaml:"os_username"`
	Enabled    bool   `yaml:"enabled"`
	Kind       string `yaml:"kind"`
	ProxyMode  string `yaml:"proxy_mode"`
}

type managerFile struct {
	Profiles map[string]profileFile `yaml:"profiles"`
}

// Manager owns the set of known profiles and persists them to disk.
// Thread-safe — the proxy's connection handlers and the control plane's
// REST handlers both read and mutate it concurrently.
type Manager struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	path     string
}

// NewManager loads profiles from the given YAML path. A missing file is
// not an error — it yields an empty manager (parent-mode-only) that the
// caller can seed with defaults.
func NewManager(path string) (*Manager, error) {
	m := &Manager{profiles: make(map[string]*Profile), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}
	if len(data) == 0 {
		return m, nil
	}

	var file managerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}
	for id, pf := range file.Profiles {
		p := rehydrate(id, pf)
		m.profiles[id] = p
	}
	slog.Info("profile manager loaded", "profiles", len(m.profiles), "path", path)
	return m, nil
}

func rehydrate(id string, pf profileFile) *Profile {
	var p *Profile
	if pf.Kind == "parent" {
		p = Unrestricted(pf.Name, pf.OSUsername)
	} else {
		p = WithChildDefaults(pf.Name, pf.OSUsername)
	}
	p.ID = id
	p.Enabled = pf.Enabled
	switch pf.ProxyMode {
	case "disabled":
		p.ProxyMode = ProxyDisabled
	case "passthrough":
		p.ProxyMode = ProxyPassthrough
	default:
		p.ProxyMode = ProxyEnabled
	}
	return p
}

// AddProfile registers a profile, keyed by its ID.
func (m *Manager) AddProfile(p *Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// RemoveProfile removes a profile by ID, reporting whether one was found.
func (m *Manager) RemoveProfile(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return false
	}
	delete(m.profiles, id)
	return true
}

// GetProfile looks up a profile by ID.
func (m *Manager) GetProfile(id string) *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[id]
}

// GetByOSUsername returns the first enabled profile whose OS username
// matches, or nil if none matches — callers decide how to treat a user with
// no profile.
func (m *Manager) GetByOSUsername(username string) *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.MatchesOSUsername(username) {
			return p
		}
	}
	return nil
}

// CurrentProfile resolves the profile for the currently logged-in OS user.
func (m *Manager) CurrentProfile() *Profile {
	return m.GetByOSUsername(CurrentOSUser())
}

// AllProfiles returns every registered profile.
func (m *Manager) AllProfiles() []*Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out
}

// EnabledProfiles returns every profile with Enabled set.
func (m *Manager) EnabledProfiles() []*Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Profile
	for _, p := range m.profiles {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// ProfileCount returns the number of registered profiles.
func (m *Manager) ProfileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// HasProfile reports whether a profile with the given ID is registered.
func (m *Manager) HasProfile(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[id]
	return ok
}

// Save persists the current profile set to the manager's YAML path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file := managerFile{Profiles: make(map[string]profileFile, len(m.profiles))}
	for id, p := range m.profiles {
		file.Profiles[id] = profileFile{
			Name: p.Name, OSUsername: p.OSUsername, Enabled: p.Enabled,
			Kind: p.Kind.String(), ProxyMode: p.ProxyMode.String(),
		}
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("writing profiles %s: %w", m.path, err)
	}
	return nil
}
