package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sujitn/aegis/internal/profile"
)

// FileStore is the reference Store implementation: profiles are delegated
// to the existing profile.Manager (already a YAML-file-backed store —
// reused rather than re-implemented), and everything else (password hash,
// generic config blobs, protection state) lives in a single small JSON
// document. Events are appended to a separate JSONL file, one line per
// call to LogEvent, mirroring the teacher audit log's append-only file
// idiom without the hash chain this isn't a policy-decision record.
//
// Sufficient for standalone operation and tests; the full SQLite-backed
// store (site repository, migrations) lives in the out-of-core-scope
// external dashboard/storage service per spec.md §1.
type FileStore struct {
	mu   sync.Mutex
	path string
	data fileStoreData

	profiles *profile.Manager

	eventsPath string
}

type fileStoreData struct {
	PasswordHash    string                     `json:"password_hash,omitempty"`
	Config          map[string]json.RawMessage `json:"config,omitempty"`
	ProtectionState string                     `json:"protection_state,omitempty"`
}

// NewFileStore opens (or creates) a file-backed store rooted at dir:
// dir/state.json for password hash / config / protection state,
// dir/profiles.yaml for profiles (via profile.Manager), and
// dir/events.jsonl for the operational event log.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	fs := &FileStore{
		path:       filepath.Join(dir, "state.json"),
		eventsPath: filepath.Join(dir, "events.jsonl"),
		data:       fileStoreData{Config: make(map[string]json.RawMessage)},
	}

	if raw, err := os.ReadFile(fs.path); err == nil {
		if err := json.Unmarshal(raw, &fs.data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fs.path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", fs.path, err)
	}
	if fs.data.Config == nil {
		fs.data.Config = make(map[string]json.RawMessage)
	}

	profiles, err := profile.NewManager(filepath.Join(dir, "profiles.yaml"))
	if err != nil {
		return nil, err
	}
	fs.profiles = profiles

	return fs, nil
}

func (fs *FileStore) save() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store state: %w", err)
	}
	if err := os.WriteFile(fs.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", fs.path, err)
	}
	return nil
}

// GetPasswordHash implements Store.
func (fs *FileStore) GetPasswordHash() (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.data.PasswordHash == "" {
		return "", false, nil
	}
	return fs.data.PasswordHash, true, nil
}

// SetPasswordHash implements Store.
func (fs *FileStore) SetPasswordHash(hash string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data.PasswordHash = hash
	return fs.save()
}

// GetAllProfiles implements Store by delegating to the profile manager.
func (fs *FileStore) GetAllProfiles() ([]*profile.Profile, error) {
	return fs.profiles.AllProfiles(), nil
}

// SetProfile implements Store by delegating to the profile manager.
func (fs *FileStore) SetProfile(p *profile.Profile) error {
	fs.profiles.AddProfile(p)
	return fs.profiles.Save()
}

// DeleteProfile implements Store by delegating to the profile manager.
func (fs *FileStore) DeleteProfile(id string) error {
	fs.profiles.RemoveProfile(id)
	return fs.profiles.Save()
}

// GetConfig implements Store.
func (fs *FileStore) GetConfig(key string) (json.RawMessage, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data.Config[key]
	return v, ok, nil
}

// SetConfig implements Store.
func (fs *FileStore) SetConfig(key string, value json.RawMessage) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data.Config[key] = value
	return fs.save()
}

// eventRecord is a single line of the events.jsonl file.
type eventRecord struct {
	Timestamp string          `json:"ts"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// LogEvent implements Store, appending one JSON line per call.
func (fs *FileStore) LogEvent(kind string, payload json.RawMessage) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.eventsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", fs.eventsPath, err)
	}
	defer f.Close()

	rec := eventRecord{Timestamp: time.Now().UTC().Format(time.RFC3339Nano), Kind: kind, Payload: payload}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// GetProtectionState implements Store.
func (fs *FileStore) GetProtectionState() (profile.State, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.data.ProtectionState == "" {
		return 0, false, nil
	}
	s, ok := parseState(fs.data.ProtectionState)
	return s, ok, nil
}

// SetProtectionState implements Store.
func (fs *FileStore) SetProtectionState(s profile.State) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data.ProtectionState = s.String()
	return fs.save()
}

func parseState(s string) (profile.State, bool) {
	switch s {
	case "active":
		return profile.Active, true
	case "paused":
		return profile.Paused, true
	case "disabled":
		return profile.Disabled, true
	default:
		return 0, false
	}
}
