// Package storage defines the persistence boundary between Aegis's core
// (interception + decision pipeline) and whatever keeps profiles, config,
// and event history durable across restarts. The full SQLite-backed
// store that ships with the desktop app is an external collaborator, out
// of core scope (spec.md §1) — this package only defines the interface
// the core depends on and a minimal file-backed implementation good
// enough for standalone operation and tests.
package storage

import (
	"encoding/json"

	"github.com/sujitn/aegis/internal/profile"
)

// Store is the full persistence surface the core depends on. Any
// implementation — the reference FileStore here, or the external
// dashboard's SQLite-backed store — must satisfy this interface.
type Store interface {
	// GetPasswordHash returns the control-plane admin password hash, or
	// ("", false) if none has been set yet.
	GetPasswordHash() (string, bool, error)
	// SetPasswordHash persists a new password hash (already hashed by the
	// caller — this package never sees a plaintext password).
	SetPasswordHash(hash string) error

	// GetAllProfiles returns every persisted profile, in no particular
	// order — callers sort or index as needed.
	GetAllProfiles() ([]*profile.Profile, error)
	// SetProfile upserts a single profile by ID.
	SetProfile(p *profile.Profile) error
	// DeleteProfile removes a profile by ID. Not an error if absent.
	DeleteProfile(id string) error

	// GetConfig reads a named config blob (already JSON-encoded by the
	// caller) — used for settings the core doesn't have a typed struct
	// for yet (e.g. external dashboard preferences).
	GetConfig(key string) (json.RawMessage, bool, error)
	// SetConfig writes a named config blob.
	SetConfig(key string, value json.RawMessage) error

	// LogEvent appends a free-form structured event (profile switches,
	// protection state changes) for the external dashboard's event feed.
	// Distinct from internal/audit's hash-chained decision log — this is
	// for operational/UX events, not policy-decision provenance.
	LogEvent(kind string, payload json.RawMessage) error

	// GetProtectionState returns the persisted protection state, or
	// (zero value, false) if never set (fresh install).
	GetProtectionState() (profile.State, bool, error)
	// SetProtectionState persists the current protection state so it
	// survives a restart.
	SetProtectionState(s profile.State) error
}
