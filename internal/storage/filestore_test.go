package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sujitn/aegis/internal/profile"
)

func TestFileStorePasswordHashRoundTrips(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok, err := fs.GetPasswordHash(); err != nil || ok {
		t.Fatalf("expected no password hash on a fresh store, got ok=%v err=%v", ok, err)
	}

	if err := fs.SetPasswordHash("$argon2id$fakehash"); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	hash, ok, err := fs.GetPasswordHash()
	if err != nil || !ok || hash != "$argon2id$fakehash" {
		t.Fatalf("got hash=%q ok=%v err=%v", hash, ok, err)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := fs.SetPasswordHash("abc"); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	if err := fs.SetConfig("theme", json.RawMessage(`"dark"`)); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if err := fs.SetProtectionState(profile.Paused); err != nil {
		t.Fatalf("SetProtectionState: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	if hash, ok, _ := reopened.GetPasswordHash(); !ok || hash != "abc" {
		t.Errorf("password hash did not survive reopen: %q, %v", hash, ok)
	}
	if v, ok, _ := reopened.GetConfig("theme"); !ok || string(v) != `"dark"` {
		t.Errorf("config did not survive reopen: %q, %v", v, ok)
	}
	state, ok, err := reopened.GetProtectionState()
	if err != nil || !ok || state != profile.Paused {
		t.Errorf("protection state did not survive reopen: %v, ok=%v, err=%v", state, ok, err)
	}
}

func TestFileStoreConfigMissingKey(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok, err := fs.GetConfig("nope"); err != nil || ok {
		t.Fatalf("expected missing key to report ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestFileStoreProfileCRUD(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	p := profile.WithChildDefaults("Kid", "alice")
	if err := fs.SetProfile(p); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}

	all, err := fs.GetAllProfiles()
	if err != nil {
		t.Fatalf("GetAllProfiles: %v", err)
	}
	if len(all) != 1 || all[0].ID != p.ID {
		t.Fatalf("got %+v", all)
	}

	if err := fs.DeleteProfile(p.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	all, err = fs.GetAllProfiles()
	if err != nil {
		t.Fatalf("GetAllProfiles after delete: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected profile to be deleted, got %+v", all)
	}
}

func TestFileStoreLogEventAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := fs.LogEvent("profile_switch", json.RawMessage(`{"to":"alice"}`)); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if err := fs.LogEvent("protection_paused", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("reading events.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 event lines, got %d: %q", len(lines), raw)
	}
	var rec eventRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshaling first event: %v", err)
	}
	if rec.Kind != "profile_switch" {
		t.Errorf("got kind %q", rec.Kind)
	}
}

func TestFileStoreUnsetProtectionState(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok, err := fs.GetProtectionState(); err != nil || ok {
		t.Fatalf("expected no protection state on fresh store, got ok=%v err=%v", ok, err)
	}
}
