package profile

import "testing"

func TestProtectionManagerDefaultActive(t *testing.T) {
	m := NewProtectionManager()
	if !m.IsActive() {
		t.Fatal("expected new manager to start Active")
	}
}

func TestProtectionManagerPauseBypasses(t *testing.T) {
	m := NewProtectionManager()
	m.Pause(Indefinite())
	if m.IsActive() {
		t.Error("expected paused state to not be active")
	}
	if !m.IsBypassed() {
		t.Error("expected paused state to bypass filtering")
	}
}

func TestProtectionManagerResumeRestoresActive(t *testing.T) {
	m := NewProtectionManager()
	m.Pause(FiveMinutes)
	event, changed := m.Resume()
	if !changed {
		t.Fatal("expected resume to report a change")
	}
	if event.To != Active {
		t.Errorf("expected resume to reach Active, got %v", event.To)
	}
	if !m.IsActive() {
		t.Error("expected manager active after resume")
	}
}

func TestProtectionManagerResumeNoOpWhenAlreadyActive(t *testing.T) {
	m := NewProtectionManager()
	_, changed := m.Resume()
	if changed {
		t.Error("expected resume to be a no-op when already active")
	}
}

func TestProtectionManagerDisableRequiresManualEnable(t *testing.T) {
	m := NewProtectionManager()
	m.Disable()
	if m.IsActive() {
		t.Error("expected disabled state to not be active")
	}
	m.Enable()
	if !m.IsActive() {
		t.Error("expected enable to restore active state")
	}
}

func TestProtectionManagerSetStateClearsPause(t *testing.T) {
	m := NewProtectionManager()
	m.Pause(FiveMinutes)
	m.SetState(Active)
	if _, ok := m.PauseRemaining(); ok {
		t.Error("expected pause data cleared after SetState(Active)")
	}
}
