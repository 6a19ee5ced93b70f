package profile

import (
	"sync"
	"time"
)

// State is the live protection state the proxy checks on every request.
type State int

const (
	// Active means protection is filtering content normally.
	Active State = iota
	// Paused means protection is temporarily bypassed and will auto-resume.
	Paused
	// Disabled means protection is off until manually re-enabled.
	Disabled
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Disabled:
		return "disabled"
	default:
		return "active"
	}
}

// IsActive reports whether protection is currently filtering.
func (s State) IsActive() bool { return s == Active }

// IsBypassed reports whether filtering should be skipped in this state.
func (s State) IsBypassed() bool { return s == Paused || s == Disabled }

// PauseDuration is how long a pause lasts before auto-resuming.
type PauseDuration struct {
	d         time.Duration
	indefinite bool
}

// Minutes returns a pause lasting n minutes.
func Minutes(n int) PauseDuration { return PauseDuration{d: time.Duration(n) * time.Minute} }

// Hours returns a pause lasting n hours.
func Hours(n int) PauseDuration { return PauseDuration{d: time.Duration(n) * time.Hour} }

// Indefinite returns a pause that lasts until manually resumed.
func Indefinite() PauseDuration { return PauseDuration{indefinite: true} }

var (
	FiveMinutes    = Minutes(5)
	FifteenMinutes = Minutes(15)
	ThirtyMinutes  = Minutes(30)
	OneHour        = Hours(1)
)

// Event describes a protection state transition.
type Event struct {
	From        State
	To          State
	PauseExpired bool
}

// ProtectionManager tracks protection state with an expiring pause, guarded
// by a mutex rather than atomics because pause_start/pause_duration must
// change together (the teacher's KillSwitch takes the same
// whole-struct-under-lock approach for its compound killed-entry state).
type ProtectionManager struct {
	mu             sync.Mutex
	state          State
	pauseStart     time.Time
	pauseDuration  time.Duration
	pauseIndefinite bool
}

// NewProtectionManager returns a manager starting in the Active state.
func NewProtectionManager() *ProtectionManager { return &ProtectionManager{state: Active} }

func (m *ProtectionManager) isPauseExpired() bool {
	if m.state != Paused || m.pauseIndefinite {
		return false
	}
	return !m.pauseStart.IsZero() && time.Since(m.pauseStart) >= m.pauseDuration
}

// State returns the current state, auto-resuming an expired pause first.
func (m *ProtectionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isPauseExpired() {
		m.state = Active
		m.pauseStart = time.Time{}
		m.pauseDuration = 0
		m.pauseIndefinite = false
	}
	return m.state
}

// IsActive reports whether protection is filtering right now.
func (m *ProtectionManager) IsActive() bool { return m.State().IsActive() }

// IsBypassed reports whether filtering is currently bypassed.
func (m *ProtectionManager) IsBypassed() bool { return m.State().IsBypassed() }

// PauseRemaining returns the time left in a timed pause, or (0, false) if
// not paused, paused indefinitely, or already expired.
func (m *ProtectionManager) PauseRemaining() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Paused || m.pauseIndefinite || m.pauseStart.IsZero() {
		return 0, false
	}
	elapsed := time.Since(m.pauseStart)
	if elapsed >= m.pauseDuration {
		return 0, false
	}
	return m.pauseDuration - elapsed, true
}

// Pause bypasses protection for the given duration. Callers are
// responsible for requiring an authenticated session before calling this
// — the control-plane handler validates the session token, not this type.
func (m *ProtectionManager) Pause(d PauseDuration) Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state
	m.state = Paused
	m.pauseStart = time.Now()
	m.pauseDuration = d.d
	m.pauseIndefinite = d.indefinite
	return Event{From: from, To: Paused}
}

// Resume immediately restores Active state. Always allowed, no auth check.
func (m *ProtectionManager) Resume() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Active {
		return Event{}, false
	}
	from := m.state
	m.state = Active
	m.pauseStart = time.Time{}
	m.pauseDuration = 0
	m.pauseIndefinite = false
	return Event{From: from, To: Active}, true
}

// Disable turns protection off until manually re-enabled. Callers must
// require authentication before calling this, same as Pause.
func (m *ProtectionManager) Disable() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state
	m.state = Disabled
	m.pauseStart = time.Time{}
	m.pauseDuration = 0
	m.pauseIndefinite = false
	return Event{From: from, To: Disabled}
}

// Enable restores Active state. Always allowed, no auth check.
func (m *ProtectionManager) Enable() (Event, bool) {
	return m.Resume()
}

// CheckExpiry checks for and applies an expired pause, returning an event
// with PauseExpired set if one occurred. Suits a periodic poll loop; the
// Controller in controller.go does not call it.
func (m *ProtectionManager) CheckExpiry() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isPauseExpired() {
		m.state = Active
		m.pauseStart = time.Time{}
		m.pauseDuration = 0
		m.pauseIndefinite = false
		return Event{From: Paused, To: Active, PauseExpired: true}, true
	}
	return Event{}, false
}

// SetState sets the state directly, for restoring from persisted storage.
// Does not validate authentication — callers restoring from disk are
// trusted by construction.
func (m *ProtectionManager) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	if s != Paused {
		m.pauseStart = time.Time{}
		m.pauseDuration = 0
		m.pauseIndefinite = false
	}
}
