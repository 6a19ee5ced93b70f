package profile

import (
	"context"
	"sync"
	"time"
)

// ProxyAction is the effect a profile switch has on the local MITM proxy.
type ProxyAction int

const (
	ProxyActionNoChange ProxyAction = iota
	ProxyActionEnabled
	ProxyActionDisabled
	ProxyActionPassthrough
)

func (a ProxyAction) String() string {
	switch a {
	case ProxyActionEnabled:
		return "enabled"
	case ProxyActionDisabled:
		return "disabled"
	case ProxyActionPassthrough:
		return "passthrough"
	default:
		return "no_change"
	}
}

// UnknownUserMode decides proxy behavior for an OS user with no matching
// profile. Defaults to filtering — an unrecognized user fails closed.
type UnknownUserMode int

const (
	UnknownUserEnableWithDefaults UnknownUserMode = iota
	UnknownUserDisableFiltering
	UnknownUserPassthrough
)

func (m UnknownUserMode) toProxyAction() ProxyAction {
	switch m {
	case UnknownUserDisableFiltering:
		return ProxyActionDisabled
	case UnknownUserPassthrough:
		return ProxyActionPassthrough
	default:
		return ProxyActionEnabled
	}
}

// ControllerConfig tunes the profile proxy controller's polling.
type ControllerConfig struct {
	PollInterval    time.Duration
	DebounceDuration time.Duration
	UnknownUserMode UnknownUserMode
	ProxyHost       string
	ProxyPort       int
}

// DefaultControllerConfig matches the daemon's default poll cadence.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		PollInterval: 5 * time.Second, DebounceDuration: 500 * time.Millisecond,
		UnknownUserMode: UnknownUserEnableWithDefaults, ProxyHost: "127.0.0.1", ProxyPort: 8766,
	}
}

// SwitchEvent records a detected OS-user / profile transition.
type SwitchEvent struct {
	Timestamp        time.Time
	OSUsername       string
	PreviousProfile  string
	NewProfile       string
	PreviousState    string
	NewState         string
	ProxyAction      ProxyAction
}

const maxEventHistory = 100

// Controller polls for OS user changes and switches the active profile
// (and its protection state) accordingly. Callers drive the poll loop
// themselves via Run, one goroutine per controller.
type Controller struct {
	profiles   *Manager
	protection *ProtectionManager
	config     ControllerConfig

	mu                sync.RWMutex
	currentOSUser     string
	currentProfileID  string
	lastCheck         time.Time
	monitoring        bool
	history           []SwitchEvent

	onSwitch      func(SwitchEvent)
	onProxyAction func(action ProxyAction, host string, port int)
}

// NewController builds a controller around the given profile manager and
// protection state manager.
func NewController(profiles *Manager, protection *ProtectionManager, cfg ControllerConfig) *Controller {
	return &Controller{profiles: profiles, protection: protection, config: cfg, lastCheck: time.Now()}
}

// OnSwitch registers a callback invoked whenever a profile switch is detected.
func (c *Controller) OnSwitch(fn func(SwitchEvent)) { c.onSwitch = fn }

// OnProxyAction registers a callback invoked to actually flip the system
// proxy setting (this package only tracks state; the caller owns the OS
// integration).
func (c *Controller) OnProxyAction(fn func(action ProxyAction, host string, port int)) {
	c.onProxyAction = fn
}

// CurrentProfile returns the profile bound to the last detected OS user.
func (c *Controller) CurrentProfile() *Profile {
	c.mu.RLock()
	id := c.currentProfileID
	c.mu.RUnlock()
	if id == "" {
		return nil
	}
	return c.profiles.GetProfile(id)
}

// CurrentOSUser returns the last OS username the controller observed.
func (c *Controller) CurrentOSUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentOSUser
}

// EventHistory returns the most recent switch events, oldest first.
func (c *Controller) EventHistory() []SwitchEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SwitchEvent, len(c.history))
	copy(out, c.history)
	return out
}

// IsMonitoring reports whether the poll loop is currently active.
func (c *Controller) IsMonitoring() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.monitoring
}

// StartMonitoring marks the controller active and seeds the current OS user.
func (c *Controller) StartMonitoring() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitoring = true
	c.currentOSUser = CurrentOSUser()
}

// StopMonitoring marks the controller inactive; Run's poll loop keeps
// ticking but skips all work until StartMonitoring is called again.
func (c *Controller) StopMonitoring() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitoring = false
}

// ForceCheck checks the current OS user immediately, bypassing debounce.
func (c *Controller) ForceCheck() (SwitchEvent, bool) {
	return c.checkUserChange(CurrentOSUser())
}

func (c *Controller) checkWithDebounce() (SwitchEvent, bool) {
	now := time.Now()
	c.mu.RLock()
	sinceLast := now.Sub(c.lastCheck)
	c.mu.RUnlock()
	if sinceLast < c.config.DebounceDuration {
		return SwitchEvent{}, false
	}
	c.mu.Lock()
	c.lastCheck = now
	c.mu.Unlock()
	return c.ForceCheck()
}

// pollOnce runs one check iteration, a no-op unless monitoring is active.
func (c *Controller) pollOnce() (SwitchEvent, bool) {
	if !c.IsMonitoring() {
		return SwitchEvent{}, false
	}
	return c.checkWithDebounce()
}

// Run starts the poll loop on the configured interval, blocking until ctx
// is canceled. Intended to run in its own goroutine, started once at
// daemon startup.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce()
		}
	}
}

func (c *Controller) determineProxyAction(p *Profile) ProxyAction {
	if p == nil {
		return c.config.UnknownUserMode.toProxyAction()
	}
	switch p.ProxyMode {
	case ProxyDisabled:
		return ProxyActionDisabled
	case ProxyPassthrough:
		return ProxyActionPassthrough
	default:
		return ProxyActionEnabled
	}
}

func (c *Controller) executeProxyAction(action ProxyAction) {
	switch action {
	case ProxyActionEnabled, ProxyActionPassthrough:
		c.protection.Enable()
	case ProxyActionDisabled:
		c.protection.SetState(Disabled)
	}
	if c.onProxyAction != nil {
		c.onProxyAction(action, c.config.ProxyHost, c.config.ProxyPort)
	}
}

func (c *Controller) checkUserChange(newUser string) (SwitchEvent, bool) {
	c.mu.RLock()
	previousUser := c.currentOSUser
	previousProfileID := c.currentProfileID
	c.mu.RUnlock()

	if previousUser == newUser && previousUser != "" {
		return SwitchEvent{}, false
	}

	newProfile := c.profiles.GetByOSUsername(newUser)
	newProfileID := ""
	var newProfileName string
	if newProfile != nil {
		newProfileID = newProfile.ID
		newProfileName = newProfile.Name
	}

	action := c.determineProxyAction(newProfile)

	var previousProfileName string
	if previousProfileID != "" {
		if p := c.profiles.GetProfile(previousProfileID); p != nil {
			previousProfileName = p.Name
		}
	}

	previousState := c.protection.State().String()
	var newState string
	switch action {
	case ProxyActionEnabled, ProxyActionPassthrough:
		newState = Active.String()
	case ProxyActionDisabled:
		newState = Disabled.String()
	default:
		newState = c.protection.State().String()
	}

	event := SwitchEvent{
		Timestamp: time.Now(), OSUsername: newUser,
		PreviousProfile: previousProfileName, NewProfile: newProfileName,
		PreviousState: previousState, NewState: newState, ProxyAction: action,
	}

	c.mu.Lock()
	c.currentOSUser = newUser
	c.currentProfileID = newProfileID
	c.history = append(c.history, event)
	if len(c.history) > maxEventHistory {
		c.history = c.history[len(c.history)-maxEventHistory:]
	}
	c.mu.Unlock()

	c.executeProxyAction(action)

	if c.onSwitch != nil {
		c.onSwitch(event)
	}
	return event, true
}

// Initialize seeds the controller with the current OS user's profile,
// without waiting for the first poll tick. Call at daemon startup.
func (c *Controller) Initialize() (SwitchEvent, bool) {
	return c.checkUserChange(CurrentOSUser())
}
