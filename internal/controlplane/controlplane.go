// Package controlplane serves Aegis's loopback REST+WebSocket API.
//
// The control plane is mounted on its own port (config.ControlPlaneConfig,
// default 127.0.0.1:8767), separate from the MITM proxy port. It provides:
//
//   - POST /api/protection/pause   — bypass filtering for a bounded or
//     indefinite duration, gated by an authenticated session
//   - POST /api/protection/resume  — restore active filtering immediately
//   - GET  /api/stats/today        — prompt counts by decision since midnight
//   - POST /api/session/login      — exchange the admin password for a
//     session token (ambient addition: spec.md names session_token as an
//     input to pause/resume but never defines how one is issued)
//   - GET  /api/audit               — recent decision entries (ambient)
//   - GET  /healthz                 — liveness probe (ambient)
//   - GET  /dashboard/ws            — live decision feed over WebSocket
//
// Session tokens are opaque, held in memory only, and expire after
// sessionTTL of inactivity. There is no multi-admin account model — a
// single password hash, set via internal/storage.Store, gates the whole
// surface, matching spec.md's single-operator desktop-app model.
package controlplane

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sujitn/aegis/internal/audit"
	"github.com/sujitn/aegis/internal/profile"
	"github.com/sujitn/aegis/internal/storage"
)

// sessionTTL is how long an issued session token remains valid without
// being used again.
const sessionTTL = 12 * time.Hour

// Options holds the dependencies injected into the control plane.
type Options struct {
	Protection *profile.ProtectionManager
	AuditLog   *audit.AuditLog
	Store      storage.Store

	// Registry is scraped at GET /metrics. Defaults to the global
	// Prometheus registry if nil.
	Registry prometheus.Gatherer
}

// ControlPlane serves the REST+WebSocket API described in the package doc.
type ControlPlane struct {
	protection *profile.ProtectionManager
	auditLog   *audit.AuditLog
	store      storage.Store
	registry   prometheus.Gatherer
	wsHub      *wsHub

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
}

// New creates a ControlPlane with the given dependencies and starts its
// WebSocket broadcast hub.
func New(opts Options) *ControlPlane {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.DefaultGatherer
	}
	cp := &ControlPlane{
		protection: opts.Protection,
		auditLog:   opts.AuditLog,
		store:      opts.Store,
		registry:   registry,
		wsHub:      newWSHub(),
		sessions:   make(map[string]time.Time),
	}
	go cp.wsHub.run()
	return cp
}

// WebSocketHandler returns an http.Handler for the live decision feed.
func (cp *ControlPlane) WebSocketHandler() http.Handler {
	return http.HandlerFunc(cp.handleWebSocket)
}

// BroadcastDecision sends an audit entry to every connected dashboard
// client. Non-blocking — dropped if no clients are connected or a
// client's buffer is full. internal/mitm does not call it; the feed
// carries only the entries passed here by its callers.
func (cp *ControlPlane) BroadcastDecision(e audit.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("controlplane: failed to marshal broadcast entry", "error", err)
		return
	}
	cp.wsHub.broadcast(data)
}

// Handler returns the full *http.ServeMux routing every REST endpoint.
func (cp *ControlPlane) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/session/login", cp.handleLogin)
	mux.HandleFunc("/api/protection/pause", cp.requireSession(cp.handlePause))
	mux.HandleFunc("/api/protection/resume", cp.requireSession(cp.handleResume))
	mux.HandleFunc("/api/stats/today", cp.handleStatsToday)
	mux.HandleFunc("/api/audit", cp.handleAudit)
	mux.HandleFunc("/healthz", cp.handleHealthz)
	mux.Handle("/metrics", promhttp.HandlerFor(cp.registry, promhttp.HandlerOpts{}))
	mux.Handle("/dashboard/ws", cp.WebSocketHandler())

	return mux
}

// --- Session auth ---

// handleLogin exchanges the admin password for a session token.
// POST /api/session/login  { "password": "..." }
func (cp *ControlPlane) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	hash, ok, err := cp.store.GetPasswordHash()
	if err != nil {
		slog.Error("controlplane: reading password hash failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no admin password set", http.StatusPreconditionFailed)
		return
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, hash)
	if err != nil {
		slog.Error("controlplane: password comparison failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !match {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}

	token, err := newSessionToken()
	if err != nil {
		slog.Error("controlplane: token generation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cp.mu.Lock()
	cp.sessions[token] = time.Now().Add(sessionTTL)
	cp.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"session_token": token})
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// checkSession reports whether token is a live, unexpired session,
// sliding its expiry forward on each successful use.
func (cp *ControlPlane) checkSession(token string) bool {
	if token == "" {
		return false
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()
	expiry, ok := cp.sessions[token]
	if !ok || time.Now().After(expiry) {
		delete(cp.sessions, token)
		return false
	}
	cp.sessions[token] = time.Now().Add(sessionTTL)
	return true
}

// requireSession wraps a handler so it 401s unless the request body's
// session_token field names a live session. The body is re-decoded by the
// wrapped handler, so this only peeks at the token field.
func (cp *ControlPlane) requireSession(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		body, err := readAndRestoreBody(r)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var tok struct {
			SessionToken string `json:"session_token"`
		}
		if err := json.Unmarshal(body, &tok); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if !cp.checkSession(tok.SessionToken) {
			http.Error(w, "invalid or expired session", http.StatusUnauthorized)
			return
		}

		next(w, r, tok.SessionToken)
	}
}

// --- Protection control ---

// handlePause bypasses filtering for the requested duration.
// POST /api/protection/pause
//
//	{ "session_token": "...", "duration_type": "minutes"|"hours"|"indefinite", "duration_value": 15 }
func (cp *ControlPlane) handlePause(w http.ResponseWriter, r *http.Request, sessionToken string) {
	var req struct {
		DurationType  string `json:"duration_type"`
		DurationValue uint32 `json:"duration_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var d profile.PauseDuration
	switch req.DurationType {
	case "minutes":
		d = profile.Minutes(int(req.DurationValue))
	case "hours":
		d = profile.Hours(int(req.DurationValue))
	case "indefinite":
		d = profile.Indefinite()
	default:
		http.Error(w, "duration_type must be minutes, hours, or indefinite", http.StatusBadRequest)
		return
	}

	event := cp.protection.Pause(d)
	cp.persistProtectionState(profile.Paused, "control-plane")
	cp.logOperationalEvent("protection_paused", map[string]any{
		"from":          event.From.String(),
		"duration_type": req.DurationType,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// handleResume immediately restores active filtering.
// POST /api/protection/resume  { "session_token": "..." }
func (cp *ControlPlane) handleResume(w http.ResponseWriter, r *http.Request, sessionToken string) {
	event, changed := cp.protection.Resume()
	cp.persistProtectionState(profile.Active, "control-plane")
	if changed {
		cp.logOperationalEvent("protection_resumed", map[string]any{"from": event.From.String()})
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (cp *ControlPlane) persistProtectionState(s profile.State, updatedBy string) {
	if cp.store == nil {
		return
	}
	if err := cp.store.SetProtectionState(s); err != nil {
		slog.Error("controlplane: persisting protection state failed", "error", err)
	}
	cp.logOperationalEvent("protection_state_changed", map[string]any{
		"state":      s.String(),
		"updated_by": updatedBy,
	})
}

func (cp *ControlPlane) logOperationalEvent(kind string, payload map[string]any) {
	if cp.store == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("controlplane: marshaling event payload failed", "kind", kind, "error", err)
		return
	}
	if err := cp.store.LogEvent(kind, raw); err != nil {
		slog.Error("controlplane: logging event failed", "kind", kind, "error", err)
	}
}

// --- Stats ---

// statsResponse is the GET /api/stats/today response shape.
type statsResponse struct {
	PromptsTotal   int `json:"prompts_total"`
	PromptsBlocked int `json:"prompts_blocked"`
	PromptsWarned  int `json:"prompts_warned"`
	PromptsAllowed int `json:"prompts_allowed"`
}

// handleStatsToday tallies today's prompt decisions by outcome.
// GET /api/stats/today
func (cp *ControlPlane) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	entries, err := cp.auditLog.Query(audit.QueryParams{
		Since: todayMidnightISO(),
		Limit: 1_000_000,
	})
	if err != nil {
		slog.Error("controlplane: stats query failed", "error", err)
		http.Error(w, "stats query failed", http.StatusInternalServerError)
		return
	}

	var stats statsResponse
	for _, e := range entries {
		if e.Type != "prompt" {
			continue
		}
		stats.PromptsTotal++
		switch e.Decision {
		case "block":
			stats.PromptsBlocked++
		case "warn":
			stats.PromptsWarned++
		case "allow":
			stats.PromptsAllowed++
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func todayMidnightISO() string {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Format(time.RFC3339Nano)
}

// handleAudit returns recent decision entries.
// GET /api/audit?limit=50&agent=alice&decision=block&since=24h
func (cp *ControlPlane) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := cp.auditLog.Query(audit.QueryParams{
		Agent:    r.URL.Query().Get("agent"),
		Decision: r.URL.Query().Get("decision"),
		Since:    r.URL.Query().Get("since"),
		Limit:    limit,
	})
	if err != nil {
		slog.Error("controlplane: audit query failed", "error", err)
		http.Error(w, "audit query failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// handleHealthz is a liveness probe for process supervisors.
func (cp *ControlPlane) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helpers ---

// readAndRestoreBody reads r.Body fully and replaces it with a fresh
// reader over the same bytes, so a later handler can decode it again.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
