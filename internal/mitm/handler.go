package mitm

import (
	"bytes"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sujitn/aegis/internal/audit"
	"github.com/sujitn/aegis/internal/classifier"
	"github.com/sujitn/aegis/internal/domainfilter"
	"github.com/sujitn/aegis/internal/extractor"
	"github.com/sujitn/aegis/internal/metrics"
	"github.com/sujitn/aegis/internal/profile"
	"github.com/sujitn/aegis/internal/ruleengine"
)

// fallbackEngine filters with family-safe defaults when no profile is
// bound to the connecting OS user — an unrecognized user fails closed
// rather than bypassing the pipeline entirely.
var fallbackEngine = ruleengine.WithDefaults()

const maxBodyBytes = 10 << 20 // 10MB, matching the teacher's proxy body cap.

// Options configures a Handler.
type Options struct {
	CA         *CA
	Domains    *domainfilter.Filter
	Transport  *http.Transport
	Classifier *classifier.Classifier
	Profiles   *profile.Manager
	Protection *profile.ProtectionManager
	Audit      *audit.AuditLog
	Metrics    *metrics.Metrics // optional; nil disables recording
}

// Handler is the http.Handler a cleartext (non-CONNECT) proxy listener
// hands requests to, and also the CONNECT-tunnel driver that terminates
// TLS for filtered domains.
type Handler struct {
	opts Options
}

// NewHandler builds a Handler from the given options. Domains, Classifier,
// Protection, and Audit must be set, and CA too for TLS termination. A nil
// Transport gets a default one; a nil Profiles means every request is
// evaluated with fallbackEngine.
func NewHandler(opts Options) *Handler {
	if opts.Transport == nil {
		opts.Transport = &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			ResponseHeaderTimeout: 60 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}
	}
	return &Handler{opts: opts}
}

// ServeHTTP dispatches CONNECT requests to the tunnel/MITM split and
// forwards anything else (plain HTTP proxying, rarely used by modern LLM
// clients) through the same rule pipeline.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		h.handleConnect(w, r)
		return
	}
	h.forward(w, r, r.Host)
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	target := r.Host
	host := stripPort(target)

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	clientConn, _, err := hijacker.Hijack()
	if err != nil {
		slog.Error("mitm: hijack failed", "target", target, "error", err)
		return
	}
	defer clientConn.Close()

	if _, err := clientConn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		return
	}

	if !h.opts.Domains.Matches(host) {
		h.tunnel(clientConn, target)
		return
	}

	h.terminateTLS(clientConn, host)
}

// tunnel relays raw bytes between the client and the real upstream for
// domains Aegis isn't filtering — TLS is never terminated here.
func (h *Handler) tunnel(clientConn net.Conn, target string) {
	upstream, err := net.DialTimeout("tcp", ensurePort(target), 10*time.Second)
	if err != nil {
		slog.Warn("mitm: tunnel dial failed", "target", target, "error", err)
		return
	}
	defer upstream.Close()

	done := make(chan struct{}, 2)
	go func() { io.Copy(upstream, clientConn); done <- struct{}{} }()
	go func() { io.Copy(clientConn, upstream); done <- struct{}{} }()
	<-done
}

// terminateTLS performs the server-side TLS handshake with a freshly
// minted leaf certificate, then serves HTTP requests off the decrypted
// connection through the rule pipeline. One-shot listener lets
// http.Server's own keep-alive/pipelining handling do the rest.
func (h *Handler) terminateTLS(clientConn net.Conn, host string) {
	tlsConfig := &tls.Config{
		GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			name := hello.ServerName
			if name == "" {
				name = host
			}
			return h.opts.CA.LeafCertificate(name)
		},
	}
	tlsConn := tls.Server(clientConn, tlsConfig)

	innerHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.forward(w, r, host)
	})
	srv := &http.Server{Handler: innerHandler}
	_ = srv.Serve(newOnceListener(tlsConn))
}

// forward evaluates and, unless blocked, forwards a decoded request to
// the real upstream host over TLS, writing the (possibly warn-tagged)
// response back to the client.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, host string) {
	service := serviceName(host)

	if isWebSocketUpgrade(r) {
		h.handleWebSocket(w, r, host)
		return
	}

	if r.Method != http.MethodPost || h.opts.Protection.IsBypassed() {
		h.passThrough(w, r, host)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadGateway)
		return
	}
	r.Body.Close()

	promptInfo, ok := extractor.ExtractPrompt(host, r.URL.Path, body, service)
	if !ok {
		h.passThroughBody(w, r, host, body)
		return
	}

	start := time.Now()
	classification := h.opts.Classifier.Classify(r.Context(), promptInfo.Text)

	profileName := "unknown"
	engine := fallbackEngine
	if p := h.currentProfile(); p != nil {
		if !p.RequiresFiltering() {
			h.passThroughBody(w, r, host, body)
			return
		}
		profileName = p.Name
		if p.Engine != nil {
			engine = p.Engine
		}
	}

	result := engine.EvaluateNow(classification)
	latencyUs := time.Since(start).Microseconds()

	switch {
	case result.ShouldBlock():
		reason := result.Source.Name()
		h.logDecision(profileName, service, classification, result, "block", latencyUs)
		writeBlocked(w, reason, service)

	case result.ShouldWarn():
		h.logDecision(profileName, service, classification, result, "warn", latencyUs)
		resp, err := h.roundTrip(r, host, body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		markWarning(resp.Header)
		writeResponse(w, resp)

	default:
		h.logDecision(profileName, service, classification, result, "allow", latencyUs)
		resp, err := h.roundTrip(r, host, body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		writeResponse(w, resp)
	}
}

// logDecision records the rule engine's outcome. category/confidence come
// from the classification's highest-confidence match when one exists
// (the rule engine's Source only names a rule, not the underlying
// category, for time-rule blocks).
func (h *Handler) logDecision(profileName, service string, classification classifier.ClassificationResult, result ruleengine.Result, decision string, latencyUs int64) {
	var category string
	var confidence float64
	if len(classification.Matches) > 0 {
		best := classification.Matches[0]
		for _, m := range classification.Matches[1:] {
			if m.Confidence > best.Confidence {
				best = m
			}
		}
		category = string(best.Category)
		confidence = best.Confidence
	}
	h.opts.Audit.LogPromptDecision(profileName, service, category, confidence, decision, result.Source.Name(), "", latencyUs)
	if h.opts.Metrics != nil {
		h.opts.Metrics.RecordDecision(decision)
	}
}

func (h *Handler) currentProfile() *profile.Profile {
	if h.opts.Profiles == nil {
		return nil
	}
	return h.opts.Profiles.CurrentProfile()
}

// passThrough forwards a request the pipeline never inspects (non-POST,
// filtering bypassed) without reading its body. Requests whose body was
// already read go through passThroughBody instead.
func (h *Handler) passThrough(w http.ResponseWriter, r *http.Request, host string) {
	resp, err := h.opts.Transport.RoundTrip(buildUpstreamRequest(r, host, r.Body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	writeResponse(w, resp)
}

func (h *Handler) passThroughBody(w http.ResponseWriter, r *http.Request, host string, body []byte) {
	resp, err := h.roundTrip(r, host, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	writeResponse(w, resp)
}

func (h *Handler) roundTrip(r *http.Request, host string, body []byte) (*http.Response, error) {
	return h.opts.Transport.RoundTrip(buildUpstreamRequest(r, host, io.NopCloser(bytes.NewReader(body))))
}

func buildUpstreamRequest(r *http.Request, host string, body io.ReadCloser) *http.Request {
	upstreamURL := *r.URL
	upstreamURL.Scheme = "https"
	upstreamURL.Host = host

	req, _ := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL.String(), body)
	req.Header = r.Header.Clone()
	req.Header.Del("Proxy-Connection")
	return req
}

func writeResponse(w http.ResponseWriter, resp *http.Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// onceListener hands out a single pre-established connection, letting
// http.Server own the request-parsing loop (including keep-alive) for it.
type onceListener struct {
	conn   net.Conn
	taken  bool
	closed chan struct{}
}

func newOnceListener(conn net.Conn) *onceListener {
	return &onceListener{conn: conn, closed: make(chan struct{})}
}

func (l *onceListener) Accept() (net.Conn, error) {
	if l.taken {
		<-l.closed
		return nil, errListenerDone
	}
	l.taken = true
	return l.conn, nil
}

func (l *onceListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *onceListener) Addr() net.Addr { return l.conn.LocalAddr() }

var errListenerDone = errors.New("mitm: connection already served")

func ensurePort(hostport string) string {
	if _, _, err := net.SplitHostPort(hostport); err == nil {
		return hostport
	}
	return net.JoinHostPort(hostport, "443")
}

// serviceName maps a hostname to the human-readable LLM service name used
// in audit entries and the block page.
func serviceName(host string) string {
	host = strings.ToLower(host)
	switch {
	case strings.Contains(host, "openai.com") || strings.Contains(host, "chatgpt.com"):
		return "ChatGPT"
	case strings.Contains(host, "anthropic.com") || strings.Contains(host, "claude.ai"):
		return "Claude"
	case strings.Contains(host, "googleapis.com") || strings.Contains(host, "gemini.google.com"):
		return "Gemini"
	case strings.Contains(host, "character.ai"):
		return "Character.AI"
	case strings.Contains(host, "poe.com"):
		return "Poe"
	case strings.Contains(host, "perplexity.ai"):
		return "Perplexity"
	case strings.Contains(host, "x.ai"):
		return "Grok"
	case strings.Contains(host, "mistral.ai"):
		return "Mistral"
	case strings.Contains(host, "cohere.com"):
		return "Cohere"
	default:
		return host
	}
}
