package mitm

import (
	"net/http"
	"strings"
)

const blockPageTemplate = `<!DOCTYPE html>
<html>
<head><title>Blocked by Aegis</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 4rem;">
<h1>This request was blocked</h1>
<p>Reason: <strong>{{REASON}}</strong></p>
<p>Service: {{SERVICE}}</p>
<p>Ask a parent to change this in Aegis if you think this is a mistake.</p>
</body>
</html>
`

// renderBlockPage fills the block page placeholders. reason defaults to
// "Policy violation" when empty, matching the rule engine's default-allow
// source carrying no rule name.
func renderBlockPage(reason, service string) []byte {
	if reason == "" {
		reason = "Policy violation"
	}
	page := strings.ReplaceAll(blockPageTemplate, "{{REASON}}", reason)
	page = strings.ReplaceAll(page, "{{SERVICE}}", service)
	return []byte(page)
}

// writeBlocked writes the HTTP 403 block page with the Aegis headers the
// spec requires, instead of forwarding the request upstream.
func writeBlocked(w http.ResponseWriter, reason, service string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Aegis-Blocked", "true")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write(renderBlockPage(reason, service))
}

// markWarning adds the warn header to an otherwise unmodified response
// that is still being forwarded to the client.
func markWarning(header http.Header) {
	header.Set("X-Aegis-Warning", "true")
}
