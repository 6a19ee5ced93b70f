package mitm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsUpgrader upgrades the client-facing side of a proxied WebSocket
// connection. CheckOrigin always allows: the proxy sits between a local
// client and a remote LLM endpoint, there's no same-origin boundary to
// enforce here the way a served dashboard would need one.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// isWebSocketUpgrade reports whether r is requesting a WebSocket upgrade.
func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// handleWebSocket proxies a WebSocket connection through to host, running
// the same classify/evaluate pipeline forward() uses over every
// client-to-server text message. Server-to-client traffic passes through
// unchanged — only outgoing prompts get inspected. A blocked message is
// dropped rather than forwarded; the connection itself stays open so the
// client's own reconnect/retry logic never has to kick in over a single
// policy decision.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request, host string) {
	service := serviceName(host)

	upstreamHeader := make(http.Header, len(r.Header))
	for k, v := range r.Header {
		switch strings.ToLower(k) {
		case "upgrade", "connection", "sec-websocket-key", "sec-websocket-version", "sec-websocket-extensions":
			// Extensions are stripped for every domain, not just filtered
			// ones: this relay re-frames every message it reads, so a
			// permessage-deflate negotiation it can't honor would corrupt
			// the stream rather than just go unused.
			continue
		default:
			upstreamHeader[k] = v
		}
	}

	dialer := websocket.Dialer{
		NetDialContext:   h.opts.Transport.DialContext,
		TLSClientConfig:  h.opts.Transport.TLSClientConfig,
		HandshakeTimeout: 10 * time.Second,
	}
	upstreamConn, resp, err := dialer.DialContext(r.Context(), "wss://"+host+r.URL.RequestURI(), upstreamHeader)
	if err != nil {
		status := http.StatusBadGateway
		if resp != nil {
			status = resp.StatusCode
		}
		http.Error(w, "upstream websocket handshake failed", status)
		return
	}
	defer upstreamConn.Close()

	clientConn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("mitm: websocket upgrade failed", "host", host, "error", err)
		return
	}
	defer clientConn.Close()

	done := make(chan struct{}, 2)
	go func() {
		h.relayClientToUpstream(r.Context(), clientConn, upstreamConn, host, service)
		done <- struct{}{}
	}()
	go func() {
		relayUpstreamToClient(upstreamConn, clientConn)
		done <- struct{}{}
	}()
	<-done
}

// relayClientToUpstream forwards client messages to upstream, running text
// messages through the classify/evaluate pipeline before relaying them.
func (h *Handler) relayClientToUpstream(ctx context.Context, clientConn, upstreamConn *websocket.Conn, host, service string) {
	for {
		msgType, data, err := clientConn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage || h.opts.Protection.IsBypassed() {
			if upstreamConn.WriteMessage(msgType, data) != nil {
				return
			}
			continue
		}

		prompt, ok := extractWebSocketPrompt(data)
		if !ok {
			if upstreamConn.WriteMessage(msgType, data) != nil {
				return
			}
			continue
		}

		start := time.Now()
		classification := h.opts.Classifier.Classify(ctx, prompt)

		profileName := "unknown"
		engine := fallbackEngine
		if p := h.currentProfile(); p != nil {
			if !p.RequiresFiltering() {
				if upstreamConn.WriteMessage(msgType, data) != nil {
					return
				}
				continue
			}
			profileName = p.Name
			if p.Engine != nil {
				engine = p.Engine
			}
		}

		result := engine.EvaluateNow(classification)
		latencyUs := time.Since(start).Microseconds()

		if result.ShouldBlock() {
			h.logDecision(profileName, service, classification, result, "block", latencyUs)
			slog.Info("mitm: blocked websocket message", "host", host, "reason", result.Source.Name())
			continue
		}
		if result.ShouldWarn() {
			h.logDecision(profileName, service, classification, result, "warn", latencyUs)
		} else {
			h.logDecision(profileName, service, classification, result, "allow", latencyUs)
		}

		if upstreamConn.WriteMessage(msgType, data) != nil {
			return
		}
	}
}

// relayUpstreamToClient passes server-to-client traffic through unchanged.
func relayUpstreamToClient(upstreamConn, clientConn *websocket.Conn) {
	for {
		msgType, data, err := upstreamConn.ReadMessage()
		if err != nil {
			return
		}
		if clientConn.WriteMessage(msgType, data) != nil {
			return
		}
	}
}

// extractWebSocketPrompt pulls prompt text out of a WebSocket text message,
// trying the same handful of known JSON shapes ChatGPT's web client (and
// similar conversational WebSocket protocols) use, in order of specificity.
func extractWebSocketPrompt(data []byte) (string, bool) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false
	}

	if messages, ok := doc["messages"].([]any); ok {
		if prompt, ok := joinMessageContents(messages); ok {
			return prompt, true
		}
	}

	if message, ok := doc["message"].(map[string]any); ok {
		if content, ok := message["content"].(map[string]any); ok {
			if parts, ok := content["parts"].([]any); ok {
				if prompt, ok := joinStringParts(parts); ok {
					return prompt, true
				}
			}
		}
	}

	if prompt, ok := doc["prompt"].(string); ok {
		return prompt, true
	}
	if text, ok := doc["text"].(string); ok {
		return text, true
	}
	if content, ok := doc["content"].(string); ok {
		return content, true
	}

	if action, ok := doc["action"].(string); ok && (action == "next" || action == "continue") {
		if messages, ok := doc["messages"].([]any); ok {
			if prompt, ok := joinMessageContentParts(messages); ok {
				return prompt, true
			}
		}
	}

	return "", false
}

// joinMessageContents implements the ".messages[].content.parts[]" path,
// falling back to a plain string content field per message.
func joinMessageContents(messages []any) (string, bool) {
	var prompts []string
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		content, ok := msg["content"]
		if !ok {
			continue
		}
		if contentObj, ok := content.(map[string]any); ok {
			if parts, ok := contentObj["parts"].([]any); ok {
				for _, part := range parts {
					if s, ok := part.(string); ok {
						prompts = append(prompts, s)
					}
				}
				continue
			}
		}
		if s, ok := content.(string); ok {
			prompts = append(prompts, s)
		}
	}
	if len(prompts) == 0 {
		return "", false
	}
	return strings.Join(prompts, "\n"), true
}

// joinMessageContentParts implements the ChatGPT "action: next/continue"
// submission shape: .messages[].content.parts[], string parts only.
func joinMessageContentParts(messages []any) (string, bool) {
	var prompts []string
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		content, ok := msg["content"].(map[string]any)
		if !ok {
			continue
		}
		parts, ok := content["parts"].([]any)
		if !ok {
			continue
		}
		for _, part := range parts {
			if s, ok := part.(string); ok {
				prompts = append(prompts, s)
			}
		}
	}
	if len(prompts) == 0 {
		return "", false
	}
	return strings.Join(prompts, "\n"), true
}

func joinStringParts(parts []any) (string, bool) {
	var prompts []string
	for _, part := range parts {
		if s, ok := part.(string); ok {
			prompts = append(prompts, s)
		}
	}
	if len(prompts) == 0 {
		return "", false
	}
	return strings.Join(prompts, "\n"), true
}
