package mitm

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderBlockPageFillsPlaceholders(t *testing.T) {
	page := string(renderBlockPage("Block Violence", "ChatGPT"))
	if !strings.Contains(page, "Block Violence") {
		t.Error("expected the reason to appear in the rendered page")
	}
	if !strings.Contains(page, "ChatGPT") {
		t.Error("expected the service name to appear in the rendered page")
	}
	if strings.Contains(page, "{{REASON}}") || strings.Contains(page, "{{SERVICE}}") {
		t.Error("expected no unfilled placeholders in the rendered page")
	}
}

func TestRenderBlockPageDefaultsReason(t *testing.T) {
	page := string(renderBlockPage("", "Claude"))
	if !strings.Contains(page, "Policy violation") {
		t.Error("expected an empty reason to default to 'Policy violation'")
	}
}

func TestWriteBlockedSetsHeadersAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeBlocked(rec, "Bedtime (School Nights)", "Gemini")

	if rec.Code != 403 {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
	if rec.Header().Get("X-Aegis-Blocked") != "true" {
		t.Error("expected X-Aegis-Blocked: true header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("got Content-Type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Bedtime (School Nights)") {
		t.Error("expected the reason in the response body")
	}
}

func TestMarkWarningSetsHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	markWarning(rec.Header())
	if rec.Header().Get("X-Aegis-Warning") != "true" {
		t.Error("expected X-Aegis-Warning: true header to be set")
	}
}
