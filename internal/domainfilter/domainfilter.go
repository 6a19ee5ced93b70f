// Package domainfilter decides whether a CONNECT target or Host header
// belongs to a known LLM provider, so the MITM proxy knows which
// connections to terminate and which to tunnel untouched.
package domainfilter

import (
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPatterns are the LLM provider domains Aegis terminates by default.
// A bare suffix like "openai.com" matches it and any subdomain.
var DefaultPatterns = []string{
	"openai.com",
	"chatgpt.com",
	"anthropic.com",
	"claude.ai",
	"generativelanguage.googleapis.com",
	"gemini.google.com",
	"*.googleapis.com",
	"character.ai",
	"poe.com",
	"perplexity.ai",
	"x.ai",
	"mistral.ai",
	"cohere.com",
}

type compiledPattern struct {
	raw  string
	glob glob.Glob
}

// Filter matches a hostname against a compiled set of glob patterns.
// Patterns without wildcards also match as a bare suffix, so "openai.com"
// matches "api.openai.com" without requiring every rule author to write
// "*.openai.com" explicitly.
type Filter struct {
	patterns []compiledPattern
}

// New compiles a filter from the given patterns. An empty list filters
// nothing and Matches always reports false.
func New(patterns []string) (*Filter, error) {
	f := &Filter{patterns: make([]compiledPattern, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, err
		}
		f.patterns = append(f.patterns, compiledPattern{raw: p, glob: g})
	}
	return f, nil
}

// Default builds a filter over DefaultPatterns. Never returns an error —
// the built-in pattern set is validated by this package's test suite.
func Default() *Filter {
	f, err := New(DefaultPatterns)
	if err != nil {
		panic("domainfilter: built-in pattern set failed to compile: " + err.Error())
	}
	return f
}

// Matches reports whether host (or any of its parent domains) matches a
// configured pattern. host is lowercased and a trailing dot is trimmed; a
// port suffix is not stripped, so callers strip it first (mitm's CONNECT
// handler does so with stripPort).
func (f *Filter) Matches(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, p := range f.patterns {
		if p.glob.Match(host) {
			return true
		}
		if !strings.ContainsAny(p.raw, "*?[") && (host == p.raw || strings.HasSuffix(host, "."+p.raw)) {
			return true
		}
	}
	return false
}

// AddPattern compiles and appends a single pattern, for runtime
// parent-configured domain additions.
func (f *Filter) AddPattern(pattern string) error {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return nil
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return err
	}
	f.patterns = append(f.patterns, compiledPattern{raw: pattern, glob: g})
	return nil
}

// Patterns returns the raw pattern strings this filter was built from.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		out[i] = p.raw
	}
	return out
}
