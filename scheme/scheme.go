// Package scheme turns external links of the form scheme://host/path?query
// into a route path and parameters.
package scheme

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/routemesh/core"
)

// Link is a parsed scheme URL.
type Link struct {
	Path   string
	Params core.Params
}

// Parser parses links for one scheme.
type Parser struct {
	scheme string
}

// NewParser creates a parser accepting links of scheme. The scheme is
// matched case-insensitively and may be given with or without "://".
func NewParser(scheme string) *Parser {
	return &Parser{scheme: normalize(scheme)}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "://"))
}

// Scheme returns the accepted scheme.
func (p *Parser) Scheme() string { return p.scheme }

// Accepts reports whether raw starts with the parser's scheme.
func (p *Parser) Accepts(raw string) bool {
	prefix := p.scheme + "://"
	return len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix)
}

// Parse maps scheme://host/path?query to path "/host/path". Query values
// "true" and "false" (any case) become booleans, everything else stays a
// string; for repeated keys the last value wins. A foreign scheme or a
// malformed URL yields an InvalidURL error.
func (p *Parser) Parse(raw string) (Link, error) {
	if p.scheme == "" {
		return Link{}, core.NewInvalidURL(raw, fmt.Errorf("no scheme configured"))
	}
	if !p.Accepts(raw) {
		return Link{}, core.NewInvalidURL(raw, fmt.Errorf("unsupported scheme, want %s://", p.scheme))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, core.NewInvalidURL(raw, err)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Link{}, core.NewInvalidURL(raw, err)
	}

	params := make(core.Params, len(query))
	for k, vs := range query {
		if len(vs) == 0 {
			continue
		}
		params[k] = coerce(vs[len(vs)-1])
	}

	return Link{Path: "/" + u.Host + u.Path, Params: params}, nil
}

func coerce(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	default:
		return v
	}
}

// Parse parses raw with a one-off parser for scheme.
func Parse(raw, scheme string) (Link, error) {
	return NewParser(scheme).Parse(raw)
}
