package platform

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Owns reports whether rawURL points at one of the platform's domains.
// Only http and https URLs qualify, so about:blank and browser error pages
// never belong to a platform.
func (p *Platform) Owns(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || net.ParseIP(host) != nil {
		return false
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Bare public suffixes have no registrable domain.
		return false
	}
	for _, g := range p.domainGlobs {
		if g.Match(domain) {
			return true
		}
	}
	return false
}

// RestoreURL picks the URL a session should open with: saved when it still
// belongs to the platform, the default otherwise.
func (p *Platform) RestoreURL(saved string) string {
	if saved != "" && p.Owns(saved) {
		return saved
	}
	return p.DefaultURL
}
