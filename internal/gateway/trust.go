package gateway

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
)

// TrustedURL is an image URL together with the allow-list decision taken for
// it. Views only render URLs whose Trusted flag is set.
type TrustedURL struct {
	Raw     string
	Trusted bool
}

// String returns the URL when trusted and "" otherwise.
func (u TrustedURL) String() string {
	if !u.Trusted {
		return ""
	}
	return u.Raw
}

// ImagePolicy decides which image URLs coming from the API may be shown.
// Relative media paths resolve against the API origin; absolute URLs must
// use http(s) and point at the origin or an allow-listed host. A host entry
// of the form "*.example.com" matches any subdomain.
type ImagePolicy struct {
	origin *url.URL
	hosts  []string
	logger *slog.Logger

	mu       sync.Mutex
	rejected map[string]bool
}

var trustedPathPrefixes = []string{"/media/", "/static/"}

// NewImagePolicy builds a policy for the API at origin.
func NewImagePolicy(origin *url.URL, hosts []string, logger *slog.Logger) *ImagePolicy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &ImagePolicy{logger: logger, rejected: make(map[string]bool)}
	if origin != nil {
		o := *origin
		p.origin = &o
	}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			p.hosts = append(p.hosts, h)
		}
	}
	return p
}

// Trust classifies raw.
func (p *ImagePolicy) Trust(raw string) TrustedURL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TrustedURL{}
	}
	u, err := url.Parse(raw)
	if err != nil {
		p.reject(raw, "unparseable")
		return TrustedURL{Raw: raw}
	}

	if u.Scheme == "" && u.Host == "" {
		for _, prefix := range trustedPathPrefixes {
			if strings.HasPrefix(u.Path, prefix) && !strings.Contains(u.Path, "..") {
				resolved := u.String()
				if p.origin != nil {
					resolved = p.origin.ResolveReference(u).String()
				}
				return TrustedURL{Raw: resolved, Trusted: true}
			}
		}
		p.reject(raw, "relative path outside media")
		return TrustedURL{Raw: raw}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		p.reject(u.Scheme+":", "scheme")
		return TrustedURL{Raw: raw}
	}
	host := strings.ToLower(u.Hostname())
	if p.allowedHost(host) {
		return TrustedURL{Raw: u.String(), Trusted: true}
	}
	p.reject(host, "host not allow-listed")
	return TrustedURL{Raw: raw}
}

func (p *ImagePolicy) allowedHost(host string) bool {
	if host == "" {
		return false
	}
	if p.origin != nil && strings.EqualFold(p.origin.Hostname(), host) {
		return true
	}
	for _, h := range p.hosts {
		if suffix, ok := strings.CutPrefix(h, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if h == host {
			return true
		}
	}
	return false
}

// reject logs each rejected key once.
func (p *ImagePolicy) reject(key, reason string) {
	p.mu.Lock()
	seen := p.rejected[key]
	p.rejected[key] = true
	p.mu.Unlock()
	if !seen {
		p.logger.Info("untrusted image url", "source", key, "reason", reason)
	}
}
