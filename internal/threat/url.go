package threat

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const defaultScheme = "https://"

// URL is a submitted URL together with its normalized form.
type URL struct {
	raw        string
	normalized string
}

// NewURL normalizes raw. It accepts any string, including the empty string.
func NewURL(raw string) URL {
	return URL{raw: raw, normalized: Normalize(raw)}
}

// Normalize lowercases raw and prefixes "https://" unless it already
// begins with "http://" or "https://". Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = defaultScheme + s
	}
	return s
}

// Raw returns the string as submitted.
func (u URL) Raw() string {
	return u.raw
}

// String returns the normalized URL.
func (u URL) String() string {
	return u.normalized
}

// Authority returns the third "/"-separated segment when the URL contains
// "//", and the whole URL otherwise.
func (u URL) Authority() string {
	if !strings.Contains(u.normalized, "//") {
		return u.normalized
	}
	segments := strings.SplitN(u.normalized, "/", 4)
	if len(segments) < 3 {
		return ""
	}
	return segments[2]
}

// host returns the host of the normalized URL and its byte offset.
// Userinfo and a numeric port are removed.
func (u URL) host() (string, int) {
	s := u.normalized
	idx := strings.Index(s, "://")
	if idx < 0 {
		return "", 0
	}
	start := idx + len("://")
	authority := s[start:]
	if end := strings.IndexAny(authority, "/?#"); end >= 0 {
		authority = authority[:end]
	}
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		start += at + 1
		authority = authority[at+1:]
	}
	if colon := strings.LastIndexByte(authority, ':'); colon >= 0 && isDigits(authority[colon+1:]) {
		authority = authority[:colon]
	}
	return authority, start
}

// ownDomainLabelSpan locates the first label of the host's registrable
// domain (eTLD+1) inside the normalized URL, "paypal" in
// "https://www.paypal.co.uk/". ok is false for IP literals, empty hosts and
// hosts that are themselves public suffixes.
func (u URL) ownDomainLabelSpan() (start, end int, ok bool) {
	host, offset := u.host()
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(host) != nil {
		return 0, 0, false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return 0, 0, false
	}
	start = offset + len(host) - len(domain)
	label, _, _ := strings.Cut(domain, ".")
	return start, start + len(label), true
}

// withoutOwnDomain returns the normalized URL with the registrable domain's
// first label replaced by a single space when that label is exactly term.
// Hosts that merely contain term are returned unchanged.
func (u URL) withoutOwnDomain(term string) string {
	start, end, ok := u.ownDomainLabelSpan()
	if !ok || u.normalized[start:end] != term {
		return u.normalized
	}
	return u.normalized[:start] + " " + u.normalized[end:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
