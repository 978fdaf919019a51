package model

import (
	"encoding/hex"
	"errors"
	"net"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// TargetURL errors.
var (
	// ErrEmptyURL is returned when the submitted URL is empty or blank.
	ErrEmptyURL = errors.New("url cannot be empty")
	// ErrInvalidURL is returned when the URL does not look like an http(s) address.
	ErrInvalidURL = errors.New("invalid URL format")
)

const (
	httpScheme  = "http://"
	httpsScheme = "https://"
)

// targetURLPattern accepts http(s) URLs whose host is a dotted domain name,
// localhost, or a dotted-quad address, followed by an optional port and path.
var targetURLPattern = regexp.MustCompile(
	`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)

// TargetURL is an immutable value object for a URL submitted for analysis.
// Inputs without a scheme are given "https://" so that bare domains are accepted.
type TargetURL struct {
	url  string // scheme-qualified, as submitted apart from trimming
	host string // lowercase ASCII host without port
	port string // explicit port, empty when absent
}

// NewTargetURL validates a submitted URL.
// Internationalized host names are converted to their ASCII form before
// the format check, but the returned URL keeps the original spelling.
func NewTargetURL(raw string) (TargetURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TargetURL{}, ErrEmptyURL
	}

	qualified := trimmed
	if !hasHTTPScheme(qualified) {
		qualified = httpsScheme + qualified
	}

	host, port := splitHostPort(authorityOf(qualified))
	asciiHost := host
	if converted, err := idna.Lookup.ToASCII(host); err == nil && converted != "" {
		asciiHost = converted
	}

	candidate := qualified
	if asciiHost != host {
		candidate = replaceHost(qualified, host, asciiHost)
	}
	if !targetURLPattern.MatchString(candidate) {
		return TargetURL{}, ErrInvalidURL
	}

	return TargetURL{
		url:  qualified,
		host: strings.TrimSuffix(strings.ToLower(asciiHost), "."),
		port: port,
	}, nil
}

// MustNewTargetURL creates a new TargetURL or panics if invalid.
// Use only for known-valid URLs in tests or initialization.
func MustNewTargetURL(raw string) TargetURL {
	t, err := NewTargetURL(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the scheme-qualified URL.
func (t TargetURL) String() string {
	return t.url
}

// Host returns the lowercase ASCII host without port.
func (t TargetURL) Host() string {
	return t.host
}

// Port returns the explicit port, or "" when the URL has none.
func (t TargetURL) Port() string {
	return t.port
}

// RegistrableDomain returns the eTLD+1 of the host, such as "example.co.uk".
// IP addresses, localhost and bare public suffixes return the host unchanged.
func (t TargetURL) RegistrableDomain() string {
	if net.ParseIP(t.host) != nil {
		return t.host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(t.host)
	if err != nil {
		return t.host
	}
	return domain
}

// IsHTTPS reports whether the URL uses the https scheme.
func (t TargetURL) IsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(t.url), httpsScheme)
}

// IsZero returns true if this is a zero value TargetURL.
func (t TargetURL) IsZero() bool {
	return t.url == ""
}

// Hash returns the storage key of the URL. See HashURL.
func (t TargetURL) Hash() string {
	return HashURL(t.url)
}

// HashURL returns the hex SHA3-256 digest of the lowercased, trimmed URL.
// Scan history uses it to group repeated submissions of the same address.
func HashURL(u string) string {
	sum := sha3.Sum256([]byte(strings.ToLower(strings.TrimSpace(u))))
	return hex.EncodeToString(sum[:])
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, httpScheme) || strings.HasPrefix(lower, httpsScheme)
}

// authorityOf returns the text between "://" and the first of "/?#".
func authorityOf(u string) string {
	idx := strings.Index(u, "://")
	if idx < 0 {
		return ""
	}
	rest := u[idx+len("://"):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// splitHostPort separates a trailing numeric port from an authority.
func splitHostPort(authority string) (host, port string) {
	idx := strings.LastIndexByte(authority, ':')
	if idx < 0 {
		return authority, ""
	}
	candidate := authority[idx+1:]
	if candidate == "" {
		return authority[:idx], ""
	}
	for _, c := range candidate {
		if c < '0' || c > '9' {
			return authority, ""
		}
	}
	return authority[:idx], candidate
}

func replaceHost(u, oldHost, newHost string) string {
	idx := strings.Index(u, "://")
	start := idx + len("://")
	return u[:start] + strings.Replace(u[start:], oldHost, newHost, 1)
}
