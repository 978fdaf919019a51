package log

import (
	"net/url"
	"strings"
)

// urlMask replaces secrets inside URLs. It contains no characters that
// need escaping, so redacted URLs stay readable.
const urlMask = "REDACTED"

// RedactURL masks the userinfo password and the values of sensitive query
// parameters in s. It reports whether anything was changed. Strings that
// are not absolute URLs are returned unchanged.
func RedactURL(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		return s, false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s, false
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), urlMask)
			changed = true
		}
	}

	if u.RawQuery != "" {
		query := u.Query()
		for name, values := range query {
			if !isSensitiveKey(name) {
				continue
			}
			for i := range values {
				values[i] = urlMask
			}
			changed = true
		}
		if changed {
			u.RawQuery = query.Encode()
		}
	}

	if !changed {
		return s, false
	}
	return u.String(), true
}
