package types

import "strings"

// AuthorizationHeader is the header a credential must carry to be usable.
const AuthorizationHeader = "authorization"

// Credential is the session material captured from a live browser login.
//
// Headers holds the request headers harvested from the platform's own
// traffic. BrowserState is the browser's storage-state JSON (cookies and
// origin storage); it is opaque to everything except the platform client.
type Credential struct {
	Headers      map[string]string
	BrowserState []byte

	stale bool
}

// Usable reports whether the credential carries an authorization header and
// has not been invalidated by a failed probe.
func (c *Credential) Usable() bool {
	if c == nil || c.stale {
		return false
	}
	return HasAuthorization(c.Headers)
}

// Invalidate marks the credential as rejected by the platform. Persisted
// files are left untouched; the next bootstrap overwrites them.
func (c *Credential) Invalidate() {
	c.stale = true
}

// HasAuthorization reports whether headers contain an authorization entry,
// compared case-insensitively.
func HasAuthorization(headers map[string]string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, AuthorizationHeader) && v != "" {
			return true
		}
	}
	return false
}
