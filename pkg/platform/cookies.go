package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// storageState is the subset of the browser storage-state document the
// client needs.
type storageState struct {
	Cookies []storageCookie `json:"cookies"`
}

type storageCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
}

func parseStorageState(blob []byte) ([]storageCookie, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var state storageState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("failed to decode browser state: %w", err)
	}
	return state.Cookies, nil
}

// cookiesFor returns the stored cookies a browser would send to req's URL.
// Expires of -1 or 0 marks a session cookie.
func cookiesFor(cookies []storageCookie, req *http.Request, now time.Time) []*http.Cookie {
	host := req.URL.Hostname()
	path := req.URL.Path
	if path == "" {
		path = "/"
	}

	var out []*http.Cookie
	for _, c := range cookies {
		if c.Expires > 0 && now.After(time.Unix(int64(c.Expires), 0)) {
			continue
		}
		if c.Secure && req.URL.Scheme != "https" {
			continue
		}
		if !domainMatch(host, c.Domain) {
			continue
		}
		cookiePath := c.Path
		if cookiePath == "" {
			cookiePath = "/"
		}
		if !strings.HasPrefix(path, cookiePath) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func domainMatch(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(host)
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
