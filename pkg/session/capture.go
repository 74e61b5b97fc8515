package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/litscreen/pkg/logging"
	"github.com/entrhq/litscreen/pkg/types"
)

// customHeaderPrefix marks the app-specific headers harvested alongside
// authorization.
const customHeaderPrefix = "x-"

// RequestMatcher selects the request whose headers are harvested.
type RequestMatcher struct {
	method  string
	pattern string
	glob    glob.Glob
}

// NewRequestMatcher builds a matcher for method (empty matches any) and a
// URL pattern. Patterns containing glob metacharacters match the whole URL;
// anything else is a substring match.
func NewRequestMatcher(method, pattern string) (*RequestMatcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("capture pattern is required")
	}

	expr := pattern
	if !strings.ContainsAny(pattern, "*?[{") {
		expr = "*" + glob.QuoteMeta(pattern) + "*"
	}

	g, err := glob.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid capture pattern %q: %w", pattern, err)
	}

	return &RequestMatcher{method: strings.ToUpper(method), pattern: pattern, glob: g}, nil
}

// Matches reports whether a request with the given method and URL is the
// capture target.
func (m *RequestMatcher) Matches(method, url string) bool {
	if m.method != "" && !strings.EqualFold(m.method, method) {
		return false
	}
	return m.glob.Match(url)
}

func (m *RequestMatcher) String() string {
	if m.method == "" {
		return m.pattern
	}
	return m.method + " " + m.pattern
}

// FilterAuthHeaders keeps the headers that authorize platform calls: every
// key starting with "x-" and the authorization header, compared
// case-insensitively. Keys keep their original spelling.
func FilterAuthHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range headers {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, customHeaderPrefix) || lower == types.AuthorizationHeader {
			out[k] = v
		}
	}
	return out
}

// headerCapture resolves once, with the filtered headers of the first
// matching request that carries authorization. Later matches are ignored.
//
// observe runs on the browser's event dispatch goroutine, which also
// delivers the replies a header read waits for. Reads therefore happen on
// their own goroutines, chained so matches are examined in arrival order.
type headerCapture struct {
	matcher *RequestMatcher
	logger  *logging.Logger

	mu   sync.Mutex
	tail chan struct{} // closed when the latest queued read has finished

	once    sync.Once
	done    chan struct{}
	headers map[string]string
}

func newHeaderCapture(matcher *RequestMatcher, logger *logging.Logger) *headerCapture {
	return &headerCapture{
		matcher: matcher,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// observe is the request callback and returns without blocking. allHeaders
// is only called for matching requests because reading them costs a round
// trip to the browser.
func (c *headerCapture) observe(method, url string, allHeaders func() (map[string]string, error)) {
	if !c.matcher.Matches(method, url) || c.resolved() {
		return
	}

	c.logger.Infof("Target request intercepted: %s %s", method, url)

	c.mu.Lock()
	prev := c.tail
	next := make(chan struct{})
	c.tail = next
	c.mu.Unlock()

	go func() {
		defer close(next)
		if prev != nil {
			<-prev
		}
		if c.resolved() {
			return
		}
		c.read(allHeaders)
	}()
}

// settle blocks until every read queued so far has finished.
func (c *headerCapture) settle() {
	c.mu.Lock()
	tail := c.tail
	c.mu.Unlock()
	if tail != nil {
		<-tail
	}
}

func (c *headerCapture) read(allHeaders func() (map[string]string, error)) {
	headers, err := allHeaders()
	if err != nil {
		c.logger.Warnf("[CAPTURE_WARN] could not read request headers: %v", err)
		return
	}

	filtered := FilterAuthHeaders(headers)
	if !types.HasAuthorization(filtered) {
		c.logger.Debugf("matching request carried no authorization header; still waiting")
		return
	}

	c.once.Do(func() {
		c.headers = filtered
		close(c.done)
		c.logger.Infof("Discovered %d critical headers", len(filtered))
	})
}

// resolved reports whether a capture has already happened.
func (c *headerCapture) resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// wait blocks until a capture, the timeout, or ctx cancellation.
func (c *headerCapture) wait(ctx context.Context, timeout time.Duration) (map[string]string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.headers, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
