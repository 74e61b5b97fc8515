package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/litscreen/pkg/logging"
)

func headersFn(h map[string]string) func() (map[string]string, error) {
	return func() (map[string]string, error) { return h, nil }
}

func TestRequestMatcher(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		reqM    string
		url     string
		want    bool
	}{
		{"substring", "SEARCH", "/api/v1/reviews/42/results", "SEARCH", "https://rayyan.ai/api/v1/reviews/42/results?x=1", true},
		{"method mismatch", "SEARCH", "/api/v1/reviews/42/results", "GET", "https://rayyan.ai/api/v1/reviews/42/results", false},
		{"method case", "search", "/results", "SEARCH", "https://rayyan.ai/results", true},
		{"any method", "", "/results", "GET", "https://rayyan.ai/results", true},
		{"other review", "", "/api/v1/reviews/42/results", "SEARCH", "https://rayyan.ai/api/v1/reviews/7/results", false},
		{"glob", "", "https://*.rayyan.ai/api/*/results", "SEARCH", "https://new.rayyan.ai/api/v1/reviews/1/results", true},
		{"literal metachar-free dots", "", "rayyan.ai", "GET", "https://rayyanXai/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewRequestMatcher(tt.method, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.reqM, tt.url))
		})
	}
}

func TestRequestMatcherRequiresPattern(t *testing.T) {
	_, err := NewRequestMatcher("GET", "")
	assert.Error(t, err)
}

func TestFilterAuthHeaders(t *testing.T) {
	in := map[string]string{
		"Authorization":  "Bearer t",
		"X-Rayyan-App":   "web",
		"x-csrf-token":   "abc",
		"content-type":   "application/json",
		"user-agent":     "chrome",
		"authorization2": "nope",
	}

	assert.Equal(t, map[string]string{
		"Authorization": "Bearer t",
		"X-Rayyan-App":  "web",
		"x-csrf-token":  "abc",
	}, FilterAuthHeaders(in))
}

func newTestCapture(t *testing.T) *headerCapture {
	t.Helper()
	m, err := NewRequestMatcher("SEARCH", "/results")
	require.NoError(t, err)
	return newHeaderCapture(m, logging.Discard())
}

func TestHeaderCaptureFirstMatchWins(t *testing.T) {
	c := newTestCapture(t)

	c.observe("GET", "https://x/results", headersFn(map[string]string{"authorization": "wrong-method"}))
	c.observe("SEARCH", "https://x/results", headersFn(map[string]string{"x-only": "no-auth"}))
	c.settle()
	assert.False(t, c.resolved(), "requests without authorization must not resolve the capture")

	c.observe("SEARCH", "https://x/results", headersFn(map[string]string{"authorization": "first", "accept": "*/*"}))
	c.observe("SEARCH", "https://x/results", headersFn(map[string]string{"authorization": "second"}))

	headers, err := c.wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"authorization": "first"}, headers)
	c.settle()
}

func TestHeaderCaptureKeepsArrivalOrder(t *testing.T) {
	c := newTestCapture(t)

	c.observe("SEARCH", "https://x/results", func() (map[string]string, error) {
		time.Sleep(20 * time.Millisecond)
		return map[string]string{"authorization": "slow-first"}, nil
	})
	c.observe("SEARCH", "https://x/results", headersFn(map[string]string{"authorization": "fast-second"}))

	headers, err := c.wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "slow-first", headers["authorization"])
	c.settle()
}

func TestHeaderCaptureObserveDoesNotWaitForHeaders(t *testing.T) {
	c := newTestCapture(t)
	returned := make(chan struct{})

	c.observe("SEARCH", "https://x/results", func() (map[string]string, error) {
		select {
		case <-returned:
			return map[string]string{"authorization": "tok"}, nil
		case <-time.After(time.Second):
			return nil, errors.New("observe held the caller during the header read")
		}
	})
	close(returned)

	headers, err := c.wait(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "tok", headers["authorization"])
	c.settle()
}

func TestHeaderCaptureSkipsHeaderErrors(t *testing.T) {
	c := newTestCapture(t)
	c.observe("SEARCH", "https://x/results", func() (map[string]string, error) {
		return nil, errors.New("target closed")
	})
	c.settle()
	assert.False(t, c.resolved())
}

func TestHeaderCaptureOnlyReadsHeadersOnMatch(t *testing.T) {
	c := newTestCapture(t)
	called := false
	c.observe("SEARCH", "https://x/other", func() (map[string]string, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
}

func TestHeaderCaptureConcurrentObservers(t *testing.T) {
	c := newTestCapture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.observe("SEARCH", "https://x/results", headersFn(map[string]string{"authorization": "tok"}))
		}()
	}
	wg.Wait()

	headers, err := c.wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "tok", headers["authorization"])
	c.settle()
}

func TestHeaderCaptureTimeout(t *testing.T) {
	c := newTestCapture(t)
	_, err := c.wait(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHeaderCaptureContextCancel(t *testing.T) {
	c := newTestCapture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
