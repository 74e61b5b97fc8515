package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/litscreen/pkg/types"
)

type capturedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies []*http.Cookie
	Body    map[string]any
}

type fakePlatform struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	response string
}

func (f *fakePlatform) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Header:  r.Header.Clone(),
			Cookies: r.Cookies(),
			Body:    body,
		})
		status, response := f.status, f.response
		f.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func (f *fakePlatform) last(t *testing.T) capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fake *fakePlatform) *Client {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL+"/", "42").Authorize(&types.Credential{
		Headers: map[string]string{"authorization": "Bearer tok", "x-client": "web"},
	})
	require.NoError(t, err)
	return client
}

func TestFetchBatchUndecided(t *testing.T) {
	fake := &fakePlatform{response: `{"data":[
		{"id":1,"title":"A","abstracts":[{"content":"first"},{"content":"second"}]},
		{"id":2,"title":"B","abstracts":[]}
	]}`}
	client := newTestClient(t, fake)

	records, err := client.FetchBatch(context.Background(), types.Cursor{Start: 50, Size: 50}, ModeUndecided)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, types.Record{ID: 1, Title: "A", Abstract: "first"}, records[0])
	assert.Equal(t, "", records[1].Abstract)

	req := fake.last(t)
	assert.Equal(t, MethodSearch, req.Method)
	assert.Equal(t, "/api/v1/reviews/42/results", req.Path)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Equal(t, "web", req.Header.Get("X-Client"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.EqualValues(t, 50, req.Body["start"])
	assert.EqualValues(t, 50, req.Body["length"])
	assert.Equal(t, "false", req.Body["return_filtered_total"])
	assert.Equal(t, map[string]any{"mode": "undecided"}, req.Body["extra"])
	assert.Equal(t, map[string]any{"0": map[string]any{"dir": "asc"}}, req.Body["order"])
}

func TestFetchBatchDuplicateCluster(t *testing.T) {
	fake := &fakePlatform{response: `{"data":[
		{"id":7,"title":"T","abstracts":[{"content":"x"}],"dedup_results":{"cluster_id":99}},
		{"id":8,"title":"U","abstracts":[{"content":"y"}],"dedup_results":{"cluster_id":0}}
	]}`}
	client := newTestClient(t, fake)

	records, err := client.FetchBatch(context.Background(), types.Cursor{Size: 5000}, ModeDuplicateCluster)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "99", records[0].ClusterID)
	assert.Empty(t, records[1].ClusterID)

	req := fake.last(t)
	assert.EqualValues(t, 5000, req.Body["length"])
	assert.Equal(t, map[string]any{"dedup_result": float64(0)}, req.Body["extra"])
	assert.NotContains(t, req.Body, "order")
}

func TestFetchBatchEmptyPage(t *testing.T) {
	client := newTestClient(t, &fakePlatform{response: `{"data":[]}`})

	records, err := client.FetchBatch(context.Background(), types.Cursor{Size: 50}, ModeUndecided)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchBatchSkipsMalformedRows(t *testing.T) {
	fake := &fakePlatform{response: `{"data":[
		{"id":1,"title":"A","abstracts":[{"content":"a"}]},
		{"title":"no id","abstracts":[{"content":"b"}]},
		{"id":"three","title":"C"},
		{"id":4,"title":"D","abstracts":[{"content":"d"}]}
	]}`}
	client := newTestClient(t, fake)

	records, err := client.FetchBatch(context.Background(), types.Cursor{Size: 50}, ModeUndecided)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(4), records[1].ID)
}

func TestFetchBatchAllRowsMalformed(t *testing.T) {
	client := newTestClient(t, &fakePlatform{response: `{"data":[{"title":"no id"}]}`})

	records, err := client.FetchBatch(context.Background(), types.Cursor{Size: 50}, ModeUndecided)
	assert.Nil(t, records)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusOK, fe.Status)
}

func TestFetchBatchErrors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, &fakePlatform{status: http.StatusUnauthorized, response: "nope"})

		_, err := client.FetchBatch(context.Background(), types.Cursor{Size: 1}, ModeUndecided)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnauthorized))

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusUnauthorized, fe.Status)
		assert.Equal(t, "nope", fe.Body)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, &fakePlatform{status: http.StatusInternalServerError, response: "boom"})

		_, err := client.FetchBatch(context.Background(), types.Cursor{Size: 1}, ModeUndecided)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusInternalServerError, fe.Status)
		assert.False(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, &fakePlatform{response: "{not json"})

		_, err := client.FetchBatch(context.Background(), types.Cursor{Size: 1}, ModeUndecided)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusOK, fe.Status)
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		client, err := NewClient(server.URL, "42", WithTimeout(time.Second)).Authorize(&types.Credential{})
		require.NoError(t, err)

		_, err = client.FetchBatch(context.Background(), types.Cursor{Size: 1}, ModeUndecided)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 0, fe.Status)
	})
}

func TestWriteScreening(t *testing.T) {
	tests := []struct {
		name     string
		decision types.Decision
		plan     map[string]any
	}{
		{"include", types.Include(), map[string]any{"included": float64(1)}},
		{"exclude with reason", types.Exclude("Not RCT"), map[string]any{"__EXR__Not RCT": float64(1)}},
		{"exclude without reason", types.Exclude(""), map[string]any{"included": float64(-1)}},
		{"maybe", types.Maybe("AI Format Error"), map[string]any{"included": float64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePlatform{response: `{}`}
			client := newTestClient(t, fake)

			require.NoError(t, client.WriteScreening(context.Background(), 11, tt.decision))

			req := fake.last(t)
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "/api/v1/reviews/42/customize", req.Path)
			assert.EqualValues(t, 11, req.Body["article_id"])
			assert.Equal(t, tt.plan, req.Body["plan"])
		})
	}
}

func TestWriteScreeningUnknownVerdict(t *testing.T) {
	fake := &fakePlatform{}
	client := newTestClient(t, fake)

	err := client.WriteScreening(context.Background(), 1, types.Decision{Verdict: "skip"})
	assert.ErrorIs(t, err, ErrUnknownVerdict)
	assert.Empty(t, fake.requests)
}

func TestWriteScreeningFailure(t *testing.T) {
	client := newTestClient(t, &fakePlatform{status: http.StatusBadRequest, response: "bad plan"})

	err := client.WriteScreening(context.Background(), 5, types.Include())
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, int64(5), we.RecordID)
	assert.Equal(t, http.StatusBadRequest, we.Status)
	assert.Contains(t, err.Error(), "bad plan")
}

func TestWriteDuplicate(t *testing.T) {
	fake := &fakePlatform{response: `{}`}
	client := newTestClient(t, fake)

	require.NoError(t, client.WriteDuplicate(context.Background(), 2, true))
	req := fake.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/api/v1/reviews/42/duplicates/2", req.Path)
	assert.Equal(t, map[string]any{"duplicate_action": float64(1), "isDeletedArticle": false}, req.Body)

	require.NoError(t, client.WriteDuplicate(context.Background(), 3, false))
	req = fake.last(t)
	assert.Equal(t, "/api/v1/reviews/42/duplicates/3", req.Path)
	assert.EqualValues(t, 2, req.Body["duplicate_action"])
}

func TestAuthorizeAttachesCookies(t *testing.T) {
	fake := &fakePlatform{response: `{"data":[]}`}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	state := `{"cookies":[
		{"name":"session","value":"abc","domain":"127.0.0.1","path":"/","expires":-1},
		{"name":"expired","value":"old","domain":"127.0.0.1","path":"/","expires":1},
		{"name":"other","value":"zzz","domain":"example.org","path":"/","expires":-1},
		{"name":"secure","value":"s","domain":"127.0.0.1","path":"/","expires":-1,"secure":true}
	]}`
	client, err := NewClient(server.URL, "42").Authorize(&types.Credential{
		Headers:      map[string]string{"authorization": "Bearer tok"},
		BrowserState: []byte(state),
	})
	require.NoError(t, err)

	_, err = client.FetchBatch(context.Background(), types.Cursor{Size: 1}, ModeUndecided)
	require.NoError(t, err)

	cookies := fake.last(t).Cookies
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
}

func TestAuthorizeRejectsBadState(t *testing.T) {
	_, err := NewClient("http://localhost", "1").Authorize(&types.Credential{BrowserState: []byte("{")})
	assert.Error(t, err)

	_, err = NewClient("http://localhost", "1").Authorize(nil)
	assert.Error(t, err)
}

func TestDomainMatch(t *testing.T) {
	assert.True(t, domainMatch("rayyan.ai", ".rayyan.ai"))
	assert.True(t, domainMatch("new.rayyan.ai", ".rayyan.ai"))
	assert.False(t, domainMatch("notrayyan.ai", "rayyan.ai"))
	assert.False(t, domainMatch("rayyan.ai", ""))
}
