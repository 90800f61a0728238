package httpapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/claude-gateway/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

func managerWithUpstream(t *testing.T, upstreamURL string) *config.Manager {
	t.Helper()

	t.Setenv("UPSTREAM_BASE_URL", upstreamURL)
	t.Setenv("UPSTREAM_API_KEY", "test-key")
	os.Unsetenv("PORT")
	os.Unsetenv("REASONING_MODEL")
	os.Unsetenv("COMPLETION_MODEL")

	mgr := config.NewManager("")
	_, err := mgr.Load()
	require.NoError(t, err)

	return mgr
}

func TestHandler_NonStreamingRoundTrip(t *testing.T) {
	var gotAuth string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o",
			"choices": [{"message": {"role":"assistant","content":"hi there"}, "finish_reason":"stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 2}
		}`))
	}))
	defer upstream.Close()

	mgr := managerWithUpstream(t, upstream.URL)
	h := NewHandler(mgr, upstream.Client(), testLogger())

	reqBody := `{"model":"claude-3","max_tokens":100,"messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Contains(t, rec.Body.String(), `"hi there"`)
	assert.Contains(t, rec.Body.String(), `"claude-3"`)
}

func TestHandler_StreamingRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		flusher := w.(http.Flusher)

		firstFrame := `data: {"id":"c1","model":"gpt-4o","choices":[{"delta":{"content":"hi"}}]}` + "\n\n"
		io.WriteString(w, firstFrame)
		flusher.Flush()

		io.WriteString(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		flusher.Flush()

		io.WriteString(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer upstream.Close()

	mgr := managerWithUpstream(t, upstream.URL)
	h := NewHandler(mgr, upstream.Client(), testLogger())

	reqBody := `{"model":"claude-3","max_tokens":100,"stream":true,"messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: message_start")
	assert.Contains(t, body, "event: content_block_delta")
	assert.Contains(t, body, "event: message_stop")
}

func TestHandler_StreamingDoneWithoutFinishReasonStillClosesSession(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		flusher := w.(http.Flusher)

		io.WriteString(w, `data: {"id":"c1","model":"gpt-4o","choices":[{"delta":{"content":"hi"}}]}`+"\n\n")
		flusher.Flush()

		io.WriteString(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer upstream.Close()

	mgr := managerWithUpstream(t, upstream.URL)
	h := NewHandler(mgr, upstream.Client(), testLogger())

	reqBody := `{"model":"claude-3","max_tokens":100,"stream":true,"messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: content_block_stop")
	assert.Contains(t, body, "event: message_delta")
	assert.Contains(t, body, "event: message_stop")
}

func TestHandler_UpstreamUnreachableReturnsBadGateway(t *testing.T) {
	mgr := managerWithUpstream(t, "http://127.0.0.1:1")
	h := NewHandler(mgr, &http.Client{}, testLogger())

	reqBody := `{"model":"claude-3","max_tokens":10,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"error"`)
}

func TestHandler_UpstreamErrorStatusForwarded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer upstream.Close()

	mgr := managerWithUpstream(t, upstream.URL)
	h := NewHandler(mgr, upstream.Client(), testLogger())

	reqBody := `{"model":"claude-3","max_tokens":10,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "slow down")
	assert.Contains(t, rec.Body.String(), "rate_limit_error")
}

func TestHandler_RejectsNonPost(t *testing.T) {
	mgr := managerWithUpstream(t, "http://example.invalid")
	h := NewHandler(mgr, &http.Client{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/messages", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_RejectsUnknownPath(t *testing.T) {
	mgr := managerWithUpstream(t, "http://example.invalid")
	h := NewHandler(mgr, &http.Client{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/other", bytes.NewReader(nil))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ModelRouterAppliesOverride(t *testing.T) {
	var gotModel atomic.Value

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotModel.Store(string(body))

		w.Write([]byte(`{"id":"c1","choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer upstream.Close()

	t.Setenv("UPSTREAM_BASE_URL", upstream.URL)
	t.Setenv("COMPLETION_MODEL", "routed-model")

	mgr := config.NewManager("")
	_, err := mgr.Load()
	require.NoError(t, err)

	h := NewHandler(mgr, upstream.Client(), testLogger())

	reqBody := `{"model":"claude-3","max_tokens":10,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, gotModel.Load().(string), `"routed-model"`)
}
